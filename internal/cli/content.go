package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"favharvest/internal/harvest"
)

var (
	contentURL        string
	contentPlatform   string
	contentID         string
	contentToken      string
	contentLangs      string
	contentTimestamps bool
	contentPage       int
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Fetch the text content of one saved item",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := buildRouter()
		if err != nil {
			return err
		}

		var (
			client harvest.Client
			ref    harvest.ItemRef
		)
		switch {
		case contentURL != "":
			client, ref, err = router.Resolve(contentURL)
			if err != nil {
				return err
			}
		case contentPlatform != "" && contentID != "":
			p, ok := harvest.ParsePlatform(contentPlatform)
			if !ok {
				return fmt.Errorf("unknown platform %q", contentPlatform)
			}
			client, ok = router.Client(p)
			if !ok {
				return fmt.Errorf("platform %s not configured", p)
			}
			ref = harvest.ItemRef{Platform: p, ID: contentID}
		default:
			return fmt.Errorf("either --url or --platform with --id is required")
		}
		if contentToken != "" {
			ref.AccessToken = contentToken
		}

		opts := harvest.ContentOptions{Timestamps: contentTimestamps, Page: contentPage}
		for _, lang := range strings.Split(contentLangs, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				opts.Languages = append(opts.Languages, lang)
			}
		}

		rec, err := client.FetchContent(cmd.Context(), ref, opts)
		if err != nil {
			return err
		}

		if flagJSON {
			if err := printJSON(rec); err != nil {
				return err
			}
		} else {
			printRecord(rec)
		}
		// Nothing extractable is reported through the exit code so
		// pipelines can branch to their transcription step.
		if rec.Method == harvest.MethodNoneAvailable {
			return &harvest.NoTextError{Platform: rec.Platform, ItemID: rec.ItemID}
		}
		return nil
	},
}

func init() {
	contentCmd.Flags().StringVar(&contentURL, "url", "", "item URL; the platform is detected from it")
	contentCmd.Flags().StringVar(&contentPlatform, "platform", "", "platform, when addressing by id")
	contentCmd.Flags().StringVar(&contentID, "id", "", "item id: BV id, answer:N / article:N, or note id")
	contentCmd.Flags().StringVar(&contentToken, "access-token", "", "share token for xiaohongshu notes")
	contentCmd.Flags().StringVar(&contentLangs, "lang", "", "comma-separated subtitle language preference")
	contentCmd.Flags().BoolVar(&contentTimestamps, "timestamps", false, "prefix subtitle lines with [MM:SS]")
	contentCmd.Flags().IntVar(&contentPage, "page", 0, "1-based part index for multi-part videos")
}
