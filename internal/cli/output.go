package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anatolykoptev/go-kit/strutil"

	"favharvest/internal/harvest"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printContainers(results []harvest.ListResult) {
	for _, res := range results {
		fmt.Printf("%s:\n", res.Platform)
		if res.Err != nil {
			fmt.Printf("  error: %v\n", res.Err)
			continue
		}
		if len(res.Containers) == 0 {
			fmt.Println("  (no containers)")
			continue
		}
		for _, c := range res.Containers {
			count := ""
			if c.ItemCount > 0 {
				count = fmt.Sprintf(" (%d items)", c.ItemCount)
			}
			fmt.Printf("  [%s] %s%s  %s\n", c.ID, c.Name, count, c.URL)
		}
	}
}

func printItems(items []harvest.Item) {
	for _, it := range items {
		title := strutil.TruncateWith(it.Title, 80, "...")
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("[%s] %s", it.ID, title)
		if it.Author != "" {
			fmt.Printf("  by %s", it.Author)
		}
		fmt.Println()
		if it.URL != "" {
			fmt.Printf("    %s\n", it.URL)
		}
	}
}

func printRecord(rec *harvest.ContentRecord) {
	if rec.Title != "" {
		fmt.Println(rec.Title)
	}
	if rec.Author != "" {
		fmt.Printf("by %s\n", rec.Author)
	}
	if rec.URL != "" {
		fmt.Println(rec.URL)
	}
	fmt.Println()
	if rec.Text != "" {
		fmt.Println(rec.Text)
		return
	}
	fmt.Println("(no extractable text)")
	if rec.Transcription != nil {
		fmt.Println("transcription needed:", rec.Transcription.URL)
		if rec.Transcription.StreamURL != "" {
			fmt.Println("stream:", rec.Transcription.StreamURL)
		}
	}
}
