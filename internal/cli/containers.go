package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"favharvest/internal/harvest"
)

var (
	containersPlatform   string
	containersLimit      int
	containersSubscribed bool
	containersProfileID  string
)

var containersCmd = &cobra.Command{
	Use:   "containers",
	Short: "List favorite folders, collections and boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := buildRouter()
		if err != nil {
			return err
		}
		filter := harvest.FilterCreated
		if containersSubscribed {
			filter = harvest.FilterAll
		}

		var results []harvest.ListResult
		if containersPlatform == "" || containersPlatform == "all" {
			if containersProfileID != "" {
				return fmt.Errorf("--profile-id needs an explicit --platform")
			}
			results = router.ListAll(cmd.Context(), filter, containersLimit)
		} else {
			p, ok := harvest.ParsePlatform(containersPlatform)
			if !ok {
				return fmt.Errorf("unknown platform %q", containersPlatform)
			}
			client, ok := router.Client(p)
			if !ok {
				return fmt.Errorf("platform %s not configured", p)
			}
			containers, err := client.ListContainers(cmd.Context(), containersProfileID, filter, containersLimit)
			if err != nil {
				return err
			}
			results = []harvest.ListResult{{Platform: p, Containers: containers}}
		}

		if flagJSON {
			return printJSON(results)
		}
		printContainers(results)
		return nil
	},
}

func init() {
	containersCmd.Flags().StringVar(&containersPlatform, "platform", "all", "platform to list, or all")
	containersCmd.Flags().IntVar(&containersLimit, "limit", 0, "max containers per platform (0 = unlimited)")
	containersCmd.Flags().BoolVar(&containersSubscribed, "include-subscribed", false, "also list subscribed collections where supported")
	containersCmd.Flags().StringVar(&containersProfileID, "profile-id", "", "list another profile's containers instead of the logged-in account")
}
