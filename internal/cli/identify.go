package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"favharvest/internal/harvest"
)

var identifyPlatform string

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Confirm the session is logged in and show the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := buildRouter()
		if err != nil {
			return err
		}

		platforms := harvest.PlatformOrder
		if identifyPlatform != "" && identifyPlatform != "all" {
			p, ok := harvest.ParsePlatform(identifyPlatform)
			if !ok {
				return fmt.Errorf("unknown platform %q", identifyPlatform)
			}
			platforms = []harvest.Platform{p}
		}

		type result struct {
			Platform harvest.Platform `json:"platform"`
			Account  *harvest.Account `json:"account,omitempty"`
			Error    string           `json:"error,omitempty"`
		}
		results := make([]result, 0, len(platforms))
		var firstErr error
		for _, p := range platforms {
			client, ok := router.Client(p)
			if !ok {
				continue
			}
			acct, err := client.Identify(cmd.Context())
			res := result{Platform: p, Account: acct}
			if err != nil {
				res.Error = err.Error()
				if firstErr == nil {
					firstErr = err
				}
			}
			results = append(results, res)
		}

		if flagJSON {
			if err := printJSON(results); err != nil {
				return err
			}
		} else {
			for _, res := range results {
				if res.Error != "" {
					fmt.Printf("%s: %s\n", res.Platform, res.Error)
					continue
				}
				fmt.Printf("%s: %s (%s)\n", res.Platform, res.Account.Name, res.Account.ID)
			}
		}
		// Single-platform identify propagates the failure so the exit code
		// tells scripts whether the session is usable.
		if len(platforms) == 1 && firstErr != nil {
			return firstErr
		}
		return nil
	},
}

func init() {
	identifyCmd.Flags().StringVar(&identifyPlatform, "platform", "all", "platform to check, or all")
}
