package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"favharvest/internal/harvest"
)

var (
	itemsPlatform     string
	itemsFolderID     string
	itemsCollectionID string
	itemsBoardID      string
	itemsOrder        string
	itemsLimit        int
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the saved items inside one container",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ok := harvest.ParsePlatform(itemsPlatform)
		if !ok {
			return fmt.Errorf("unknown platform %q", itemsPlatform)
		}
		containerID, err := pickContainerID(p)
		if err != nil {
			return err
		}

		router, err := buildRouter()
		if err != nil {
			return err
		}
		client, ok := router.Client(p)
		if !ok {
			return fmt.Errorf("platform %s not configured", p)
		}
		items, err := client.ListItems(cmd.Context(), containerID, harvest.ListOptions{
			Order: itemsOrder,
			Limit: itemsLimit,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(items)
		}
		printItems(items)
		return nil
	},
}

// pickContainerID accepts exactly one of the three id flags, each named
// after the platform's own term for a container.
func pickContainerID(p harvest.Platform) (string, error) {
	set := 0
	id := ""
	for _, v := range []string{itemsFolderID, itemsCollectionID, itemsBoardID} {
		if v != "" {
			set++
			id = v
		}
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of --folder-id, --collection-id or --board-id is required")
	}
	switch p {
	case harvest.Bilibili:
		if itemsFolderID == "" {
			return "", fmt.Errorf("bilibili containers are folders; use --folder-id")
		}
	case harvest.Zhihu:
		if itemsCollectionID == "" {
			return "", fmt.Errorf("zhihu containers are collections; use --collection-id")
		}
	case harvest.Xiaohongshu:
		if itemsBoardID == "" {
			return "", fmt.Errorf("xiaohongshu containers are boards; use --board-id (or --board-id saved)")
		}
	}
	return id, nil
}

func init() {
	itemsCmd.Flags().StringVar(&itemsPlatform, "platform", "", "platform the container lives on (required)")
	itemsCmd.Flags().StringVar(&itemsFolderID, "folder-id", "", "bilibili favorite folder id")
	itemsCmd.Flags().StringVar(&itemsCollectionID, "collection-id", "", "zhihu collection id")
	itemsCmd.Flags().StringVar(&itemsBoardID, "board-id", "", "xiaohongshu board id, or 'saved'")
	itemsCmd.Flags().StringVar(&itemsOrder, "order", "", "bilibili only: mtime, view or pubtime")
	itemsCmd.Flags().IntVar(&itemsLimit, "limit", 0, "max items (0 = package default)")
	_ = itemsCmd.MarkFlagRequired("platform")
}
