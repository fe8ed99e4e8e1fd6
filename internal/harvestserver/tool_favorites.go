package harvestserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"favharvest/internal/harvest"
)

// FavoritesListInput selects which platforms' containers to list.
type FavoritesListInput struct {
	Platform          string `json:"platform,omitempty" jsonschema:"Platform: bilibili, zhihu, xiaohongshu, or all (default: all)"`
	Limit             int    `json:"limit,omitempty" jsonschema:"Max containers per platform (default: unlimited)"`
	IncludeSubscribed bool   `json:"include_subscribed,omitempty" jsonschema:"Also list subscribed collections where the platform distinguishes them"`
}

// FavoritesListOutput groups containers per platform, in fixed platform
// order. A failed platform carries its error message without hiding the
// other platforms' results.
type FavoritesListOutput struct {
	Results []harvest.ListResult `json:"results"`
}

func kindFilter(includeSubscribed bool) harvest.KindFilter {
	if includeSubscribed {
		return harvest.FilterAll
	}
	return harvest.FilterCreated
}

func registerFavoritesList(server *mcp.Server, router *harvest.Router) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "favorites_list",
		Description: "List favorite containers (bilibili folders, zhihu collections, xiaohongshu boards) of the logged-in account, across all platforms or one.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FavoritesListInput) (*mcp.CallToolResult, FavoritesListOutput, error) {
		filter := kindFilter(input.IncludeSubscribed)
		name := strings.TrimSpace(input.Platform)
		if name == "" || name == "all" {
			return nil, FavoritesListOutput{Results: router.ListAll(ctx, filter, input.Limit)}, nil
		}
		p, ok := harvest.ParsePlatform(name)
		if !ok {
			return nil, FavoritesListOutput{}, fmt.Errorf("unknown platform %q", name)
		}
		client, ok := router.Client(p)
		if !ok {
			return nil, FavoritesListOutput{}, fmt.Errorf("platform %s not configured", p)
		}
		containers, err := client.ListContainers(ctx, "", filter, input.Limit)
		if err != nil {
			return nil, FavoritesListOutput{}, err
		}
		return nil, FavoritesListOutput{Results: []harvest.ListResult{{Platform: p, Containers: containers}}}, nil
	})
}

// FavoritesItemsInput addresses one container on one platform.
type FavoritesItemsInput struct {
	Platform    string `json:"platform" jsonschema:"Platform: bilibili, zhihu, or xiaohongshu"`
	ContainerID string `json:"container_id" jsonschema:"Folder/collection/board id; 'saved' for xiaohongshu's tabbed favorites"`
	Order       string `json:"order,omitempty" jsonschema:"bilibili only: mtime (default), view, pubtime"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Max items (default: 500)"`
}

type FavoritesItemsOutput struct {
	Items []harvest.Item `json:"items"`
}

func registerFavoritesItems(server *mcp.Server, router *harvest.Router) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "favorites_items",
		Description: "List the saved items inside one favorites container, following pagination until exhausted. Items carry the URL and access token needed to fetch content.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FavoritesItemsInput) (*mcp.CallToolResult, FavoritesItemsOutput, error) {
		p, ok := harvest.ParsePlatform(strings.TrimSpace(input.Platform))
		if !ok {
			return nil, FavoritesItemsOutput{}, fmt.Errorf("unknown platform %q", input.Platform)
		}
		if input.ContainerID == "" {
			return nil, FavoritesItemsOutput{}, fmt.Errorf("container_id is required")
		}
		client, ok := router.Client(p)
		if !ok {
			return nil, FavoritesItemsOutput{}, fmt.Errorf("platform %s not configured", p)
		}
		items, err := client.ListItems(ctx, input.ContainerID, harvest.ListOptions{
			Order: input.Order,
			Limit: input.Limit,
		})
		if err != nil {
			return nil, FavoritesItemsOutput{}, err
		}
		return nil, FavoritesItemsOutput{Items: items}, nil
	})
}
