package harvestserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"favharvest/internal/harvest"
)

// FavoritesContentInput addresses one item, either by URL or by
// platform+id. Listings are always fetched live, but resolved content is
// immutable enough to cache.
type FavoritesContentInput struct {
	URL         string `json:"url,omitempty" jsonschema:"Item URL; the platform is detected from it"`
	Platform    string `json:"platform,omitempty" jsonschema:"Platform, when addressing by id"`
	ID          string `json:"id,omitempty" jsonschema:"Item id: BV id, answer:N / article:N, or note id"`
	AccessToken string `json:"access_token,omitempty" jsonschema:"Share token for xiaohongshu notes"`
	Languages   string `json:"languages,omitempty" jsonschema:"Comma-separated subtitle language preference (default: zh-CN,zh-Hans,zh)"`
	Timestamps  bool   `json:"timestamps,omitempty" jsonschema:"Prefix subtitle lines with [MM:SS]"`
	Page        int    `json:"page,omitempty" jsonschema:"1-based part index for multi-part videos"`
}

type FavoritesContentOutput struct {
	Record *harvest.ContentRecord `json:"record"`
}

func registerFavoritesContent(server *mcp.Server, router *harvest.Router) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "favorites_content",
		Description: "Fetch the text content of one saved item: video subtitle track, answer/article body, or note description. Items with no text come back flagged for external transcription.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FavoritesContentInput) (*mcp.CallToolResult, FavoritesContentOutput, error) {
		opts := harvest.ContentOptions{Timestamps: input.Timestamps, Page: input.Page}
		if langs := strings.TrimSpace(input.Languages); langs != "" {
			for _, lang := range strings.Split(langs, ",") {
				if lang = strings.TrimSpace(lang); lang != "" {
					opts.Languages = append(opts.Languages, lang)
				}
			}
		}

		client, ref, err := resolveTarget(router, input)
		if err != nil {
			return nil, FavoritesContentOutput{}, err
		}

		cacheKey := harvest.CacheKey("content", string(ref.Platform), ref.ID, ref.URL,
			strings.Join(opts.Languages, ","), fmt.Sprint(opts.Timestamps), fmt.Sprint(opts.Page))
		if rec, ok := harvest.CacheGetContent(ctx, cacheKey); ok {
			return nil, FavoritesContentOutput{Record: rec}, nil
		}

		rec, err := client.FetchContent(ctx, ref, opts)
		if err != nil {
			return nil, FavoritesContentOutput{}, err
		}
		harvest.CacheSetContent(ctx, cacheKey, rec)
		return nil, FavoritesContentOutput{Record: rec}, nil
	})
}

func resolveTarget(router *harvest.Router, input FavoritesContentInput) (harvest.Client, harvest.ItemRef, error) {
	if input.URL != "" {
		client, ref, err := router.Resolve(input.URL)
		if err != nil {
			return nil, harvest.ItemRef{}, err
		}
		if input.AccessToken != "" {
			ref.AccessToken = input.AccessToken
		}
		return client, ref, nil
	}
	p, ok := harvest.ParsePlatform(strings.TrimSpace(input.Platform))
	if !ok {
		return nil, harvest.ItemRef{}, fmt.Errorf("platform or url is required")
	}
	if input.ID == "" {
		return nil, harvest.ItemRef{}, fmt.Errorf("id is required when addressing by platform")
	}
	client, ok := router.Client(p)
	if !ok {
		return nil, harvest.ItemRef{}, fmt.Errorf("platform %s not configured", p)
	}
	return client, harvest.ItemRef{Platform: p, ID: input.ID, AccessToken: input.AccessToken}, nil
}
