// Package harvestserver exposes the favorites-retrieval operations as MCP
// tools: favorites_list, favorites_items, favorites_content.
package harvestserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"favharvest/internal/harvest"
)

// RegisterTools registers all favorites tools on the given MCP server.
func RegisterTools(server *mcp.Server, router *harvest.Router) {
	registerFavoritesList(server, router)
	registerFavoritesItems(server, router)
	registerFavoritesContent(server, router)
}
