// favharvest — favorites retrieval for bilibili, zhihu and xiaohongshu.
//
// Reads the logged-in sessions synced through CookieCloud, lists favorite
// folders/collections/boards and their saved items, and resolves items to
// text: subtitle tracks, answer and article bodies, note descriptions.
// Runs as a CLI or as an MCP server (favharvest serve).
package main

import (
	"os"

	"favharvest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
