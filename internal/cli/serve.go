package cli

import (
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"favharvest/internal/harvest"
	"favharvest/internal/harvestserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an MCP server exposing the favorites tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := buildRouter()
		if err != nil {
			return err
		}
		// Content responses are worth caching across tool calls; a single
		// CLI invocation never initializes this.
		harvest.InitCache(harvest.Cfg.RedisURL, harvest.Cfg.CacheTTL, harvest.Cfg.CacheMaxEntries, 5*time.Minute)

		port := env.Str("MCP_PORT", "8893")
		slog.Info("starting favharvest", slog.String("port", port))

		server := mcp.NewServer(&mcp.Implementation{
			Name:    "favharvest",
			Version: version,
		}, nil)
		harvestserver.RegisterTools(server, router)
		slog.Info("tools registered", slog.Int("count", 3))

		return mcpserver.Run(server, mcpserver.Config{
			Name:         "favharvest",
			Version:      version,
			Port:         port,
			WriteTimeout: 120 * time.Second,
			Metrics:      harvest.FormatMetrics,
		})
	},
}
