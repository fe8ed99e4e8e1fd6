// Package cli implements the favharvest command tree: identify, containers,
// items, content, serve.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"favharvest/internal/cookiecloud"
	"favharvest/internal/harvest"
	"favharvest/internal/harvest/bilibili"
	"favharvest/internal/harvest/xhs"
	"favharvest/internal/harvest/zhihu"
)

var version = "dev"

// Exit codes: 1 is any hard failure; 2 means the operation worked but there
// is nothing usable (anonymous session, no extractable text, token needed).
const (
	exitFailure = 1
	exitNoData  = 2
)

var (
	flagCookie     string
	flagJSON       bool
	flagNoHeadless bool
)

var rootCmd = &cobra.Command{
	Use:           "favharvest",
	Short:         "Retrieve favorites and their text content from bilibili, zhihu and xiaohongshu",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initHarvest()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCookie, "cookie", "", "cookie header override, used for every platform")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON instead of human-readable output")
	rootCmd.PersistentFlags().BoolVar(&flagNoHeadless, "no-headless", false, "reserved for driving a visible browser; page scraping ignores it")

	rootCmd.AddCommand(identifyCmd, containersCmd, itemsCmd, contentCmd, serveCmd)
}

// Execute runs the command tree and maps the typed error set to exit codes.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var (
		authErr  *harvest.AuthError
		noText   *harvest.NoTextError
		tokenErr *harvest.AccessTokenRequiredError
	)
	if errors.As(err, &authErr) || errors.As(err, &noText) || errors.As(err, &tokenErr) {
		return exitNoData
	}
	return exitFailure
}

// initHarvest wires configuration, logging and the shared clients. Runs
// once per invocation before any command body.
func initHarvest() error {
	_ = godotenv.Load()

	level := slog.LevelInfo
	if env.Str("LOG_LEVEL", "") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c := harvest.Config{
		RequestTimeout:    env.Duration("REQUEST_TIMEOUT", 15*time.Second),
		PageSize:          env.Int("PAGE_SIZE", 20),
		ItemLimit:         env.Int("ITEM_LIMIT", 500),
		UserAgent:         env.Str("USER_AGENT", ""),
		RequestsPerSecond: env.Float("REQUESTS_PER_SECOND", 4),
		RedisURL:          env.Str("REDIS_URL", ""),
		CacheTTL:          env.Duration("CACHE_TTL", 15*time.Minute),
		CacheMaxEntries:   env.Int("CACHE_MAX_ENTRIES", 1000),
		HTTPClient: &http.Client{
			Timeout: env.Duration("REQUEST_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := stealth.NewClient(stealth.WithTimeout(15))
	if err != nil {
		slog.Warn("stealth client init failed, page scraping disabled", slog.Any("error", err))
	} else {
		c.Browser = bc
	}

	harvest.Init(c)
	return nil
}

// buildRouter assembles the platform clients over one credential resolver.
func buildRouter() (*harvest.Router, error) {
	resolver := cookiecloud.NewResolver(flagCookie, cookiecloud.ConfigFromEnv(), harvest.Cfg.HTTPClient)

	clients := []harvest.Client{
		bilibili.New(harvest.OnceCredentials(resolver.For(harvest.Bilibili))),
	}
	zhihuExtractor, err := harvest.NewStealthExtractor(harvest.Zhihu)
	if err != nil {
		slog.Debug("zhihu article fallback disabled", slog.Any("error", err))
		zhihuExtractor = nil
	}
	clients = append(clients, zhihu.New(harvest.OnceCredentials(resolver.For(harvest.Zhihu)), stateExtractor(zhihuExtractor)))

	xhsExtractor, err := harvest.NewStealthExtractor(harvest.Xiaohongshu)
	if err != nil {
		slog.Warn("xiaohongshu disabled, no page-state extractor", slog.Any("error", err))
	} else {
		clients = append(clients, xhs.New(harvest.OnceCredentials(resolver.For(harvest.Xiaohongshu)), xhsExtractor))
	}

	return harvest.NewRouter(clients...), nil
}

// stateExtractor keeps a typed nil from sneaking into the interface value.
func stateExtractor(se *harvest.StealthExtractor) harvest.StateExtractor {
	if se == nil {
		return nil
	}
	return se
}
