// Command cms-proxy serves the CMS API through the resilient client with a
// shared read cache, plus health and Prometheus endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/config"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	listen     string
	baseURL    string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "cms-proxy",
		Short:        "Caching proxy in front of the CMS API",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (overrides proxy.listen)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "CMS API base URL (overrides client.base_url)")
	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if opts.listen != "" {
		cfg.Proxy.Listen = opts.listen
	}
	if opts.baseURL != "" {
		cfg.Client.BaseURL = opts.baseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logCfg := cfg.LoggerConfig()
	logCfg.Service = "cms-proxy"
	logging.Setup(logCfg)
	logger := logging.NewLogger("cms-proxy")

	if rdb := cfg.RedisClient(); rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		defer rdb.Close()
		cfg.Client.Redis = rdb
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Sharing quota state through Redis")
	}

	api, err := client.New(cfg.Client)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer api.Close()

	p := newProxy(api, cache.Default(), cfg.Cache, logger)
	go runJanitor(ctx, p.cache, cfg.Cache.PruneInterval, logger)

	logger.Info().
		Str("listen", cfg.Proxy.Listen).
		Str("base_url", cfg.Client.BaseURL).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Starting cms-proxy")

	return serve(ctx, cfg.Proxy, p.routes(), logger)
}
