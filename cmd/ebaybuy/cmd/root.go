// Package cmd implements the ebaybuy CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/ebaybuy/internal/config"
	"github.com/donaldgifford/ebaybuy/internal/ebay"
	"github.com/donaldgifford/ebaybuy/pkg/logger"
)

const defaultConfigFile = "ebaybuy.yaml"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ebaybuy",
		Short: "Search eBay listings through the Buy Browse API",
		Long: "ebaybuy searches eBay listings with the Buy Browse API using an\n" +
			"application token. It can call eBay directly, go through a running\n" +
			"ebaybuy proxy (--server), or serve that proxy itself.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./"+defaultConfigFile+" if present)")
	flags.String("server", "", "ebaybuy proxy URL; when empty eBay is called directly")
	flags.Bool("sandbox", false, "use the eBay sandbox environment")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cobra.CheckErr(viper.BindPFlag("server", flags.Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("sandbox", flags.Lookup("sandbox")))
	cobra.CheckErr(viper.BindPFlag("log_level", flags.Lookup("log-level")))

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(quotaCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(openapiCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	viper.SetEnvPrefix("EBAYBUY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file when there is one, then layers the
// EBAYBUY_* environment and flags on top before validating.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg := &config.Config{}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if cfg, err = config.Decode(data); err != nil {
			return nil, err
		}
	}

	overlay(cfg)

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay(cfg *config.Config) {
	if v := viper.GetString("client_id"); v != "" {
		cfg.Ebay.ClientID = v
	}
	if v := viper.GetString("client_secret"); v != "" {
		cfg.Ebay.ClientSecret = v
	}
	if v := viper.GetString("marketplace"); v != "" {
		cfg.Ebay.Marketplace = v
	}
	if viper.GetBool("sandbox") {
		cfg.Ebay.Sandbox = true
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Logging.Level = v
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging.Level, cfg.Logging.Format)
}

// newBrowseClient builds the token manager, rate limiter and Browse client
// described by cfg.
func newBrowseClient(cfg *config.Config, log *slog.Logger) *ebay.BrowseClient {
	e := cfg.Ebay

	tokens := ebay.NewTokenManager(
		ebay.NewCredential(e.ClientID, e.ClientSecret, e.Scopes, e.Sandbox),
		ebay.WithEndpoints(e.ProductionURL, e.SandboxURL),
		ebay.WithRefreshBuffer(e.RefreshBuffer),
		ebay.WithTokenLogger(log),
	)

	return ebay.NewBrowseClient(tokens,
		ebay.WithMarketplace(e.Marketplace),
		ebay.WithRequestTimeout(e.RequestTimeout),
		ebay.WithRateLimiter(ebay.NewRateLimiter(e.RateLimit.PerSecond, e.RateLimit.Burst, e.RateLimit.DailyLimit)),
		ebay.WithBrowseLogger(log),
	)
}
