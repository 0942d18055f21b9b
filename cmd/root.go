// Package cmd provides the prequal command line: the HTTP server and
// offline quoting.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prequal-service/config"
	"prequal-service/logging"
)

// Version is overridden at build time with -ldflags "-X prequal-service/cmd.Version=...".
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "prequal",
	Short: "Mortgage pre-qualification quotes and certificates",
	Long: `prequal computes mortgage affordability and payment quotes and issues
pre-qualification certificates.

Examples:
  prequal serve --config config.yaml
  prequal quote affordability --income 30000 --dsr 0.4 --obligations 4000 --rate 0.12 --term 20
  prequal quote payment --principal 500000 --rate 0.075 --term 25 --stress-bps 200`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration and builds the logger every
// subcommand shares.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prequal version %s\n", Version)
	},
}
