// Package cli implements the ppcopt command line tool. It runs the optimizer
// offline against a local bulk report, without the server's storage stack.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/export"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
)

var (
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ppcopt",
	Short: "Amazon Ads bid and placement optimizer",
	Long:  `ppcopt classifies the keywords and product targets of an Amazon Ads bulk
report, recommends new bids and placement adjustments, and writes an updated
bulk workbook ready for re-upload.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnvOrDefault("CONFIG_PATH", ""), "optional config file for limits and export defaults")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// settings are the run-wide knobs the CLI takes from the config file.
type settings struct {
	run             optimizer.Options
	defaultStrategy string
	export          export.Options
	topChanges      int
}

// loadSettings reads the config file when one is given; otherwise the
// built-in defaults apply.
func loadSettings(path string) (settings, error) {
	if path == "" {
		return settings{
			run:             optimizer.Options{Limits: optimizer.DefaultLimits(), Workers: 1},
			defaultStrategy: "standard",
			export:          export.DefaultOptions(),
			topChanges:      export.DefaultTopChanges,
		}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return settings{}, err
	}
	return settings{
		run:             cfg.Optimizer.Options(),
		defaultStrategy: cfg.Optimizer.DefaultStrategy,
		export:          cfg.Export.Options(),
		topChanges:      cfg.Export.TopChanges,
	}, nil
}
