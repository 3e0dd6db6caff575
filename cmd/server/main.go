// Toko Mas Sugema backend: gold price quotes, price history and the jewelry catalog.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MelvinDY/SGM/internal/config"
	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

const banner = `
╔══════════════════════════════════════╗
║     Toko Mas Sugema Backend          ║
║                                      ║
╚══════════════════════════════════════╝
`

var (
	cfg *config.Config
	log *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "sugema",
	Short:         "Toko Mas Sugema backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level := cfg.LogLevel
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			level = v
		}
		log = logging.New(logging.ParseLevel(level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(changeCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sugema %s (commit %s)\n", version, commit)
	},
}

// newGoldService builds the quote service from configuration.
func newGoldService() *gold.Service {
	return gold.New(gold.Options{
		Endpoint:          cfg.GoldAPIURL,
		APIKey:            cfg.GoldAPIKey,
		Currency:          cfg.GoldCurrency,
		SyntheticBaseline: cfg.SyntheticBaseline,
		Logger:            log,
	})
}
