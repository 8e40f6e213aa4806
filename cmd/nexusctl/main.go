// Command nexusctl manages the comment service's schema and seed data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/grid-nexus/nexus-api/internal/app"
	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/pkg/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "nexusctl",
	Short:         "Grid Nexus comment service tooling",
	Long:          `Schema migrations, seed imports, comment exports and score checks for the Grid Nexus comment service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger writes human readable logs to stderr so stdout stays machine readable
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.NewWithWriter(os.Stderr, level, "pretty")
}

// openApp loads configuration and wires the configured store
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	if cfg.Store.Driver == config.DriverMemory {
		log.Warn().Msg("STORE_DRIVER is memory; changes are lost when nexusctl exits")
	}
	return app.New(ctx, cfg, app.Options{}, log)
}
