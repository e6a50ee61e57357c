package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netnav/netnav/internal/config"
	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/storage"
)

// ExitError is the process status for a failed command
const ExitError = 1

// app carries the state shared by every subcommand
type app struct {
	configPath string
	envFile    string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "netnav",
		Short: "Discover local business-networking events",
		Long: `netnav scrapes chamber-of-commerce event pages, normalizes the events
it finds and stores them with their venues.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to .env file loaded before the config")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(a),
		newScrapeCmd(a),
		newRunCmd(a),
		newSourcesCmd(a),
		newEventsCmd(a),
	)
	return cmd
}

// load reads the configuration and points the default logger at stderr
// so command output on stdout stays machine-readable
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel()
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	logger.Debug("Configuration loaded", logger.Fields{"config": cfg.String()})
	return nil
}

// openStore opens the configured store. Callers must Close it.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	store, err := storage.Open(ctx, a.cfg.Storage.Driver, a.cfg.Storage.DSN, a.cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
