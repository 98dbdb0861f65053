package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/buildinfo"
	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/logger"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "conciliar",
		Short:   "Bank statement vs. system ledger reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", config.FileName, "configuration file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(g))
	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newRunsCommand(g))

	return rootCmd
}

// load reads configuration (file, then environment), validates it, and
// returns a context carrying the configured logger.
func (g *globalFlags) load(ctx context.Context) (*config.Config, context.Context, zerolog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, nil, zerolog.Logger{}, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Log.Level)
	return cfg, logger.WithContext(ctx, log), log, nil
}
