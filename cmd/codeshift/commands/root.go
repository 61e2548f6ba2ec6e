// Package commands implements CLI command handlers for codeshift.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codeshift/internal/config"
	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/rules"
	"github.com/Sumatoshi-tech/codeshift/pkg/version"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the codeshift command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "codeshift",
		Short: "Codeshift - rule-based JavaScript and TypeScript codemods",
		Long: `Codeshift rewrites JavaScript, TypeScript and Vue sources with ordered
migration rules.

Commands:
  run       Migrate files or stdin
  list      Show the available rules
  watch     Migrate files as they change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default .codeshift.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// session is the loaded configuration plus the telemetry built from it.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.MigrationMetrics
}

const shutdownTimeout = 5 * time.Second

func (g *globalOptions) open(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.ApplyToObservability(observability.DefaultConfig())
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogOutput = cmd.ErrOrStderr()

	switch {
	case g.quiet:
		obsCfg.LogLevel = slog.LevelError
	case g.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewMigrationMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &session{cfg: cfg, providers: providers, metrics: metrics}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.providers.Shutdown(ctx)
	if err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// pipelineFlags are the runner flags shared by run and watch. Flags the
// user set take precedence over the config file.
type pipelineFlags struct {
	rules   []string
	policy  string
	dialect string
	workers int
}

func (pf *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&pf.rules, "rules", "r", nil, "Rule names to apply (default: all)")
	cmd.Flags().StringVar(&pf.policy, "policy", config.DefaultPipelinePolicy, "Rule failure policy: skip-file, abort, continue")
	cmd.Flags().StringVar(&pf.dialect, "dialect", "", "Parse every file as this dialect (js, ts, tsx)")
	cmd.Flags().IntVar(&pf.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
}

func (pf *pipelineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("rules") {
		cfg.Rules = pf.rules
	}

	if cmd.Flags().Changed("policy") {
		cfg.Pipeline.Policy = pf.policy
	}

	if cmd.Flags().Changed("dialect") {
		cfg.Pipeline.Dialect = pf.dialect
	}

	if cmd.Flags().Changed("workers") {
		cfg.Pipeline.Workers = pf.workers
	}
}

func (pf *pipelineFlags) runner(cmd *cobra.Command, s *session, dryRun bool) (*pipeline.Runner, error) {
	pf.apply(cmd, s.cfg)

	plugins, err := rules.Select(s.cfg.Rules)
	if err != nil {
		return nil, err
	}

	runnerCfg, err := s.cfg.ApplyToRunner(plugins)
	if err != nil {
		return nil, err
	}

	runnerCfg.Logger = s.providers.Logger
	runnerCfg.Tracer = s.providers.Tracer
	runnerCfg.Metrics = s.metrics
	runnerCfg.DryRun = dryRun

	return pipeline.NewRunner(runnerCfg)
}
