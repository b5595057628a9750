package eventctl

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"eventcore/internal/builtin"
	"eventcore/internal/config"
	"eventcore/internal/discovery"
	"eventcore/internal/eventable"
	"eventcore/internal/index"
	"eventcore/internal/metrics"
	"eventcore/internal/offline"
	"eventcore/internal/registry"
)

// Version is stamped at build time with -ldflags "-X eventcore/internal/eventctl.Version=...".
var Version = "dev"

// state is shared by every command of one invocation.
type state struct {
	catalog *registry.Catalog

	cfgPath     string
	indexPath   string
	logLevel    string
	logFile     string
	metricsFile string

	cfg     config.Config
	log     zerolog.Logger
	closer  io.Closer
	promReg *prometheus.Registry
	metrics *metrics.Metrics
	idx     *index.Store
}

// NewRootCmd constructs the eventctl command tree over catalog.
func NewRootCmd(catalog *registry.Catalog) *cobra.Command {
	s := &state{catalog: catalog}
	root := &cobra.Command{
		Use:           "eventctl",
		Short:         "Maintain and exercise the offline listener index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	pf := root.PersistentFlags()
	pf.StringVar(&s.cfgPath, "config", envStr(EnvConfig, ""), "Config file (.yaml|.yml|.json|.toml, defaults "+EnvConfig+")")
	pf.StringVar(&s.indexPath, "index", "", "Listener index path (overrides index_path and "+config.EnvIndex+")")
	pf.StringVar(&s.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&s.logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	pf.StringVar(&s.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the command")
	root.PersistentPreRunE = s.setup

	indexCmd := &cobra.Command{Use: "index", Short: "Build and inspect the listener index", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("index requires a subcommand: rebuild|show|verify")
	}}
	indexCmd.AddCommand(s.rebuildCmd(), s.showCmd(), s.verifyCmd())
	root.AddCommand(indexCmd, s.triggerCmd(), versionCmd())
	return root
}

// Execute runs eventctl with args and returns the process exit code.
func Execute(catalog *registry.Catalog, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(catalog)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "eventctl:", err)
		return 1
	}
	return 0
}

func (s *state) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(s.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("index") {
		cfg.IndexPath = s.indexPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = s.logFile
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = s.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg

	s.log, s.closer, err = newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	eventable.SetLogger(s.log)
	index.SetLogger(s.log)
	offline.SetLogger(s.log)
	discovery.SetLogger(s.log)
	builtin.SetLogger(s.log)

	s.promReg = prometheus.NewRegistry()
	s.metrics = metrics.New(s.promReg)
	return nil
}

// run wraps a command body so metrics are flushed and the log file closed
// whether or not the body fails.
func (s *state) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if s.cfg.MetricsFile != "" {
			if werr := prometheus.WriteToTextfile(s.cfg.MetricsFile, s.promReg); werr != nil {
				err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
			}
		}
		if s.closer != nil {
			_ = s.closer.Close()
		}
		return err
	}
}

// store returns the one index Store of this invocation.
func (s *state) store() *index.Store {
	if s.idx == nil {
		f, _ := s.cfg.Format()
		s.idx = index.NewStore(s.cfg.IndexPath, index.WithFormat(f), index.WithMetrics(s.metrics))
	}
	return s.idx
}

// versionCmd needs no config, logger or index.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the eventctl version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "eventctl %s\n", Version)
			return nil
		},
	}
}
