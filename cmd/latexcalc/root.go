package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc"
	"github.com/njchilds90/latexcalc/internal/config"
	"github.com/njchilds90/latexcalc/internal/logging"
	"github.com/njchilds90/latexcalc/internal/metrics"
)

// app is the state shared by all subcommands, built once flags are parsed.
type app struct {
	configPath string
	jsonOut    bool
	plain      bool
	precision  int
	logLevel   string

	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	calc    *latexcalc.Calculator
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "latexcalc",
		Short:         "Evaluate, solve, differentiate, integrate and take limits of LaTeX math",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML config file (LATEXCALC_* variables override it)")
	f.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	f.BoolVar(&a.plain, "plain", false, "print results without styling")
	f.IntVar(&a.precision, "precision", 0, "significant digits of approximate results")
	f.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.calcCmd(),
		a.solveCmd(),
		a.systemCmd(),
		a.derivativeCmd(),
		a.integralCmd(),
		a.limitCmd(),
		a.serveCmd(),
		a.mcpCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("precision") {
		cfg.Engine.Precision = a.precision
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.metrics = metrics.New()
	a.calc = latexcalc.New(
		latexcalc.WithConfig(cfg.Calculator()),
		latexcalc.WithLogger(log),
		latexcalc.WithObserver(a.metrics),
	)
	return nil
}
