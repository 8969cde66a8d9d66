package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mongoextract/internal/export"
	"github.com/ajitpratap0/mongoextract/pkg/config"
	"github.com/ajitpratap0/mongoextract/pkg/connector/sources/mongodb"
	"github.com/ajitpratap0/mongoextract/pkg/errors"
	"github.com/ajitpratap0/mongoextract/pkg/incremental"
	"github.com/ajitpratap0/mongoextract/pkg/logger"
	"github.com/ajitpratap0/mongoextract/pkg/metrics"
	"github.com/ajitpratap0/mongoextract/pkg/observability"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "mongoextract",
		Short: "mongoextract - MongoDB collection exporter",
		Long: `mongoextract exports MongoDB collections to JSON files with mongoexport.
It builds the connection URI from configuration, checks connectivity and keeps
track of incremental exports between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to the YAML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mongoextract v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "uri",
		Short: "Print the connection URI with the password masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, source, err := load(configFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), source.URI().Redacted())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "command <export>",
		Short: "Print the mongoexport command of an export with the password masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := load(configFile)
			if err != nil {
				return err
			}
			return printCommand(cmd, cfg, source, args[0])
		},
	})

	var connectTimeout time.Duration
	testCmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Connect to MongoDB and ping the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := load(configFile)
			if err != nil {
				return err
			}
			shutdown := initTracing(cfg)
			defer shutdown()

			source.ConnectTimeout = connectTimeout
			if err := source.TestConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "connection OK")
			return nil
		},
	}
	testCmd.Flags().DurationVar(&connectTimeout, "timeout", mongodb.DefaultConnectTimeout, "Server selection timeout")
	root.AddCommand(testCmd)

	runCmd := &cobra.Command{
		Use:   "run [export...]",
		Short: "Run the enabled exports, or only the named ones",
		Long: `Run exports defined in the configuration file.

Example:
  mongoextract run --config config.yaml
  mongoextract run --config config.yaml orders events`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := load(configFile)
			if err != nil {
				return err
			}
			return runExports(cmd, cfg, source, args)
		},
	}
	root.AddCommand(runCmd)

	return root
}

// load reads the configuration, initializes logging and builds the source
func load(path string) (*config.Config, *mongodb.Source, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}

	source, err := mongodb.NewSource(cfg.Db, cfg.Process.Program, logger.With(zap.String("config", cfg.Name)))
	if err != nil {
		return nil, nil, err
	}
	return cfg, source, nil
}

func printCommand(cmd *cobra.Command, cfg *config.Config, source *mongodb.Source, name string) error {
	for _, e := range cfg.Exports {
		if e.Name != name {
			continue
		}

		var state incremental.State
		if e.IsIncremental() && cfg.StateFile != "" {
			store, err := incremental.LoadStore(cfg.StateFile)
			if err != nil {
				return err
			}
			state = store[e.Name]
		}

		p, err := source.Params(e, cfg.Process.OutputDir, state)
		if err != nil {
			return err
		}
		_, redacted := source.Command(p)
		fmt.Fprintln(cmd.OutOrStdout(), redacted)
		return nil
	}
	return errors.Newf(errors.ErrorTypeConfig, "unknown export %q", name)
}

func runExports(cmd *cobra.Command, cfg *config.Config, source *mongodb.Source, names []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := initTracing(cfg)
	defer shutdown()

	if cfg.Observability.EnableMetrics && cfg.Observability.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.Observability.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	results, err := export.New(cfg, source, nil).Run(ctx, names...)
	out := cmd.OutOrStdout()
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%d bytes\t%s\n", res.Name, status, res.Out, res.Bytes, res.Duration.Round(time.Millisecond))
	}
	_ = logger.Sync()
	return err
}

// initTracing installs span export when enabled and returns its shutdown
func initTracing(cfg *config.Config) func() {
	if !cfg.Observability.EnableTracing {
		return func() {}
	}
	shutdown, err := observability.InitTracing(observability.DefaultTracingConfig(version))
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}
}
