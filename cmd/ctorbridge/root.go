package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/ctorbridge/manifest"
	"github.com/wippyai/ctorbridge/runtime"
)

// rootOptions holds global flags and the state built from them.
type rootOptions struct {
	cfg      Config
	logger   *zap.Logger
	tracer   trace.TracerProvider
	shutdown func(context.Context) error
	verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ctorbridge",
		Short:         "Run constructor bridging manifests",
		Long:          "Declare constructible chains from a manifest, bridge them into objects and check the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newExploreCommand(opts))

	return cmd
}

func (o *rootOptions) setup(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	o.cfg = cfg

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	o.logger = logger
	installLogger(logger)

	tp, shutdown, err := setupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		return err
	}
	o.tracer = tp
	o.shutdown = shutdown
	return nil
}

func (o *rootOptions) teardown(ctx context.Context) error {
	if o.shutdown != nil {
		if err := o.shutdown(ctx); err != nil {
			o.logger.Warn("trace shutdown failed", zap.Error(err))
		}
	}
	if o.logger != nil {
		_ = o.logger.Sync()
	}
	return nil
}

// load parses the manifest at path and declares it into a fresh runtime.
func (o *rootOptions) load(ctx context.Context, path string) (*runtime.Runtime, *manifest.Manifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}

	var ropts []runtime.Option
	if o.tracer != nil {
		ropts = append(ropts, runtime.WithTracerProvider(o.tracer))
	}
	rt := runtime.New(ropts...)
	if _, err := rt.LoadManifest(ctx, m, filepath.Dir(path)); err != nil {
		_ = rt.Close(ctx)
		return nil, nil, err
	}
	return rt, m, nil
}
