package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"goa.design/clue/log"

	"goa.design/mcpgen/capability"
	"goa.design/mcpgen/codegen/typescript"
	"goa.design/mcpgen/config"
	"goa.design/mcpgen/telemetry"
)

type generateFlags struct {
	manifest      string
	config        string
	out           string
	noComments    bool
	noSingletons  bool
	collisions    string
	strictSchemas bool
	debug         bool
	stdout        bool
	otelEndpoint  string
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the client module from an introspection snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, &cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if f.debug {
				ctx = log.Context(ctx, log.WithDebug())
				log.Debugf(ctx, "debug logs enabled")
			}
			ctx = log.With(ctx, log.KV{K: "run-id", V: uuid.NewString()})
			endpoint := f.otelEndpoint
			if !cmd.Flags().Changed("otel-endpoint") {
				endpoint = os.Getenv(telemetry.EndpointEnv)
			}
			if endpoint != "" {
				providers, err := telemetry.SetupOTLP(ctx, endpoint, version)
				if err != nil {
					return fmt.Errorf("setup telemetry: %w", err)
				}
				defer func() {
					sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					if err := providers.Shutdown(sctx); err != nil {
						log.Errorf(ctx, err, "telemetry shutdown")
					}
				}()
			}
			return generate(ctx, cfg, f.stdout, cmd)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.manifest, "manifest", "", "introspection snapshot (JSON or YAML)")
	fl.StringVar(&f.config, "config", "mcpgen.yaml", "configuration file, ignored when missing")
	fl.StringVarP(&f.out, "out", "o", "", "output file (default "+typescript.DefaultOutputPath+")")
	fl.BoolVar(&f.noComments, "no-comments", false, "omit documentation comments")
	fl.BoolVar(&f.noSingletons, "no-singletons", false, "omit shared instance accessors")
	fl.StringVar(&f.collisions, "collisions", "", `identifier collision policy: "last-wins" or "suffix"`)
	fl.BoolVar(&f.strictSchemas, "strict-schemas", false, "validate input schemas against the JSON Schema meta-schema")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logs")
	fl.BoolVar(&f.stdout, "stdout", false, "write the module to stdout instead of a file")
	fl.StringVar(&f.otelEndpoint, "otel-endpoint", "", "OTLP/gRPC collector receiving traces and metrics (default $"+telemetry.EndpointEnv+")")
	return cmd
}

// apply overrides the configuration with the flags set on the command line.
func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("manifest") {
		cfg.Manifest = f.manifest
	}
	if fl.Changed("out") {
		cfg.OutputPath = f.out
	}
	if fl.Changed("no-comments") {
		cfg.IncludeComments = !f.noComments
	}
	if fl.Changed("no-singletons") {
		cfg.TreeShakable = !f.noSingletons
	}
	if fl.Changed("collisions") {
		cfg.Collisions = f.collisions
	}
	if fl.Changed("strict-schemas") {
		cfg.StrictSchemas = f.strictSchemas
	}
	if cfg.Manifest == "" {
		return errors.New("no manifest: set --manifest or the manifest key of the configuration file")
	}
	return cfg.Validate()
}

// generate runs one generation and writes the module to cfg.OutputPath, or to
// the command output when toStdout is set.
func generate(ctx context.Context, cfg config.Config, toStdout bool, cmd *cobra.Command) (err error) {
	ctx, span := telemetry.NewClueTracer().Start(ctx, "mcpgen.generate")
	metrics := telemetry.NewClueMetrics()
	start := time.Now()
	defer func() {
		metrics.RecordTimer("mcpgen.generate.duration", time.Since(start), "failed", strconv.FormatBool(err != nil))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "generated")
		}
		span.End()
	}()

	data, err := os.ReadFile(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var mopts []capability.ManifestOption
	if cfg.StrictSchemas {
		mopts = append(mopts, capability.WithStrictSchemas())
	}
	manifest, err := capability.LoadManifest(data, mopts...)
	if err != nil {
		return err
	}
	for _, w := range manifest.Warnings {
		log.Warn(ctx, log.KV{K: "manifest", V: cfg.Manifest}, log.KV{K: "warning", V: w})
	}

	opts := cfg.Options()
	opts.Logger = telemetry.NewClueLogger()
	module, err := typescript.Generate(ctx, manifest.Servers, opts)
	if err != nil {
		return err
	}
	out, err := module.Render()
	if err != nil {
		return err
	}
	metrics.IncCounter("mcpgen.collisions", float64(len(module.Collisions)), "policy", string(opts.Collisions))
	for _, s := range module.Servers {
		span.AddEvent("server."+s.Slug, "name", s.Name, "skipped", s.Skipped, "methods", s.Methods)
		metrics.IncCounter("mcpgen.servers", 1, "skipped", strconv.FormatBool(s.Skipped))
		if s.Skipped {
			continue
		}
		log.Info(ctx,
			log.KV{K: "server", V: s.Name},
			log.KV{K: "class", V: s.ClassName},
			log.KV{K: "declarations", V: len(s.Declarations)},
			log.KV{K: "methods", V: s.Methods})
	}

	if toStdout {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	path := module.File.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	log.Print(ctx,
		log.KV{K: "output", V: path},
		log.KV{K: "servers", V: len(module.Servers)},
		log.KV{K: "skipped", V: len(module.Skipped())},
		log.KV{K: "collisions", V: len(module.Collisions)})
	return nil
}
