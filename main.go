// Package main implements injectgen, a compile-time dependency injection
// code generator.
//
// injectgen reads component interfaces and injectable constructors marked
// with //inject: directives, resolves every requirement of each component
// into a construction plan, and writes a plain Go implementation next to the
// component. Nothing is resolved at run time and no reflection is used.
//
// Generation flow:
//
//  1. Read go.mod → module path
//  2. Read generate.go → //inject:scan, //inject:exclude, //inject:option
//  3. Read injectgen.yaml, then apply flags
//  4. Load the scanned packages (or a YAML manifest) → declarations
//  5. For each component: build bindings, resolve, emit <component>_inject.go
//
// Usage:
//
//	//go:generate go run github.com/iVampireSP/injectgen@latest
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type flags struct {
	verbose   bool
	dryRun    bool
	dir       string
	manifest  string
	out       string
	options   []string
	companion bool
	dumpGraph bool
	legacy    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(os.Stderr, "injectgen: %v\n", e)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "injectgen [flags]",
		Short:         "Generate dependency injection components",
		Long:          "injectgen implements every //inject:component interface of the module with plain Go constructors.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, stdout, stderr)
		},
	}
	fs := cmd.Flags()
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logging")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print generated code without writing")
	fs.StringVarP(&f.dir, "dir", "C", ".", "directory used to locate the module")
	fs.StringVar(&f.manifest, "manifest", "", "read declarations from a YAML manifest instead of Go sources")
	fs.StringVar(&f.out, "out", "", "write every file to this directory instead of its package directory")
	fs.StringArrayVarP(&f.options, "option", "o", nil, "set a named option (name=value); repeatable")
	fs.BoolVar(&f.companion, "companion", false, "also emit New<Component> returning the interface")
	fs.BoolVar(&f.dumpGraph, "dump-graph", false, "write the resolution graph of each component as Graphviz DOT")
	fs.BoolVar(&f.legacy, "legacy-annotations", false, "accept //inject:named and //inject:singleton")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func run(ctx context.Context, f flags, stdout, stderr io.Writer) error {
	logger, err := newLogger(f.verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log := logger.Named("injectgen")
	defer log.Sync()

	moduleRoot, err := findModuleRoot(f.dir)
	if err != nil {
		return err
	}
	cfg, err := BuildConfig(moduleRoot)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}
	log.Debug("configured",
		zap.String("module", cfg.Module),
		zap.String("root", cfg.Root),
		zap.Strings("scan", cfg.Scan),
		zap.Strings("exclude", cfg.Exclude))

	g := &generator{cfg: cfg, log: log, outDir: f.out}
	files, genErr := g.Generate(ctx)
	if err := write(files, f.dryRun, stdout, log); err != nil {
		return multierr.Append(genErr, err)
	}
	if !f.dryRun && len(files) > 0 {
		fmt.Fprintf(stderr, "injectgen: generated %d files\n", len(files))
	}
	if genErr != nil {
		return genErr
	}
	if len(files) == 0 {
		return errors.New("no components found")
	}
	return nil
}

// applyFlags overrides the configuration with explicitly given flags.
func applyFlags(cfg *Config, f flags) error {
	if f.manifest != "" {
		cfg.Manifest = f.manifest
	}
	for _, pair := range f.options {
		if err := cfg.Options.SetPair(pair); err != nil {
			return err
		}
	}
	if f.companion {
		cfg.Options.Companion = true
	}
	if f.dumpGraph {
		cfg.Options.DumpGraph = true
	}
	if f.legacy {
		cfg.Options.LegacyAnnotations = true
	}
	return nil
}
