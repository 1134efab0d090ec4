package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iVampireSP/injectgen/internal/decl"
	"github.com/iVampireSP/injectgen/internal/decl/golang"
	"github.com/iVampireSP/injectgen/internal/decl/manifest"
	"github.com/iVampireSP/injectgen/internal/diag"
	"github.com/iVampireSP/injectgen/internal/emit"
	"github.com/iVampireSP/injectgen/internal/graph"
)

// output is one file to write, relative to the module root or to the
// output directory.
type output struct {
	Dir     string
	Name    string
	Content []byte
}

// generator runs the pipeline: declarations, components, plans, files.
type generator struct {
	cfg    *Config
	log    *zap.Logger
	outDir string // when set, every file goes here instead of its package directory
}

// Generate produces the files of every component. Components that fail are
// skipped; their errors are returned together with the files of the rest.
func (g *generator) Generate(ctx context.Context) ([]output, error) {
	decls, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	comps := decls.Components()
	g.log.Info("declarations loaded", zap.Int("components", len(comps)))

	opts := g.cfg.Options
	resolver := graph.NewResolver(decls, opts.Graph(), g.log)
	emitter := emit.New(opts.Emit(), g.log)

	var files []output
	var errs error
	for _, cls := range comps {
		out, err := g.component(decls, cls, resolver, emitter)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		files = append(files, out...)
	}
	return files, errs
}

func (g *generator) load(ctx context.Context) (decl.Provider, error) {
	if g.cfg.Manifest != "" {
		g.log.Debug("reading manifest", zap.String("path", g.cfg.Manifest))
		idx, err := manifest.LoadFile(g.cfg.Manifest)
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		return idx, nil
	}

	rules := loadGitignore(g.cfg.Root)
	idx, err := golang.Load(ctx, golang.Config{
		Dir:     g.cfg.Root,
		Exclude: func(pkgPath string) bool { return g.excluded(pkgPath, rules) },
		Tags:    g.cfg.Tags,
		Log:     g.log,
	}, g.cfg.Scan...)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return idx, nil
}

// excluded checks the configured exclude patterns, then .gitignore.
func (g *generator) excluded(pkgPath string, rules ignoreRules) bool {
	rel, ok := strings.CutPrefix(pkgPath, g.cfg.Module+"/")
	if !ok {
		return pkgPath != g.cfg.Module
	}
	for _, exc := range g.cfg.Exclude {
		exc = strings.TrimPrefix(exc, "./")
		if tree, ok := strings.CutSuffix(exc, "/..."); ok {
			if rel == tree || strings.HasPrefix(rel, tree+"/") {
				return true
			}
			continue
		}
		if rel == exc {
			return true
		}
	}
	return rules.Ignored(rel)
}

func (g *generator) component(decls decl.Provider, cls *decl.Class, resolver *graph.Resolver, emitter *emit.Emitter) ([]output, error) {
	sink := &diag.Sink{}
	comp, err := graph.BuildComponent(decls, cls, g.cfg.Options.Graph(), sink)
	if err != nil {
		return nil, err
	}
	plan, err := resolver.Resolve(comp)
	if err != nil {
		return nil, err
	}
	f, err := emitter.Emit(plan)
	if err != nil {
		return nil, err
	}

	dir, err := g.dir(f.Pkg)
	if err != nil {
		return nil, err
	}
	out := []output{{Dir: dir, Name: f.Name, Content: f.Content}}
	if g.cfg.Options.DumpGraph {
		dot, err := graph.DOT(plan)
		if err != nil {
			return nil, fmt.Errorf("component %s: dump graph: %w", comp.Name, err)
		}
		name := strings.TrimSuffix(f.Name, ".go") + ".dot"
		out = append(out, output{Dir: dir, Name: name, Content: []byte(dot)})
	}
	g.log.Info("component generated",
		zap.String("component", comp.Name),
		zap.Int("members", len(plan.Members)),
		zap.Int("slots", len(plan.Slots)),
		zap.Int("helpers", len(plan.Nested)))
	return out, nil
}

func (g *generator) dir(pkgPath string) (string, error) {
	if g.outDir != "" {
		return g.outDir, nil
	}
	return g.cfg.packageDir(pkgPath)
}

// write stores files, or prints them to w on a dry run.
func write(files []output, dryRun bool, w io.Writer, log *zap.Logger) error {
	for _, f := range files {
		path := filepath.Join(f.Dir, f.Name)
		if dryRun {
			fmt.Fprintf(w, "// === %s ===\n%s\n", path, f.Content)
			continue
		}
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", f.Dir, err)
		}
		log.Debug("writing file", zap.String("path", path))
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
