package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// Convention file names, relative to the module root.
const (
	generateFile = "generate.go"
	configFile   = "injectgen.yaml"
)

// BuildConfig builds a Config from go.mod, generate.go and injectgen.yaml.
// Only go.mod is required.
func BuildConfig(moduleRoot string) (*Config, error) {
	module, err := parseModulePath(moduleRoot)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Module:  module,
		Root:    moduleRoot,
		Scan:    []string{"./..."},
		Options: DefaultOptions(),
	}
	if err := parseGenerateFile(filepath.Join(moduleRoot, generateFile), cfg); err != nil {
		return nil, err
	}
	if err := parseConfigFile(filepath.Join(moduleRoot, configFile), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseModulePath(root string) (string, error) {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read go.mod: %w", err)
	}
	module := modfile.ModulePath(data)
	if module == "" {
		return "", fmt.Errorf("module directive not found in %s", path)
	}
	return module, nil
}

// parseGenerateFile reads directives from generate.go:
//
//	//inject:scan ./internal/...
//	//inject:exclude ./internal/legacy/...
//	//inject:option companion=true
//
// The first scan directive replaces the default pattern.
func parseGenerateFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", generateFile, err)
	}

	scanned := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		a, ok := decl.ParseDirective(sc.Text(), "inject:")
		if !ok {
			continue
		}
		switch a.Name {
		case "scan":
			if !scanned {
				cfg.Scan, scanned = nil, true
			}
			cfg.Scan = append(cfg.Scan, a.Args...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, a.Args...)
		case "option":
			for name, value := range a.Params {
				if err := cfg.Options.Set(name, value); err != nil {
					return fmt.Errorf("%s:%d: %w", generateFile, line, err)
				}
			}
			for _, name := range a.Args {
				if err := cfg.Options.SetPair(name); err != nil {
					return fmt.Errorf("%s:%d: %w", generateFile, line, err)
				}
			}
		}
	}
	return sc.Err()
}

// parseConfigFile overlays injectgen.yaml. Fields left out keep their
// current values.
func parseConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", configFile, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", configFile, err)
	}
	if cfg.Manifest != "" && !filepath.IsAbs(cfg.Manifest) {
		cfg.Manifest = filepath.Join(cfg.Root, cfg.Manifest)
	}
	return nil
}

// findModuleRoot walks up from dir to find the directory containing go.mod.
func findModuleRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found in any parent directory")
}

// packageDir returns the directory of pkgPath inside the module.
func (c *Config) packageDir(pkgPath string) (string, error) {
	if pkgPath == c.Module {
		return c.Root, nil
	}
	rel, ok := strings.CutPrefix(pkgPath, c.Module+"/")
	if !ok {
		return "", fmt.Errorf("package %s is outside module %s", pkgPath, c.Module)
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel)), nil
}
