package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iVampireSP/injectgen/internal/emit"
	"github.com/iVampireSP/injectgen/internal/graph"
)

// Config holds injectgen configuration, populated from conventions,
// generate.go directives, injectgen.yaml and flags, in that order.
type Config struct {
	Module   string   `yaml:"-"`
	Root     string   `yaml:"-"`
	Scan     []string `yaml:"scan"`
	Exclude  []string `yaml:"exclude"`
	Manifest string   `yaml:"manifest"` // read declarations from this file instead of Go sources
	Tags     []string `yaml:"tags"`
	Options  Options  `yaml:"options"`
}

// Options are the named generator options. Each can be set with
// //inject:option name=value, the options block of injectgen.yaml, or
// -o name=value.
type Options struct {
	Companion         bool     `yaml:"companion"`
	LegacyAnnotations bool     `yaml:"legacy-annotations"`
	DumpGraph         bool     `yaml:"dump-graph"`
	DelayWrappers     []string `yaml:"delay-wrappers"`
	OutputSuffix      string   `yaml:"output-suffix"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DelayWrappers: graph.DefaultOptions().DelayWrappers,
		OutputSuffix:  emit.DefaultSuffix,
	}
}

// Set assigns the option called name from its string form.
func (o *Options) Set(name, value string) error {
	switch name {
	case "companion":
		return setBool(&o.Companion, name, value)
	case "legacy-annotations":
		return setBool(&o.LegacyAnnotations, name, value)
	case "dump-graph":
		return setBool(&o.DumpGraph, name, value)
	case "delay-wrappers":
		o.DelayWrappers = nil
		for _, w := range strings.Split(value, ",") {
			if w = strings.TrimSpace(w); w != "" {
				o.DelayWrappers = append(o.DelayWrappers, w)
			}
		}
		return nil
	case "output-suffix":
		if !strings.HasSuffix(value, ".go") {
			return fmt.Errorf("option %s: %q does not end in .go", name, value)
		}
		o.OutputSuffix = value
		return nil
	}
	return fmt.Errorf("unknown option %q", name)
}

// SetPair parses name=value. A bare name sets a boolean option to true.
func (o *Options) SetPair(pair string) error {
	name, value, ok := strings.Cut(pair, "=")
	if !ok {
		value = "true"
	}
	return o.Set(strings.TrimSpace(name), strings.TrimSpace(value))
}

func setBool(dst *bool, name, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("option %s: %w", name, err)
	}
	*dst = v
	return nil
}

// Graph returns the resolver options.
func (o Options) Graph() graph.Options {
	return graph.Options{
		LegacyAnnotations: o.LegacyAnnotations,
		DelayWrappers:     o.DelayWrappers,
	}
}

// Emit returns the emitter options.
func (o Options) Emit() emit.Options {
	return emit.Options{Companion: o.Companion, Suffix: o.OutputSuffix}
}
