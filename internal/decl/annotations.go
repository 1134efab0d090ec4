package decl

import (
	"strings"
)

// Annotation names. In Go sources they appear as //inject:<name> directives.
const (
	AnnotComponent  = "component"  // //inject:component
	AnnotScope      = "scope"      // //inject:scope <label>
	AnnotParam      = "param"      // //inject:param <name> <type> [component] [provides] [qualifier=<q>]
	AnnotInject     = "inject"     // //inject:inject
	AnnotAssisted   = "assisted"   // //inject:assisted <param>...
	AnnotOptional   = "optional"   // //inject:optional <param>...
	AnnotProvides   = "provides"   // //inject:provides <Component>
	AnnotIntoSet    = "intoset"    // //inject:intoset [multiple]
	AnnotIntoMap    = "intomap"    // //inject:intomap [multiple] [override] [key=<literal>]
	AnnotMultibinds = "multibinds" // //inject:multibinds <type>
	AnnotQualifier  = "qualifier"  // //inject:qualifier [<param>] <label>
	AnnotFactory    = "factory"    // //inject:factory

	// Legacy set, honoured only when enabled.
	AnnotNamed     = "named"     // //inject:named <label>
	AnnotSingleton = "singleton" // //inject:singleton
)

// Flags that may follow an annotation name.
const (
	FlagMultiple = "multiple"
	FlagOverride = "override"
)

// Annotation is one parsed directive: a name, positional arguments and
// key=value parameters.
type Annotation struct {
	Name   string
	Args   []string
	Params map[string]string
}

// Arg returns the i-th positional argument or "".
func (a Annotation) Arg(i int) string {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return ""
}

// Flag reports whether name appears among the positional arguments.
func (a Annotation) Flag(name string) bool {
	for _, arg := range a.Args {
		if arg == name {
			return true
		}
	}
	return false
}

// Param returns a key=value parameter.
func (a Annotation) Param(key string) (string, bool) {
	v, ok := a.Params[key]
	return v, ok
}

// Annotations is an ordered annotation list.
type Annotations []Annotation

// Has checks if the list contains an annotation with the given name.
func (as Annotations) Has(name string) bool {
	_, ok := as.Get(name)
	return ok
}

// Get returns the first annotation with the given name.
func (as Annotations) Get(name string) (Annotation, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// All returns every annotation with the given name.
func (as Annotations) All(name string) []Annotation {
	var out []Annotation
	for _, a := range as {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out
}

// ParseDirective parses a comment line such as
// "//inject:intomap override key=admin" into an Annotation.
// prefix is the directive namespace including the colon ("inject:"); an empty
// prefix parses bare "name args..." text as used by the manifest format.
func ParseDirective(text, prefix string) (Annotation, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "//")
	if prefix != "" {
		if !strings.HasPrefix(text, prefix) {
			return Annotation{}, false
		}
		text = strings.TrimPrefix(text, prefix)
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Annotation{}, false
	}

	a := Annotation{Name: fields[0]}
	for _, f := range fields[1:] {
		if k, v, ok := strings.Cut(f, "="); ok && k != "" {
			if a.Params == nil {
				a.Params = make(map[string]string)
			}
			a.Params[k] = v
			continue
		}
		a.Args = append(a.Args, f)
	}
	return a, true
}
