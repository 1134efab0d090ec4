// Package diag carries resolution diagnostics.
//
// A Sink is created per compilation pass and handed to every operation that
// can fail. Errors are attached to the declaration that caused them and
// collected rather than aborting, so one pass reports everything at once.
package diag

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/iVampireSP/injectgen/internal/decl"
)

// Kind classifies a diagnostic. A Kind is itself an error so callers can
// test with errors.Is(err, diag.MissingBinding).
type Kind int

const (
	AmbiguousBinding Kind = iota + 1
	MissingBinding
	FatalCycle
	UnauthorizedScope
	DuplicateMapKey
	InvalidMultibindingShape
	InvalidDeclaration
)

var kindNames = map[Kind]string{
	AmbiguousBinding:         "ambiguous binding",
	MissingBinding:           "missing binding",
	FatalCycle:               "dependency cycle",
	UnauthorizedScope:        "unauthorized scope",
	DuplicateMapKey:          "duplicate map key",
	InvalidMultibindingShape: "invalid multibinding shape",
	InvalidDeclaration:       "invalid declaration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Error() string { return k.String() }

// Error is one diagnostic attached to a declaration.
type Error struct {
	Kind    Kind
	Message string
	Pos     decl.Position
	Trace   []string // resolution path leading to the failure, outermost first
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Trace) > 0 {
		b.WriteString("\n  trace: ")
		b.WriteString(strings.Join(e.Trace, " -> "))
	}
	return b.String()
}

// Is matches a Kind target.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Newf builds an Error without reporting it.
func Newf(kind Kind, pos decl.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Sink collects diagnostics for one compilation pass. The zero value is ready
// to use.
type Sink struct {
	errs []error
}

// Report records a new diagnostic and returns it.
func (s *Sink) Report(kind Kind, pos decl.Position, format string, args ...any) *Error {
	e := Newf(kind, pos, format, args...)
	s.errs = append(s.errs, e)
	return e
}

// Add records an existing error. nil is ignored.
func (s *Sink) Add(err error) {
	if err != nil {
		s.errs = append(s.errs, err)
	}
}

// Len returns the number of recorded errors.
func (s *Sink) Len() int { return len(s.errs) }

// Errors returns the recorded errors in report order.
func (s *Sink) Errors() []error { return s.errs }

// Err combines every recorded error, or returns nil.
func (s *Sink) Err() error {
	return multierr.Combine(s.errs...)
}
