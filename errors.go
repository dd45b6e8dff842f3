package wirebox

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/wirebox/wirebox/internal/bridge"
)

var (
	// ErrNotResolved is returned when a dependency cannot be satisfied by
	// any cache entry, factory, or hook.
	ErrNotResolved = errors.New("dependency not resolved")

	// ErrDependencyCycle is returned when the analyzer detects a type being
	// revisited while still on its own visiting stack.
	ErrDependencyCycle = errors.New("dependency cycle detected")

	// ErrInvalidDependency is returned when a lookup key is malformed:
	// dependency types must be interfaces, pointers, or structs.
	ErrInvalidDependency = errors.New("invalid dependency type")

	// ErrNotImplemented is returned for declared-but-unimplemented option
	// combinations, such as FromConfig.
	ErrNotImplemented = errors.New("not implemented")

	// ErrResolveTimeout is returned when a synchronous caller bridging into
	// asynchronous resolution exceeds the registry's resolve timeout.
	ErrResolveTimeout = bridge.ErrTimeout
)

// ResolutionError reports a dependency that could not be satisfied. It
// carries the requested type, the qualifier and requesting parameter when
// known, and matches ErrNotResolved with errors.Is.
type ResolutionError struct {
	Type      reflect.Type
	Qualifier string
	Parameter string
	Reason    string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("cannot resolve dependency ")
	b.WriteString(typeName(e.Type))
	if e.Qualifier != "" {
		fmt.Fprintf(&b, " with qualifier %q", e.Qualifier)
	}
	if e.Parameter != "" {
		fmt.Fprintf(&b, " for parameter %q", e.Parameter)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrNotResolved
}

// CycleError reports a dependency cycle. Cycle holds the ordered list of
// types from the first revisited type back to itself. It matches both
// ErrDependencyCycle and ErrNotResolved with errors.Is.
type CycleError struct {
	Cycle []reflect.Type
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, t := range e.Cycle {
		names[i] = typeName(t)
	}
	return "dependency cycle detected: " + strings.Join(names, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrDependencyCycle || target == ErrNotResolved
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
