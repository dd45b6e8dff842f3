package wirebox

import (
	"context"
	"fmt"
	"reflect"
)

// These are commonly used types.
var (
	typeError     = reflect.TypeFor[error]()
	typeContext   = reflect.TypeFor[context.Context]()
	typeContainer = reflect.TypeFor[*Container]()
	typeRegistry  = reflect.TypeFor[*Registry]()
	typeAny       = reflect.TypeFor[any]()
)

// validateDependencyType checks that a type can be used as a lookup key.
// Only interfaces, pointers, and structs can be registered or requested;
// anything else is a malformed key, distinct from "not found".
func validateDependencyType(t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidDependency)
	}

	switch t {
	case typeContext, typeContainer, typeRegistry, typeError:
		// Supplied by the engine, never resolved.
		return fmt.Errorf("%w: %s is reserved", ErrInvalidDependency, t)
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Struct:
		return nil
	}

	return fmt.Errorf("%w: %s (kind %s)", ErrInvalidDependency, t, t.Kind())
}
