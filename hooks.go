package wirebox

import (
	"context"
	"fmt"
	"reflect"
)

// HookKind names an extension point fired at a specific phase of resolution.
type HookKind uint8

const (
	// GetInstance fires before a plain type lookup; a responding hook
	// supplies the instance and is assumed to manage its own caching.
	GetInstance HookKind = iota

	// GotInstance fires on every resolved value before it is returned;
	// callbacks may transform the value.
	GotInstance

	// CreateInstance fires before a factory search; a responding hook
	// supplies the new instance.
	CreateInstance

	// CreatedInstance fires on every newly created instance; callbacks may
	// transform the value.
	CreatedInstance

	// HandleUnsupportedDependency fires when no factory matches a requested
	// type; a responding hook supplies the instance.
	HandleUnsupportedDependency

	// InjectionRequest fires before each parameter is resolved during Call;
	// a responding hook supplies the parameter value directly.
	InjectionRequest

	// InjectionResponse fires on each injected parameter value; callbacks
	// may transform the value.
	InjectionResponse

	// PostInjectionCall fires on the return value of a Call target;
	// callbacks may transform the value.
	PostInjectionCall

	// FactoryMissingType fires when a factory's provided type cannot be
	// inferred at registration; a responding hook supplies a reflect.Type.
	FactoryMissingType

	// MissingInjectable fires when a Call target cannot be bound; a
	// responding hook supplies an *Injectable.
	MissingInjectable
)

func (k HookKind) String() string {
	switch k {
	case GetInstance:
		return "GetInstance"
	case GotInstance:
		return "GotInstance"
	case CreateInstance:
		return "CreateInstance"
	case CreatedInstance:
		return "CreatedInstance"
	case HandleUnsupportedDependency:
		return "HandleUnsupportedDependency"
	case InjectionRequest:
		return "InjectionRequest"
	case InjectionResponse:
		return "InjectionResponse"
	case PostInjectionCall:
		return "PostInjectionCall"
	case FactoryMissingType:
		return "FactoryMissingType"
	case MissingInjectable:
		return "MissingInjectable"
	default:
		return fmt.Sprintf("Unknown HookKind %d", k)
	}
}

// HookContext describes the resolution phase a hook fires in.
type HookContext struct {
	Kind      HookKind
	Type      reflect.Type
	Qualifier string

	// Function and Parameter are set for injection hooks fired during Call.
	Function  string
	Parameter string

	// Chain holds the frames of nested Call targets, outermost first.
	Chain []string

	// Values carries caller-supplied extras.
	Values map[string]any
}

// HookFunc is an extension callback. Returning Some answers (for handle
// semantics) or replaces the running value (for filter semantics); returning
// Nothing leaves resolution to continue. A returned error propagates
// immediately to the resolving caller.
type HookFunc func(ctx context.Context, c *Container, value any, hc *HookContext) (Option[any], error)

// HookOption configures a hook registration when calling [Registry.AddHook].
type HookOption interface {
	applyHook(*hookEntry) error
}

type hookEntry struct {
	fn    HookFunc
	async bool
}

// HookManager holds the ordered callback registrations for one hook kind.
//
// A nil *HookManager is valid and behaves as empty.
type HookManager struct {
	entries    []hookEntry
	asyncCount int
}

func (m *HookManager) add(entry hookEntry) {
	m.entries = append(m.entries, entry)
	if entry.async {
		m.asyncCount++
	}
}

func (m *HookManager) empty() bool {
	return m == nil || len(m.entries) == 0
}

func (m *HookManager) hasAsync() bool {
	return m != nil && m.asyncCount > 0
}

// Handle calls each registered callback in turn and returns the first Some
// result; later callbacks are not invoked. Returns Nothing if no callback
// answers.
func (m *HookManager) Handle(ctx context.Context, c *Container, value any, hc *HookContext) (Option[any], error) {
	if m == nil {
		return Nothing[any]("no hooks registered"), nil
	}

	for _, entry := range m.entries {
		res, err := entry.fn(ctx, c, value, hc)
		if err != nil {
			return Nothing[any](""), err
		}
		if res.IsSome() {
			return res, nil
		}
	}

	return Nothing[any]("no hook answered"), nil
}

// Filter calls every registered callback in turn; a Some result replaces the
// running value and Nothing leaves it unchanged. The final value is returned.
func (m *HookManager) Filter(ctx context.Context, c *Container, value any, hc *HookContext) (any, error) {
	if m == nil {
		return value, nil
	}

	for _, entry := range m.entries {
		res, err := entry.fn(ctx, c, value, hc)
		if err != nil {
			return nil, err
		}
		if v, ok := res.Value(); ok {
			value = v
		}
	}

	return value, nil
}
