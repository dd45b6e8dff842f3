package wirebox

import (
	"fmt"
	"reflect"
)

// instanceKey identifies an entry in a Container's instance cache. The three
// key shapes from the data model share one comparable struct:
//
//   - plain type lookup: typ set, qualifier and factory zero
//   - qualified lookup: typ and qualifier set
//   - factory-result cache: factory set to the factory function's identity,
//     so call sites sharing the same factory function share one entry
type instanceKey struct {
	typ       reflect.Type
	qualifier string
	factory   uintptr
}

func typeKey(t reflect.Type) instanceKey {
	return instanceKey{typ: t}
}

func qualifiedKey(t reflect.Type, qualifier string) instanceKey {
	return instanceKey{typ: t, qualifier: qualifier}
}

func factoryKey(fn reflect.Value) instanceKey {
	return instanceKey{factory: fn.Pointer()}
}

func (k instanceKey) isPlainType() bool {
	return k.qualifier == "" && k.factory == 0
}

func (k instanceKey) String() string {
	switch {
	case k.factory != 0:
		return fmt.Sprintf("factory(0x%x)", k.factory)
	case k.qualifier != "":
		return fmt.Sprintf("%s (qualifier %q)", k.typ, k.qualifier)
	default:
		return typeName(k.typ)
	}
}
