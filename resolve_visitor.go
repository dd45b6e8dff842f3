package wirebox

// resolveVisitor tracks the keys currently being resolved on one call path.
// Revisiting a key while it is still on the stack means the factories form a
// cycle; the ordered stack lets the error report the full cycle.
type resolveVisitor struct {
	index map[instanceKey]int
	stack []instanceKey
}

func newResolveVisitor() *resolveVisitor {
	return &resolveVisitor{index: make(map[instanceKey]int)}
}

// enter pushes a key onto the visiting stack, or returns a CycleError if the
// key is already being visited.
func (v *resolveVisitor) enter(key instanceKey) error {
	if at, visiting := v.index[key]; visiting {
		return v.cycleError(at, key)
	}

	v.index[key] = len(v.stack)
	v.stack = append(v.stack, key)
	return nil
}

func (v *resolveVisitor) leave(key instanceKey) {
	delete(v.index, key)
	if n := len(v.stack); n > 0 && v.stack[n-1] == key {
		v.stack = v.stack[:n-1]
	}
}

func (v *resolveVisitor) cycleError(from int, key instanceKey) error {
	err := &CycleError{}
	for _, k := range v.stack[from:] {
		err.Cycle = append(err.Cycle, k.typ)
	}
	err.Cycle = append(err.Cycle, key.typ)
	return err
}
