package main

// A frame is one variable scope: a mapping from names to values. The VM keeps
// an ordered stack of them; the innermost frame is the current scope.
type frame map[string]Value

func (vm *VM) pushFrame() {
	vm.frames = append(vm.frames, make(frame))
}

func (vm *VM) popFrame() {
	i := len(vm.frames) - 1
	vm.frames[i] = nil
	vm.frames = vm.frames[:i]
}

// getvar resolves a name against the live frame stack, innermost to
// outermost, returning the first binding found.
func (vm *VM) getvar(name string) (Value, bool) {
	for i := len(vm.frames) - 1; i >= 0; i-- {
		if val, ok := vm.frames[i][name]; ok {
			return val, true
		}
	}
	return Value{}, false
}

// setvar binds a name in the innermost frame only: a callee can shadow an
// outer binding but never overwrite it.
func (vm *VM) setvar(name string, val Value) {
	vm.frames[len(vm.frames)-1][name] = val
	vm.logf("set %v = %v", name, val)
}
