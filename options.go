package main

import (
	"bytes"
	"io"
)

type VMOption interface{ apply(vm *VM) }

type vmOptions []VMOption

func VMOptions(opts ...VMOption) VMOption { return vmOptions(opts) }

func (opts vmOptions) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

var defaultOptions = VMOptions(
	inputOption{bytes.NewReader(nil)},
	outputOption{io.Discard},
)

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type tracerOption func(token string, stack []Value, depth int)

func (trace tracerOption) apply(vm *VM) {
	vm.tracer = trace
}

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }

type defineOption struct {
	name string
	val  Value
}

func (i inputOption) apply(vm *VM) {
	vm.in = newRuneScanner(i.Reader)
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = newWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = multiWriteFlusher(vm.out, newWriteFlusher(o.Writer))
}

func (def defineOption) apply(vm *VM) {
	if len(vm.frames) == 0 {
		vm.pushFrame()
	}
	vm.frames[0][def.name] = def.val
}
