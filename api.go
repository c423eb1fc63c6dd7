package main

import (
	"context"
	"errors"
	"io"
)

func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run evaluates the VM's configured input stream to completion.
func (vm *VM) Run(ctx context.Context) error {
	err := vm.run(ctx)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (vm *VM) run(ctx context.Context) (rerr error) {
	defer vm.recoverHalt(&rerr)
	vm.init()
	vm.eval(ctx, scanTokens{vm})
	return vm.out.Flush()
}

// Eval evaluates one complete source string against the VM's persistent
// state, returning the value stack contents once it finishes. Bindings and
// stack effects survive into any subsequent Eval on the same VM.
func (vm *VM) Eval(ctx context.Context, src string) ([]Value, error) {
	err := vm.evalTokens(ctx, tokenize(src))
	return vm.stack, err
}

func (vm *VM) evalTokens(ctx context.Context, tokens []string) (rerr error) {
	defer vm.recoverHalt(&rerr)
	vm.init()
	vm.eval(ctx, &blockTokens{tokens: tokens})
	return vm.out.Flush()
}

func WithInput(r io.Reader) VMOption  { return inputOption{r} }
func WithOutput(w io.Writer) VMOption { return outputOption{w} }
func WithTee(w io.Writer) VMOption    { return teeOption{w} }

// WithDefine seeds a binding into the global frame before the program runs.
func WithDefine(name string, val Value) VMOption { return defineOption{name, val} }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }

// WithTracer installs an observer called before each token executes, with a
// copy of the value stack and the current call depth. Purely informational;
// the evaluator never depends on it.
func WithTracer(trace func(token string, stack []Value, depth int)) VMOption {
	return tracerOption(trace)
}
