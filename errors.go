package main

import (
	"errors"
	"fmt"
)

// The error kinds an evaluation can abort with. None of them are recovered
// internally: any occurrence unwinds every active nested evaluation out to
// the Run/Eval boundary (or to the interactive session's line boundary).
var (
	ErrStackUnderflow   = errors.New("value stack underflow")
	ErrUnboundVariable  = errors.New("unbound variable")
	ErrUnmatchedBracket = errors.New("unmatched [")
	ErrMalformedToken   = errors.New("malformed token")
	ErrBadOperand       = errors.New("bad operand")
	ErrDivideByZero     = errors.New("division by zero")
)

type unboundVarError string

func (name unboundVarError) Error() string {
	return fmt.Sprintf("unbound variable %q", string(name))
}
func (name unboundVarError) Unwrap() error { return ErrUnboundVariable }

type opError struct {
	op  string
	val Value
}

func (oe opError) Error() string {
	return fmt.Sprintf("operator %q: unsupported %v operand %v", oe.op, oe.val.kind, oe.val)
}
func (oe opError) Unwrap() error { return ErrBadOperand }

// vmHaltError carries an abort out of the evaluator as a panic payload;
// recoverHalt turns it back into a plain error at an API boundary.
type vmHaltError struct{ error }

func (err vmHaltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err vmHaltError) Unwrap() error { return err.error }

func (vm *VM) halt(err error) {
	// flush any buffered output before unwinding, so that prints made
	// before the failing token are not lost
	if vm.out != nil {
		if ferr := vm.out.Flush(); err == nil {
			err = ferr
		}
	}
	vm.logf("halt error: %v", err)
	panic(vmHaltError{err})
}

func (vm *VM) haltif(err error) {
	if err != nil {
		vm.halt(err)
	}
}

// recoverHalt catches the VM's halt panic into *rerr; any other panic is not
// ours and keeps propagating.
func (vm *VM) recoverHalt(rerr *error) {
	if e := recover(); e != nil {
		var halted vmHaltError
		if err, ok := e.(error); ok && errors.As(err, &halted) {
			if *rerr == nil {
				*rerr = halted.error
			}
			return
		}
		panic(e)
	}
}
