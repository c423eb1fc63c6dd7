package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// VM evaluates shablang programs. The machine state is a value stack of
// Values and a frame stack of variable scopes. Both are shared by reference
// through every nested evaluation -- a loop body, a branch, or a function
// call all observe and mutate the same stacks the caller sees, so effects
// made deep in the recursion persist for the caller.
type VM struct {
	ioCore

	stack  []Value
	frames []frame

	depth  int // function call depth
	tracer func(token string, stack []Value, depth int)

	// operator tables; extensible, seeded from unaryOps/binaryOps
	unary  map[string]unaryOp
	binary map[string]binaryOp

	nesting int          // bracket depth while collecting a block
	lineEnd func(vm *VM) // invoked at each endOfLine marker
}

type unaryOp func(vm *VM, val Value) Value
type binaryOp func(vm *VM, left, right Value) Value

func (vm *VM) init() {
	if vm.in == nil {
		vm.in = newRuneScanner(strings.NewReader(""))
	}
	if vm.out == nil {
		vm.out = discardWriteFlusher
	}
	if vm.unary == nil {
		vm.unary = unaryOps
	}
	if vm.binary == nil {
		vm.binary = binaryOps
	}
	// the global frame lives for the whole session
	if len(vm.frames) == 0 {
		vm.pushFrame()
	}
}

//// Value stack

func (vm *VM) push(val Value) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() Value {
	i := len(vm.stack) - 1
	if i < 0 {
		vm.halt(ErrStackUnderflow)
	}
	val := vm.stack[i]
	vm.stack[i] = Value{}
	vm.stack = vm.stack[:i]
	return val
}

// popBlock pops a value that must be a code block; op names the construct
// doing the popping, for error reporting.
func (vm *VM) popBlock(op string) []string {
	val := vm.pop()
	if val.kind != valueBlock {
		vm.halt(opError{op, val})
	}
	return val.block
}

//// Evaluation

// eval consumes a token source to exhaustion against the shared stacks.
// Control flow and function calls re-enter it over block token sources.
func (vm *VM) eval(ctx context.Context, src tokenSource) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("\t")()
	}
	for {
		tok, ok := src.next()
		if !ok {
			return
		}
		vm.step(ctx, tok, src)
		vm.haltif(ctx.Err())
	}
}

// step classifies and executes a single token. Classification priority:
// integer literal, unary operator, binary operator, the fixed words, then
// @name / =name prefixes, and finally variable reference.
func (vm *VM) step(ctx context.Context, tok string, src tokenSource) {
	if vm.tracer != nil {
		vm.tracer(tok, append([]Value(nil), vm.stack...), vm.depth)
	}
	if vm.logfn != nil {
		vm.logf("eval %q -- f:%v s:%v", tok, len(vm.frames), vm.stack)
	}

	if isIntLiteral(tok) {
		n, err := strconv.Atoi(tok)
		vm.haltif(err)
		vm.push(intValue(n))
		return
	}
	if op, ok := vm.unary[tok]; ok {
		val := vm.pop()
		vm.push(op(vm, val))
		return
	}
	if op, ok := vm.binary[tok]; ok {
		right := vm.pop()
		left := vm.pop()
		vm.push(op(vm, left, right))
		return
	}

	switch tok {
	case "print":
		val := vm.pop()
		_, err := fmt.Fprintln(vm.out, val)
		vm.haltif(err)

	case "debug_print":
		vmDumper{vm: vm, out: vm.out}.dump()

	case "true":
		vm.push(boolValue(true))

	case "false":
		vm.push(boolValue(false))

	case "dup":
		i := len(vm.stack) - 1
		if i < 0 {
			vm.halt(ErrStackUnderflow)
		}
		vm.push(vm.stack[i])

	case "drop":
		vm.pop()

	case "if":
		branch := vm.popBlock("if")
		if vm.pop().truthy() {
			vm.evalBlock(ctx, branch)
		}

	case "ifelse":
		elseBranch := vm.popBlock("ifelse")
		ifBranch := vm.popBlock("ifelse")
		if vm.pop().truthy() {
			vm.evalBlock(ctx, ifBranch)
		} else {
			vm.evalBlock(ctx, elseBranch)
		}

	case "while":
		// condition and body share the caller's frame across every
		// iteration, so loop-carried state mutated by the body is
		// visible to the next condition check
		body := vm.popBlock("while")
		cond := vm.popBlock("while")
		for {
			vm.evalBlock(ctx, cond)
			if !vm.pop().truthy() {
				break
			}
			vm.evalBlock(ctx, body)
		}

	case "@":
		vm.call(ctx, vm.popBlock("@"))

	case "[":
		vm.push(blockValue(vm.readBlock(src)))

	case endOfLine:
		if vm.lineEnd != nil {
			vm.lineEnd(vm)
		}

	case "":
		// cannot arise from the tokenizer, but a hand-built block could
		// carry one; fail it rather than treat it as a variable
		vm.halt(ErrMalformedToken)

	default:
		if name, isCall := strings.CutPrefix(tok, "@"); isCall {
			// sugar: "@name" is "name @"
			vm.call(ctx, vm.lookupBlock(tok, name))
		} else if name, isSet := strings.CutPrefix(tok, "="); isSet {
			vm.setvar(name, vm.pop())
		} else {
			val, ok := vm.getvar(tok)
			if !ok {
				vm.halt(unboundVarError(tok))
			}
			vm.push(val)
		}
	}
}

// evalBlock runs a block's tokens in the caller's current frame: if, ifelse
// and while bodies share scope with the code that ran them.
func (vm *VM) evalBlock(ctx context.Context, tokens []string) {
	vm.eval(ctx, &blockTokens{tokens: tokens})
}

// call invokes a block as a function: exactly one fresh frame on entry,
// popped on every exit path -- including error unwinding -- so a failing
// callee cannot leak frames into the session.
func (vm *VM) call(ctx context.Context, tokens []string) {
	vm.pushFrame()
	defer vm.popFrame()
	vm.depth++
	defer func() { vm.depth-- }()
	vm.logf("call depth=%v", vm.depth)
	vm.evalBlock(ctx, tokens)
}

func (vm *VM) lookupBlock(op, name string) []string {
	val, ok := vm.getvar(name)
	if !ok {
		vm.halt(unboundVarError(name))
	}
	if val.kind != valueBlock {
		vm.halt(opError{op, val})
	}
	return val.block
}

// readBlock collects the tokens between a just-read [ and its matching ],
// tracking nesting depth; the closing ] is excluded and nothing is evaluated.
// Input exhaustion before the match is fatal.
func (vm *VM) readBlock(src tokenSource) []string {
	vm.nesting++
	defer func() { vm.nesting-- }()

	tokens := []string{}
	depth := 1
	for {
		tok, ok := src.next()
		if !ok {
			vm.halt(ErrUnmatchedBracket)
		}
		switch tok {
		case "[":
			depth++
		case "]":
			if depth--; depth == 0 {
				vm.logf("block %v", tokens)
				return tokens
			}
		case endOfLine:
			// line markers never belong to a block body
			continue
		}
		tokens = append(tokens, tok)
	}
}

// isIntLiteral reports whether a token is an optional leading - followed by
// one or more digits.
func isIntLiteral(tok string) bool {
	digits := strings.TrimPrefix(tok, "-")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

//// Operators

var unaryOps = map[string]unaryOp{
	// - is the binary operator, so ~ is unary negation
	"~": func(vm *VM, val Value) Value { return intValue(-vm.wantInt("~", val)) },
	"!": func(vm *VM, val Value) Value { return boolValue(!val.truthy()) },
	"abs": func(vm *VM, val Value) Value {
		n := vm.wantInt("abs", val)
		if n < 0 {
			n = -n
		}
		return intValue(n)
	},
}

var binaryOps = map[string]binaryOp{
	"+": intBinop("+", func(a, b int) int { return a + b }),
	"-": intBinop("-", func(a, b int) int { return a - b }),
	"*": intBinop("*", func(a, b int) int { return a * b }),
	"/": func(vm *VM, left, right Value) Value {
		a, b := vm.wantInt("/", left), vm.wantInt("/", right)
		if b == 0 {
			vm.halt(ErrDivideByZero)
		}
		return intValue(a / b)
	},
	"%": func(vm *VM, left, right Value) Value {
		a, b := vm.wantInt("%", left), vm.wantInt("%", right)
		if b == 0 {
			vm.halt(ErrDivideByZero)
		}
		return intValue(a % b)
	},

	"==": func(vm *VM, left, right Value) Value { return boolValue(left.equal(right)) },
	"!=": func(vm *VM, left, right Value) Value { return boolValue(!left.equal(right)) },
	"<":  intCompare("<", func(a, b int) bool { return a < b }),
	">":  intCompare(">", func(a, b int) bool { return a > b }),
	"<=": intCompare("<=", func(a, b int) bool { return a <= b }),
	">=": intCompare(">=", func(a, b int) bool { return a >= b }),

	// & and | are bitwise on ints, logical on bools
	"&": func(vm *VM, left, right Value) Value {
		if left.kind == valueBool && right.kind == valueBool {
			return boolValue(left.b && right.b)
		}
		return intValue(vm.wantInt("&", left) & vm.wantInt("&", right))
	},
	"|": func(vm *VM, left, right Value) Value {
		if left.kind == valueBool && right.kind == valueBool {
			return boolValue(left.b || right.b)
		}
		return intValue(vm.wantInt("|", left) | vm.wantInt("|", right))
	},

	"min": intBinop("min", func(a, b int) int {
		if b < a {
			return b
		}
		return a
	}),
	"max": intBinop("max", func(a, b int) int {
		if b > a {
			return b
		}
		return a
	}),
}

func intBinop(op string, f func(a, b int) int) binaryOp {
	return func(vm *VM, left, right Value) Value {
		return intValue(f(vm.wantInt(op, left), vm.wantInt(op, right)))
	}
}

func intCompare(op string, f func(a, b int) bool) binaryOp {
	return func(vm *VM, left, right Value) Value {
		return boolValue(f(vm.wantInt(op, left), vm.wantInt(op, right)))
	}
}

func (vm *VM) wantInt(op string, val Value) int {
	if val.kind != valueInt {
		vm.halt(opError{op, val})
	}
	return val.n
}
