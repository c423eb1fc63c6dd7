package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalTest(name, src string, wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	return vmTest(name).withInput(src).apply(wraps...)
}

func Test_eval(t *testing.T) {
	vmTestCases{
		evalTest("sum in source order",
			`1 2 + 3 + 4 + 5 +`,
			expectVMStack(intValue(15))),

		evalTest("sum then compare",
			`1 2 + 3 ==`,
			expectVMStack(boolValue(true))),

		evalTest("assign square assign",
			`1 2 + =x  x x * =y  x y`,
			expectVMStack(intValue(3), intValue(9))),

		evalTest("operand order", `5 2 -`, expectVMStack(intValue(3))),

		evalTest("if taken",
			`1 [ 42 ] if`,
			expectVMStack(intValue(42))),
		evalTest("if skipped",
			`0 [ 42 ] if`,
			expectVMStack()),
		evalTest("if shares the frame",
			`true [ 9 =x ] if x`,
			expectVMStack(intValue(9))),

		evalTest("ifelse then",
			`true [ 1 ] [ 2 ] ifelse`,
			expectVMStack(intValue(1))),
		evalTest("ifelse else",
			`false [ 1 ] [ 2 ] ifelse`,
			expectVMStack(intValue(2))),

		evalTest("while counts",
			`0 =i  [ i 3 < ] [ i 1 + =i ] while  i`,
			expectVMStack(intValue(3))),
		evalTest("while body updates what the condition sees",
			`10 =n 0 =sum
			 [ n 0 > ] [ sum n + =sum  n 1 - =n ] while
			 sum`,
			expectVMStack(intValue(55))),
		evalTest("while never entered",
			`[ false ] [ 99 ] while`,
			expectVMStack()),

		evalTest("call anonymous block",
			`[ 3 4 + ] @`,
			expectVMStack(intValue(7))),
		evalTest("call by name",
			`[ 2 * ] =double  5 @double`,
			expectVMStack(intValue(10))),
		evalTest("call pops the frame",
			`[ 5 =y ] @`,
			expectVMStack(),
			expectVMFrames(1),
			expectVMUnbound("y")),
		evalTest("callee locals are unreachable",
			`[ 5 =y ] @ y`,
			expectVMError(ErrUnboundVariable)),
		evalTest("callee shadows without clobbering",
			`1 =x [ 2 =x x ] @ x`,
			expectVMStack(intValue(2), intValue(1))),
		evalTest("callee reads caller locals",
			`6 =n [ n 7 * ] @`,
			expectVMStack(intValue(42))),
		evalTest("call wants a block",
			`1 @`,
			expectVMError(ErrBadOperand)),
		evalTest("call by name wants a block",
			`1 =f @f`,
			expectVMError(ErrBadOperand)),

		evalTest("fibonacci",
			`[ =x
			    x 1 <= [ 1 ] [ x 1 - @fib x 2 - @fib + ] ifelse
			] =fib

			0 =i
			[ i 6 <= ] [
			    i @fib print
			    i 1 + =i
			] while`,
			expectVMOutput(lines("1", "1", "2", "3", "5", "8", "13")),
			expectVMStack()),

		evalTest("comments are stripped",
			lines(
				"1 2 + # add them up",
				"# a full-line comment",
				"3",
			),
			expectVMStack(intValue(3), intValue(3))),

		evalTest("empty block is a falsy condition",
			`[ ] [ 1 ] if`,
			expectVMStack()),
		evalTest("non-empty block is a truthy condition",
			`[ 0 ] [ 1 ] if`,
			expectVMStack(intValue(1))),
		evalTest("empty while condition underflows",
			`[ ] [ 1 ] while`,
			expectVMError(ErrStackUnderflow)),
	}.run(t)
}

func Test_eval_errors(t *testing.T) {
	vmTestCases{
		evalTest("underflow", `+`, expectVMError(ErrStackUnderflow)),
		evalTest("unbound", `undefined_thing`, expectVMError(ErrUnboundVariable)),
		evalTest("unbound call", `@undefined_thing`, expectVMError(ErrUnboundVariable)),
		evalTest("unmatched bracket", `[ 1 2 +`, expectVMError(ErrUnmatchedBracket)),
		evalTest("frames survive a failing callee",
			`[ oops ] =f @f`,
			expectVMError(ErrUnboundVariable),
			expectVMFrames(1)),
		evalTest("stack keeps pre-error effects",
			`1 2 nope`,
			expectVMError(ErrUnboundVariable),
			expectVMStack(intValue(1), intValue(2))),
	}.run(t)
}

func Test_Eval(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the final stack", func(t *testing.T) {
		vm := New()
		stack, err := vm.Eval(ctx, `1 2 + 3 ==`)
		require.NoError(t, err)
		assert.Equal(t, []Value{boolValue(true)}, stack)
	})

	t.Run("state persists across calls", func(t *testing.T) {
		vm := New()
		_, err := vm.Eval(ctx, `3 =x`)
		require.NoError(t, err)
		stack, err := vm.Eval(ctx, `x x *`)
		require.NoError(t, err)
		assert.Equal(t, []Value{intValue(9)}, stack)
	})

	t.Run("state persists past an error", func(t *testing.T) {
		vm := New()
		_, err := vm.Eval(ctx, `1 2`)
		require.NoError(t, err)
		_, err = vm.Eval(ctx, `nope`)
		assert.ErrorIs(t, err, ErrUnboundVariable)
		stack, err := vm.Eval(ctx, `+`)
		require.NoError(t, err)
		assert.Equal(t, []Value{intValue(3)}, stack)
	})
}

func Test_tracer(t *testing.T) {
	type traced struct {
		token string
		size  int
		depth int
	}
	var got []traced

	vm := New(WithTracer(func(token string, stack []Value, depth int) {
		got = append(got, traced{token, len(stack), depth})
	}))
	_, err := vm.Eval(context.Background(), `1 2 + [ 3 ] @`)
	require.NoError(t, err)

	assert.Equal(t, []traced{
		{"1", 0, 0},
		{"2", 1, 0},
		{"+", 2, 0},
		{"[", 1, 0},
		{"@", 2, 0},
		{"3", 1, 1},
	}, got)
}

func Test_session(t *testing.T) {
	ctx := context.Background()

	t.Run("state persists across lines", func(t *testing.T) {
		var out strings.Builder
		vm, lt := testSession(&out, "1 2 +", "=x", "x x *")
		require.NoError(t, vm.evalSession(ctx, lt))
		assert.ErrorIs(t, lt.err, io.EOF)
		assert.Equal(t, []Value{intValue(9)}, vm.stack)
		assert.Equal(t, lines("-- [3]", "-- []", "-- [9]"), out.String())
	})

	t.Run("blocks span lines", func(t *testing.T) {
		var out strings.Builder
		var conts []bool
		vm, lt := testSession(&out, "[", "1 2 +", "] @")
		read := lt.read
		lt.read = func(cont bool) (string, error) {
			conts = append(conts, cont)
			return read(cont)
		}
		require.NoError(t, vm.evalSession(ctx, lt))
		assert.Equal(t, []Value{intValue(3)}, vm.stack)
		assert.Equal(t, []bool{false, true, true, false}, conts)
	})

	t.Run("errors abort the line not the session", func(t *testing.T) {
		var out strings.Builder
		vm, lt := testSession(&out, "1 2", "nope 99", "+")
		err := vm.evalSession(ctx, lt)
		assert.ErrorIs(t, err, ErrUnboundVariable)
		lt.discardLine()
		require.NoError(t, vm.evalSession(ctx, lt))
		assert.Equal(t, []Value{intValue(3)}, vm.stack)
		assert.Equal(t, 1, len(vm.frames))
	})
}

// testSession builds a VM plus a lineTokens feeding the given lines, ending
// with io.EOF, with the interactive stack echo wired to out.
func testSession(out *strings.Builder, inputLines ...string) (*VM, *lineTokens) {
	vm := New(WithOutput(out))
	vm.init()
	vm.lineEnd = func(vm *VM) {
		fmt.Fprintf(vm.out, "-- %v\n", vm.stack)
	}
	i := 0
	lt := &lineTokens{vm: vm, read: func(cont bool) (string, error) {
		if i >= len(inputLines) {
			return "", io.EOF
		}
		line := inputLines[i]
		i++
		return line, nil
	}}
	return vm, lt
}
