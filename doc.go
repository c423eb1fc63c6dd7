/* Package main: shablang -- a two-stack toy

Shablang is a tiny concatenative language. A program is nothing but a
whitespace-separated sequence of tokens; the tokens are also the "byte codes"
that the virtual machine executes, one at a time, left to right. There is no
grammar beyond splitting on whitespace, and a # starts a comment that runs to
the end of the line.

The machine has two pieces of state. The first is the value stack: integer
literals push themselves, operators pop their operands and push their result.
So `1 2 +` leaves 3 on the stack, and `5 2 -` leaves 3 as well -- operands
keep their textual left-to-right meaning.

The second is the frame stack, a stack of variable scopes. `3 =x` pops 3 and
binds it to x in the innermost frame; a bare `x` searches the frames from
innermost to outermost and pushes the first binding it finds. Writes only ever
land in the innermost frame, so a callee can shadow a caller's variable but
never silently overwrite it.

Code is data: `[` collects the tokens up to its matching `]` into an
unevaluated block value on the stack, nesting and all. Nothing runs until the
block is invoked. `@` pops a block and calls it with a fresh frame; `@name` is
sugar for looking name up and calling it. Control flow reuses the caller's
frame instead: `if`, `ifelse` and `while` pop their branch blocks off the
stack and run them in the current scope, which is what lets a while body
update a loop counter that the condition then observes. Variable resolution
always happens at call time against the live frame stack -- dynamic scoping,
not closures.

A complete program, defining a recursive fibonacci and driving it with a loop:

	[ =x
	    x 1 <= [ 1 ] [ x 1 - @fib x 2 - @fib + ] ifelse
	] =fib

	0 =i
	[ i 6 <= ] [
	    i @fib print
	    i 1 + =i
	] while

which prints 1 1 2 3 5 8 13, one per line, and leaves the stack empty.

The interpreter runs either in batch mode over a file (or piped stdin), or as
an interactive session where each input line is fed into the same continuing
evaluation, so bindings and stack contents persist from line to line. The
`debug_print` word dumps the frames and the stack at any point, and the
-trace flag logs every token as it executes.
*/
package main
