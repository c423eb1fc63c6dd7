package main

import (
	"io"
	"strings"
	"unicode"
)

// endOfLine is the synthetic marker the interactive session appends after
// each input line. Real tokens are whitespace-delimited, so no program token
// can ever collide with it.
const endOfLine = "\n"

// A tokenSource produces the tokens of a program one at a time. The evaluator
// pulls from whichever source drives it: a streaming scan over the VM input,
// a captured block replaying its tokens, or the interactive line feed.
type tokenSource interface {
	next() (string, bool)
}

// blockTokens replays a captured token slice.
type blockTokens struct {
	tokens []string
	i      int
}

func (bt *blockTokens) next() (string, bool) {
	if bt.i >= len(bt.tokens) {
		return "", false
	}
	tok := bt.tokens[bt.i]
	bt.i++
	return tok, true
}

// scanTokens streams tokens from the VM's rune input.
type scanTokens struct{ vm *VM }

func (st scanTokens) next() (string, bool) { return st.vm.scan() }

// scan reads the next whitespace-delimited token from input, discarding #
// comments through end of line. Returns false once input is exhausted.
func (vm *VM) scan() (string, bool) {
	var sb strings.Builder
	for sb.Len() == 0 {
		r, ok := vm.readRune()
		if !ok {
			return "", false
		}
		switch {
		case r == '#':
			vm.skipComment()
		case !unicode.IsSpace(r):
			sb.WriteRune(r)
		}
	}
	for {
		r, ok := vm.readRune()
		if !ok || unicode.IsSpace(r) {
			break
		}
		if r == '#' {
			// a comment ends the token too: "1#x" scans as "1"
			vm.skipComment()
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}

func (vm *VM) readRune() (rune, bool) {
	r, _, err := vm.in.ReadRune()
	if err == io.EOF {
		return 0, false
	}
	vm.haltif(err)
	return r, true
}

func (vm *VM) skipComment() {
	for {
		r, ok := vm.readRune()
		if !ok || r == '\n' {
			return
		}
	}
}

// tokenize splits a complete source text into its token sequence: each line
// is truncated at the first #, then split on whitespace.
func tokenize(src string) []string {
	var tokens []string
	for _, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	return tokens
}
