package main

import (
	"strconv"
	"strings"
)

// A Value is one cell of the value stack: an integer, a boolean, or a quoted
// block of unevaluated tokens. The kind tag makes this a closed sum; no other
// shapes of value exist.
type Value struct {
	kind  valueKind
	n     int
	b     bool
	block []string
}

type valueKind uint8

const (
	valueInt valueKind = iota
	valueBool
	valueBlock
)

func (kind valueKind) String() string {
	switch kind {
	case valueBool:
		return "bool"
	case valueBlock:
		return "block"
	default:
		return "int"
	}
}

func intValue(n int) Value   { return Value{kind: valueInt, n: n} }
func boolValue(b bool) Value { return Value{kind: valueBool, b: b} }

// blockValue wraps a token sequence as a deferred code value. The block owns
// the slice once created; nothing may mutate it afterwards. A block carries
// no environment -- names inside it resolve against whatever frame stack is
// live when it is eventually invoked.
func blockValue(tokens []string) Value { return Value{kind: valueBlock, block: tokens} }

// truthy is what if/ifelse/while ask of a condition value: nonzero ints,
// true, and non-empty blocks.
func (val Value) truthy() bool {
	switch val.kind {
	case valueBool:
		return val.b
	case valueBlock:
		return len(val.block) > 0
	default:
		return val.n != 0
	}
}

func (val Value) equal(other Value) bool {
	if val.kind != other.kind {
		return false
	}
	switch val.kind {
	case valueBool:
		return val.b == other.b
	case valueBlock:
		if len(val.block) != len(other.block) {
			return false
		}
		for i, tok := range val.block {
			if tok != other.block[i] {
				return false
			}
		}
		return true
	default:
		return val.n == other.n
	}
}

func (val Value) String() string {
	switch val.kind {
	case valueBool:
		return strconv.FormatBool(val.b)
	case valueBlock:
		if len(val.block) == 0 {
			return "[ ]"
		}
		return "[ " + strings.Join(val.block, " ") + " ]"
	default:
		return strconv.Itoa(val.n)
	}
}
