package main

import (
	"fmt"
	"io"
	"sort"
)

// vmDumper renders the machine state -- every live frame and the full value
// stack -- for the debug_print word, for interactive diagnostics, and for
// failing tests.
type vmDumper struct {
	vm  *VM
	out io.Writer
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump\n")
	dump.dumpFrames()
	dump.dumpStack()
}

// dumpFrames lists frames outermost first, each with its bindings in name
// order.
func (dump vmDumper) dumpFrames() {
	for i, f := range dump.vm.frames {
		fmt.Fprintf(dump.out, "  frame[%v]:", i)
		names := make([]string, 0, len(f))
		for name := range f {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(dump.out, " %v=%v", name, f[name])
		}
		io.WriteString(dump.out, "\n")
	}
}

func (dump vmDumper) dumpStack() {
	fmt.Fprintf(dump.out, "  stack: %v\n", dump.vm.stack)
}
