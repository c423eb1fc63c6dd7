package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	ctx := context.Background()

	var timeout time.Duration
	var trace bool
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.Parse()

	var opts = []VMOption{
		WithOutput(os.Stdout),
	}
	if trace {
		opts = append(opts, WithLogf(log.Printf))
	}

	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if args := flag.Args(); len(args) > 0 {
		for _, name := range args {
			if err := runFile(ctx, name, opts); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	var err error
	if isTerminal(os.Stdin) {
		err = New(opts...).interact(ctx)
	} else {
		err = New(append(opts, WithInput(os.Stdin))...).Run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

func runFile(ctx context.Context, name string, opts []VMOption) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	vm := New(append(opts, WithInput(f))...)
	return vm.Run(ctx)
}
