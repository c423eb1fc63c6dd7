package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
)

const (
	historyFile = ".shablang_history"
	promptMain  = "> "
	promptCont  = "... "
)

// lineTokens feeds an unbounded token stream into one continuing evaluation:
// whenever the current line is spent it asks the session for another, with
// the endOfLine marker appended after each. Bindings and stack contents
// therefore persist across input lines, and a block opened on one line may
// close on a later one.
type lineTokens struct {
	vm     *VM
	read   func(cont bool) (string, error)
	tokens []string
	i      int
	err    error
}

func (lt *lineTokens) next() (string, bool) {
	for lt.i >= len(lt.tokens) {
		if lt.err != nil {
			return "", false
		}
		line, err := lt.read(lt.vm.nesting > 0)
		if err != nil {
			lt.err = err
			return "", false
		}
		lt.tokens = append(tokenize(line), endOfLine)
		lt.i = 0
	}
	tok := lt.tokens[lt.i]
	lt.i++
	return tok, true
}

// discardLine drops whatever remains of the current line, so the session can
// resume cleanly after an error.
func (lt *lineTokens) discardLine() { lt.i = len(lt.tokens) }

// interact runs the interactive session: read a line, feed its tokens into
// the continuing evaluation, echo the stack at each line marker. An error
// aborts only the in-flight line -- deferred frame pops restore the frame
// stack, the value stack stays as the failing line left it, and the session
// resumes.
func (vm *VM) interact(ctx context.Context) error {
	fmt.Println("shablang -- Ctrl+C cancels input, Ctrl+D exits.")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var histPath string
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	vm.init()
	vm.lineEnd = func(vm *VM) {
		fmt.Fprintf(vm.out, "-- %v\n", vm.stack)
	}

	lt := &lineTokens{vm: vm, read: func(cont bool) (string, error) {
		if err := vm.out.Flush(); err != nil {
			return "", err
		}
		prompt := promptMain
		if cont {
			prompt = promptCont
		}
		for {
			line, err := ln.Prompt(prompt)
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(line) != "" {
				ln.AppendHistory(line)
			}
			return line, nil
		}
	}}

	for {
		err := vm.evalSession(ctx, lt)
		if err == nil {
			// input exhausted
			if lt.err == nil || errors.Is(lt.err, io.EOF) {
				fmt.Println()
				return nil
			}
			return lt.err
		}
		if ctx.Err() != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		lt.discardLine()
	}
}

func (vm *VM) evalSession(ctx context.Context, src tokenSource) (rerr error) {
	defer vm.recoverHalt(&rerr)
	vm.eval(ctx, src)
	return vm.out.Flush()
}
