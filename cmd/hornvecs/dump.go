package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/hornvecs/internal/engine"
)

type dumpTarget int

const (
	dumpArgs dumpTarget = iota
	dumpDict
	dumpInput
	dumpOutput
)

func parseDumpTarget(s string) (dumpTarget, bool) {
	switch s {
	case "args":
		return dumpArgs, true
	case "dict":
		return dumpDict, true
	case "input":
		return dumpInput, true
	case "output":
		return dumpOutput, true
	}
	return 0, false
}

func (a *app) dump(ctx context.Context, inv invocation) error {
	if len(inv) < 4 {
		return &usageError{cmd: cmdDump}
	}
	target, ok := parseDumpTarget(inv[3])
	if !ok {
		return &usageError{cmd: cmdDump, err: fmt.Errorf("unknown option %q", inv[3])}
	}
	eng, err := a.load(ctx, inv[2])
	if err != nil {
		return err
	}

	var d engine.Dumper
	switch target {
	case dumpArgs:
		d = eng.Args()
	case dumpDict:
		d = eng.Dictionary()
	case dumpInput, dumpOutput:
		if eng.IsQuantized() {
			fmt.Fprintln(a.stderr, "Not supported for quantized models.")
			return nil
		}
		d = eng.InputMatrix()
		if target == dumpOutput {
			d = eng.OutputMatrix()
		}
	}
	if err := d.Dump(a.stdout); err != nil {
		return fmt.Errorf("dump %s: %w", inv[3], err)
	}
	return nil
}
