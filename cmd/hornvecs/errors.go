package main

import (
	"errors"
	"fmt"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// usageError reports a malformed invocation of cmd. The usage block for
// cmd is printed after err, if any.
type usageError struct {
	cmd command
	err error
}

func (e *usageError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.cmd, e.err)
	}
	return fmt.Sprintf("%s: invalid arguments", e.cmd)
}

func (e *usageError) Unwrap() error { return e.err }

// parseError reports a positional numeric argument that failed to parse.
type parseError struct {
	cmd   command
	name  string
	value string
	err   error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%s: invalid %s %q: %v", e.cmd, e.name, e.value, e.err)
}

func (e *parseError) Unwrap() error { return e.err }

// streamOpenError reports a named file that could not be opened. Kind is
// the capitalised role of the file, "Test" or "Input".
type streamOpenError struct {
	kind string
	path string
	err  error
}

func (e *streamOpenError) Error() string {
	return fmt.Sprintf("%s file cannot be opened!", e.kind)
}

func (e *streamOpenError) Unwrap() error { return e.err }

var errKTooSmall = errors.New("must be at least 1")

// report writes the diagnostic for err and returns the process exit code.
func (a *app) report(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		ue *usageError
		pe *parseError
		se *streamOpenError
	)
	switch {
	case errors.As(err, &ue):
		if ue.err != nil {
			fmt.Fprintln(a.stderr, ue.err)
		}
		printUsage(a.stderr, ue.cmd)
	case errors.As(err, &pe):
		fmt.Fprintf(a.stderr, "invalid %s %q: %v\n", pe.name, pe.value, pe.err)
		printUsage(a.stderr, pe.cmd)
	case errors.As(err, &se):
		fmt.Fprintln(a.stderr, se.Error())
		a.log.Debug("open failed", "path", se.path, "error", se.err)
	default:
		fmt.Fprintf(a.stderr, "hornvecs: %v\n", err)
	}
	return exitFailure
}
