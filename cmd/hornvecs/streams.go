package main

import (
	"io"
	"os"
)

// stdinPath is the path argument that selects standard input.
const stdinPath = "-"

const (
	streamTest  = "Test"
	streamInput = "Input"
)

// openInput resolves a data path to a readable stream. Standard input is
// wrapped so that closing the result leaves it open.
func (a *app) openInput(path, kind string) (io.ReadCloser, error) {
	if path == stdinPath {
		return io.NopCloser(a.stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &streamOpenError{kind: kind, path: path, err: err}
	}
	return f, nil
}
