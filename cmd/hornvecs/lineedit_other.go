//go:build !linux

package main

import (
	"io"
	"os"
)

func isTerminal(*os.File) bool { return false }

func newLineEditor(*os.File, io.Writer) wordReader { return nil }
