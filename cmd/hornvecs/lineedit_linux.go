//go:build linux

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}

// lineEditor reads query words from a terminal one line at a time with
// cursor movement and history.
type lineEditor struct {
	in      *os.File
	out     io.Writer
	buf     lineBuffer
	pending []string
}

func newLineEditor(in *os.File, out io.Writer) wordReader {
	return &lineEditor{in: in, out: out}
}

func (e *lineEditor) Next(prompt string) (string, error) {
	if len(e.pending) > 0 {
		fmt.Fprintf(e.out, "%s%s\n", prompt, e.pending[0])
		return e.pop(), nil
	}
	for len(e.pending) == 0 {
		line, err := e.readLine(prompt)
		if err != nil {
			return "", err
		}
		e.pending = strings.Fields(line)
	}
	return e.pop(), nil
}

func (e *lineEditor) pop() string {
	w := e.pending[0]
	e.pending = e.pending[1:]
	return w
}

func (e *lineEditor) readLine(prompt string) (string, error) {
	fd := int(e.in.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, saved)
	}()

	e.buf.reset()
	fmt.Fprint(e.out, prompt)
	var keys keyDecoder
	var chunk [16]byte
	for {
		n, err := e.in.Read(chunk[:])
		if err != nil {
			return "", err
		}
		for _, c := range chunk[:n] {
			switch keys.feed(c, &e.buf) {
			case keyRedraw:
				e.redraw(prompt)
			case keySubmit:
				fmt.Fprint(e.out, "\r\n")
				return e.buf.commit(), nil
			case keyInterrupt:
				fmt.Fprint(e.out, "^C\r\n")
				return "", io.EOF
			case keyEOF:
				fmt.Fprint(e.out, "\r\n")
				return "", io.EOF
			}
		}
	}
}

func (e *lineEditor) redraw(prompt string) {
	fmt.Fprintf(e.out, "\r%s%s\x1b[K", prompt, e.buf.line)
	if e.buf.cursor < len(e.buf.line) {
		fmt.Fprintf(e.out, "\r%s%s", prompt, e.buf.line[:e.buf.cursor])
	}
}
