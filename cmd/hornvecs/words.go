package main

import (
	"bufio"
	"fmt"
	"io"
)

// wordReader yields whitespace separated query words, writing prompt
// before each one. It returns io.EOF when input is exhausted.
type wordReader interface {
	Next(prompt string) (string, error)
}

type wordScanner struct {
	sc  *bufio.Scanner
	out io.Writer
}

func newWordScanner(r io.Reader, out io.Writer) *wordScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	sc.Split(bufio.ScanWords)
	return &wordScanner{sc: sc, out: out}
}

func (s *wordScanner) Next(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
