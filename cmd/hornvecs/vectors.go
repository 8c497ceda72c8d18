package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samcharles93/hornvecs/internal/tensor"
)

func (a *app) printWordVectors(ctx context.Context, inv invocation) error {
	if len(inv) != 3 {
		return &usageError{cmd: cmdPrintWordVectors}
	}
	eng, err := a.load(ctx, inv[2])
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(a.stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		word := sc.Text()
		if _, err := fmt.Fprintf(a.stdout, "%s %s\n", word, tensor.FormatVec(eng.WordVector(word))); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (a *app) printSentenceVectors(ctx context.Context, inv invocation) error {
	if len(inv) != 3 {
		return &usageError{cmd: cmdPrintSentenceVectors}
	}
	eng, err := a.load(ctx, inv[2])
	if err != nil {
		return err
	}
	br := bufio.NewReader(a.stdin)
	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		vec, err := eng.SentenceVector(br)
		if err != nil {
			return fmt.Errorf("sentence vector: %w", err)
		}
		if _, err := fmt.Fprintln(a.stdout, tensor.FormatVec(vec)); err != nil {
			return err
		}
	}
}

func (a *app) printNgrams(ctx context.Context, inv invocation) error {
	if len(inv) != 4 {
		return &usageError{cmd: cmdPrintNgrams}
	}
	eng, err := a.load(ctx, inv[2])
	if err != nil {
		return err
	}
	return eng.NgramVectors(a.stdout, inv[3])
}
