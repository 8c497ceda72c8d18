package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const queryWordPrompt = "Query word? "

func (a *app) nn(ctx context.Context, inv invocation) error {
	model, k, err := parseQueryOptions(cmdNN, inv)
	if err != nil {
		return err
	}
	eng, err := a.load(ctx, model)
	if err != nil {
		return err
	}

	fmt.Fprint(a.stderr, "Pre-computing word vectors...")
	wordVectors, err := eng.PrecomputeWordVectors()
	if err != nil {
		fmt.Fprintln(a.stderr)
		return fmt.Errorf("precompute: %w", err)
	}
	fmt.Fprintln(a.stderr, " done.")

	words := a.queryWords()
	ban := make(map[string]struct{}, 1)
	for {
		word, err := words.Next(queryWordPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		clear(ban)
		ban[word] = struct{}{}

		for _, n := range eng.FindNN(wordVectors, eng.WordVector(word), k, ban) {
			if _, banned := ban[n.Label]; banned {
				continue
			}
			fmt.Fprintf(a.stdout, "%s %s\n", n.Label, formatScore(n.Score))
		}
	}
}

func (a *app) analogies(ctx context.Context, inv invocation) error {
	model, k, err := parseQueryOptions(cmdAnalogies, inv)
	if err != nil {
		return err
	}
	eng, err := a.load(ctx, model)
	if err != nil {
		return err
	}
	return eng.Analogies(a.stdin, a.stdout, k)
}

func formatScore(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 32)
}
