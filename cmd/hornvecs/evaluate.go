package main

import (
	"context"
	"fmt"
	"strconv"
)

func (a *app) test(ctx context.Context, inv invocation) error {
	o, err := parseEvalOptions(cmdTest, inv)
	if err != nil {
		return err
	}
	eng, err := a.load(ctx, o.model)
	if err != nil {
		return err
	}
	in, err := a.openInput(o.data, streamTest)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := eng.Test(in, o.k, o.threshold)
	if err != nil {
		return fmt.Errorf("test: %w", err)
	}
	fmt.Fprintf(a.stdout, "N\t%d\n", res.N)
	fmt.Fprintf(a.stdout, "P@%d\t%s\n", o.k, formatMetric(res.Precision))
	fmt.Fprintf(a.stdout, "R@%d\t%s\n", o.k, formatMetric(res.Recall))
	fmt.Fprintf(a.stderr, "Number of examples: %d\n", res.N)
	return nil
}

func (a *app) predict(ctx context.Context, c command, inv invocation) error {
	o, err := parseEvalOptions(c, inv)
	if err != nil {
		return err
	}
	eng, err := a.load(ctx, o.model)
	if err != nil {
		return err
	}
	in, err := a.openInput(o.data, streamInput)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := eng.Predict(in, a.stdout, o.k, c == cmdPredictProb, o.threshold); err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}

// formatMetric prints with three significant digits.
func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}
