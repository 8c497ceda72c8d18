package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/logger"
)

func (a *app) train(ctx context.Context, c command, inv invocation) error {
	opts, err := args.Parse(ctx, inv)
	if err != nil {
		return &usageError{cmd: c, err: err}
	}
	log := logger.FromContext(ctx)
	eng := a.newEngine(log)
	log.Debug("training", "model", opts.Model, "input", opts.Input, "output", opts.Output)
	if err := eng.Train(ctx, opts); err != nil {
		return err
	}
	if err := eng.SaveModel(ctx); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := eng.SaveVectors(ctx); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	if opts.SaveOutput {
		if err := eng.SaveOutput(ctx); err != nil {
			return fmt.Errorf("save output: %w", err)
		}
	}
	return nil
}

func (a *app) quantize(ctx context.Context, inv invocation) error {
	if len(inv) < 3 {
		return &usageError{cmd: cmdQuantize}
	}
	opts, err := args.Parse(ctx, inv)
	if err != nil {
		return &usageError{cmd: cmdQuantize, err: err}
	}
	eng, err := a.load(ctx, opts.Output+".bin")
	if err != nil {
		return err
	}
	if err := eng.Quantize(ctx, opts); err != nil {
		return err
	}
	if err := eng.SaveModel(ctx); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}
