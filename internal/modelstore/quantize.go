package modelstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// Quantize replaces the loaded classifier with an int8 block-quantized copy.
// The quantization options and output path come from a.
func (e *Engine) Quantize(ctx context.Context, a *args.Args) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	switch {
	case !m.Supervised():
		return fmt.Errorf("quantize: %w", engine.ErrNotSupervised)
	case m.Quantized():
		return fmt.Errorf("quantize: %w", engine.ErrQuantized)
	case a.Retrain:
		return fmt.Errorf("quantize: -retrain needs the training engine: %w", engine.ErrUnsupported)
	}
	input, ok := m.Input.(*tensor.Mat)
	if !ok {
		return fmt.Errorf("quantize: %w", engine.ErrQuantized)
	}

	entries := m.Dict.Entries()
	if a.Cutoff > 0 && a.Cutoff < m.Dict.NWords() {
		entries, input = prune(m, input, a.Cutoff)
		e.log.Info("dictionary pruned", "words", m.Dict.NWords(), "kept", a.Cutoff)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	qin, err := tensor.Quantize(input, a.Dsub, a.Qnorm)
	if err != nil {
		return fmt.Errorf("quantize input: %w", err)
	}
	var output matrix = m.Output
	if a.Qout {
		dense, ok := m.Output.(*tensor.Mat)
		if !ok {
			return fmt.Errorf("quantize: %w", engine.ErrQuantized)
		}
		if output, err = tensor.Quantize(dense, a.Dsub, a.Qnorm); err != nil {
			return fmt.Errorf("quantize output: %w", err)
		}
	}

	qa := *m.Args
	qa.Output = a.Output
	qa.Qout = a.Qout
	qa.Qnorm = a.Qnorm
	qa.Cutoff = a.Cutoff
	qa.Dsub = a.Dsub

	dict, err := NewDictionary(entries, qa.Label, qa.Minn, qa.Maxn, qa.Bucket, qa.WordNgrams)
	if err != nil {
		return err
	}
	q := &Model{Args: &qa, Dict: dict, Input: qin, Output: output}
	if err := q.check(); err != nil {
		return err
	}
	e.model = q
	e.log.Debug("model quantized", "block", a.Dsub, "qnorm", a.Qnorm, "qout", a.Qout)
	return nil
}

// prune keeps the cutoff words with the largest input norm, in dictionary
// order, plus every label and n-gram bucket.
func prune(m *Model, input *tensor.Mat, cutoff int) ([]Entry, *tensor.Mat) {
	nwords := m.Dict.NWords()
	idx := make([]int, nwords)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		na, nb := input.RowNorm(a), input.RowNorm(b)
		switch {
		case na > nb:
			return -1
		case na < nb:
			return 1
		}
		return 0
	})
	keep := idx[:cutoff]
	slices.Sort(keep)

	all := m.Dict.Entries()
	entries := make([]Entry, 0, cutoff+m.Dict.NLabels())
	for _, i := range keep {
		entries = append(entries, all[i])
	}
	entries = append(entries, all[nwords:]...)

	out := tensor.NewMat(cutoff+m.Args.Bucket, input.C)
	for j, i := range keep {
		copy(out.Row(j), input.Row(i))
	}
	for b := 0; b < m.Args.Bucket; b++ {
		copy(out.Row(cutoff+b), input.Row(nwords+b))
	}
	return entries, out
}
