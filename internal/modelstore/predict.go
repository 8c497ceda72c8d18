package modelstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// predictor holds the per-call scratch buffers of a classifier pass.
type predictor struct {
	m      *Model
	hidden []float32
	row    []float32
	probs  []float32
}

func (e *Engine) predictor() (*predictor, error) {
	m, err := e.loaded()
	if err != nil {
		return nil, err
	}
	if !m.Supervised() {
		return nil, engine.ErrNotSupervised
	}
	return &predictor{
		m:      m,
		hidden: make([]float32, m.Dim()),
		row:    make([]float32, m.Dim()),
		probs:  make([]float32, m.Dict.NLabels()),
	}, nil
}

// predict returns up to k labels with probability >= threshold, best first.
// Neighbor.Label carries the label text and Score its probability.
func (p *predictor) predict(words []int32, k int, threshold float32) []engine.Neighbor {
	if len(words) == 0 || k <= 0 {
		return nil
	}
	tensor.Zero(p.hidden)
	for _, id := range words {
		p.m.Input.AddRowTo(p.hidden, int(id))
	}
	tensor.Scale(p.hidden, 1/float32(len(words)))

	for i := range p.probs {
		p.m.Output.RowTo(p.row, i)
		p.probs[i] = tensor.Dot(p.row, p.hidden)
	}
	tensor.Softmax(p.probs)

	idx := make([]int, len(p.probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case p.probs[a] > p.probs[b]:
			return -1
		case p.probs[a] < p.probs[b]:
			return 1
		}
		return 0
	})

	out := make([]engine.Neighbor, 0, k)
	for _, i := range idx {
		if len(out) == k || p.probs[i] < threshold {
			break
		}
		out = append(out, engine.Neighbor{Score: p.probs[i], Label: p.m.Dict.Label(i)})
	}
	return out
}

// eachLine calls fn for every line of r, including a final unterminated one.
func eachLine(r io.Reader, fn func(string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Test computes precision and recall at k over labelled lines. Lines without
// words or labels are not counted.
func (e *Engine) Test(r io.Reader, k int, threshold float32) (engine.TestResult, error) {
	p, err := e.predictor()
	if err != nil {
		return engine.TestResult{}, err
	}
	var (
		res     engine.TestResult
		correct int64
		gold    int64
	)
	err = eachLine(r, func(line string) error {
		words, labels := p.m.Dict.Line(line)
		if len(words) == 0 || len(labels) == 0 {
			return nil
		}
		for _, pred := range p.predict(words, k, threshold) {
			id := p.m.Dict.ID(pred.Label) - int32(p.m.Dict.NWords())
			if slices.Contains(labels, id) {
				correct++
			}
		}
		res.N++
		gold += int64(len(labels))
		return nil
	})
	if err != nil {
		return engine.TestResult{}, err
	}
	if res.N > 0 {
		res.Precision = float64(correct) / float64(int64(k)*res.N)
		res.Recall = float64(correct) / float64(gold)
	}
	return res, nil
}

// Predict writes one line of predicted labels per input line.
func (e *Engine) Predict(r io.Reader, w io.Writer, k int, printProb bool, threshold float32) error {
	p, err := e.predictor()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	err = eachLine(r, func(line string) error {
		words, _ := p.m.Dict.Line(line)
		for i, pred := range p.predict(words, k, threshold) {
			if i > 0 {
				_ = bw.WriteByte(' ')
			}
			_, _ = bw.WriteString(pred.Label)
			if printProb {
				_ = bw.WriteByte(' ')
				_, _ = bw.WriteString(strconv.FormatFloat(float64(pred.Score), 'g', 6, 32))
			}
		}
		_ = bw.WriteByte('\n')
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		return nil
	})
	return err
}
