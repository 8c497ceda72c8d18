// Package engine describes the embedding engine the hornvecs commands drive.
//
// The command layer only sequences these operations; everything behind them
// (dictionary, matrices, model, quantization) belongs to an implementation such
// as internal/modelstore.
package engine

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

var (
	ErrNotLoaded     = errors.New("engine: no model loaded")
	ErrQuantized     = errors.New("engine: not supported for quantized models")
	ErrNotSupervised = errors.New("engine: model is not supervised")
	ErrUnsupported   = errors.New("engine: operation not supported")
)

// Neighbor is one entry of a ranked result list.
type Neighbor struct {
	Score float32
	Label string
}

// TestResult is the aggregate of a batch evaluation.
type TestResult struct {
	N         int64
	Precision float64
	Recall    float64
}

// Dumper writes a human readable view of an engine table.
type Dumper interface {
	Dump(w io.Writer) error
}

// Lifecycle covers loading, training, quantizing and persisting a model.
type Lifecycle interface {
	LoadModel(ctx context.Context, path string) error
	Train(ctx context.Context, a *args.Args) error
	Quantize(ctx context.Context, a *args.Args) error
	SaveModel(ctx context.Context) error
	SaveVectors(ctx context.Context) error
	SaveOutput(ctx context.Context) error
}

// Evaluator scores labelled or unlabelled lines read from r.
type Evaluator interface {
	Test(r io.Reader, k int, threshold float32) (TestResult, error)
	Predict(r io.Reader, w io.Writer, k int, printProb bool, threshold float32) error
}

// Querier answers vector and neighbour queries.
type Querier interface {
	Dimension() int
	WordVector(word string) []float32
	// SentenceVector consumes one line from r.
	SentenceVector(r *bufio.Reader) ([]float32, error)
	NgramVectors(w io.Writer, word string) error
	PrecomputeWordVectors() (*tensor.Mat, error)
	// FindNN returns at most k neighbours of query in descending score order,
	// skipping every word in ban.
	FindNN(m *tensor.Mat, query []float32, k int, ban map[string]struct{}) []Neighbor
	Analogies(r io.Reader, w io.Writer, k int) error
}

// Inspector exposes the model internals for dumping.
type Inspector interface {
	IsQuantized() bool
	Args() Dumper
	Dictionary() Dumper
	InputMatrix() Dumper
	OutputMatrix() Dumper
}

// Engine is the full capability set of a loaded model handle.
type Engine interface {
	Lifecycle
	Evaluator
	Querier
	Inspector
}
