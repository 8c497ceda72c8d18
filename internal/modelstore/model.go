// Package modelstore is the bundled hornvecs engine: a word and sentence
// embedding model kept in a single SQLite file and queried in memory.
package modelstore

import (
	"fmt"
	"io"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// matrix is the row access shared by dense and quantized matrices.
type matrix interface {
	Shape() (int, int)
	RowTo(dst []float32, i int)
	AddRowTo(dst []float32, i int)
	Dump(w io.Writer) error
}

// Model is a loaded model file.
type Model struct {
	ID        string
	CreatedBy string
	Args      *args.Args
	Dict      *Dictionary

	// Input has one row per word followed by Args.Bucket n-gram rows.
	Input matrix
	// Output has one row per label for supervised models, one per word otherwise.
	Output matrix
}

// NewModel assembles a dense model from its parts.
func NewModel(a *args.Args, entries []Entry, input, output *tensor.Mat) (*Model, error) {
	dict, err := NewDictionary(entries, a.Label, a.Minn, a.Maxn, a.Bucket, a.WordNgrams)
	if err != nil {
		return nil, err
	}
	m := &Model{Args: a, Dict: dict, Input: input, Output: output}
	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

// Quantized reports whether the input matrix is stored quantized.
func (m *Model) Quantized() bool {
	_, ok := m.Input.(*tensor.QMat)
	return ok
}

// Supervised reports whether the model is a classifier.
func (m *Model) Supervised() bool {
	return m.Args.Model == args.ModelSupervised
}

// Dim returns the embedding dimension.
func (m *Model) Dim() int {
	_, c := m.Input.Shape()
	return c
}

func (m *Model) check() error {
	if m.Args == nil || m.Dict == nil || m.Input == nil || m.Output == nil {
		return fmt.Errorf("%w: incomplete model", ErrCorruptFile)
	}
	ir, ic := m.Input.Shape()
	if want := m.Dict.NWords() + m.Args.Bucket; ir != want {
		return fmt.Errorf("%w: input matrix has %d rows, want %d", ErrCorruptFile, ir, want)
	}
	or, oc := m.Output.Shape()
	if oc != ic {
		return fmt.Errorf("%w: output matrix has %d columns, input has %d", ErrCorruptFile, oc, ic)
	}
	want := m.Dict.NWords()
	if m.Supervised() {
		want = m.Dict.NLabels()
	}
	if or != want {
		return fmt.Errorf("%w: output matrix has %d rows, want %d", ErrCorruptFile, or, want)
	}
	return nil
}
