package modelstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/logger"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// Engine implements engine.Engine over a Model.
type Engine struct {
	log   logger.Logger
	model *Model
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine without a model. LoadModel or Train must run first.
func New(log logger.Logger) *Engine {
	return &Engine{log: log}
}

func (e *Engine) LoadModel(ctx context.Context, path string) error {
	m, err := Open(ctx, path)
	if err != nil {
		return err
	}
	e.model = m
	e.log.Debug("model loaded",
		"path", path,
		"id", m.ID,
		"created_by", m.CreatedBy,
		"model", m.Args.Model,
		"words", m.Dict.NWords(),
		"labels", m.Dict.NLabels(),
		"dim", m.Dim(),
		"quantized", m.Quantized(),
	)
	return nil
}

func (e *Engine) loaded() (*Model, error) {
	if e.model == nil {
		return nil, engine.ErrNotLoaded
	}
	return e.model, nil
}

func (e *Engine) SaveModel(ctx context.Context) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	path := m.Args.Output + ".bin"
	if m.Quantized() {
		path = m.Args.Output + ".ftz"
	}
	if err := Save(ctx, m, path); err != nil {
		return err
	}
	e.log.Info("model saved", "path", path, "id", m.ID)
	return nil
}

func (e *Engine) SaveVectors(ctx context.Context) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	return e.writeTable(ctx, m.Args.Output+".vec", m.Dict.NWords(), func(i int) (string, []float32) {
		w := m.Dict.Word(int32(i))
		return w, e.WordVector(w)
	})
}

func (e *Engine) SaveOutput(ctx context.Context) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	rows, _ := m.Output.Shape()
	row := make([]float32, m.Dim())
	return e.writeTable(ctx, m.Args.Output+".output", rows, func(i int) (string, []float32) {
		m.Output.RowTo(row, i)
		if m.Supervised() {
			return m.Dict.Label(i), row
		}
		return m.Dict.Word(int32(i)), row
	})
}

// writeTable writes the `n dim` header followed by `token v...` lines.
func (e *Engine) writeTable(ctx context.Context, path string, n int, row func(int) (string, []float32)) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(bw, "%d %d\n", n, e.model.Dim()); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		tok, vec := row(i)
		if _, err := fmt.Fprintf(bw, "%s %s\n", tok, tensor.FormatVec(vec)); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	e.log.Info("table saved", "path", path, "rows", n)
	return nil
}

func (e *Engine) Dimension() int {
	if e.model == nil {
		return 0
	}
	return e.model.Dim()
}

func (e *Engine) IsQuantized() bool {
	return e.model != nil && e.model.Quantized()
}

// WordVector averages the rows of w and its subwords. Unknown words without
// n-grams get a zero vector.
func (e *Engine) WordVector(w string) []float32 {
	m := e.model
	if m == nil {
		return nil
	}
	vec := make([]float32, m.Dim())
	ids := m.Dict.Subwords(w)
	for _, id := range ids {
		m.Input.AddRowTo(vec, int(id))
	}
	if len(ids) > 0 {
		tensor.Scale(vec, 1/float32(len(ids)))
	}
	return vec
}

// SentenceVector consumes one line of r.
func (e *Engine) SentenceVector(r *bufio.Reader) ([]float32, error) {
	m, err := e.loaded()
	if err != nil {
		return nil, err
	}
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	vec := make([]float32, m.Dim())
	if m.Supervised() {
		words, _ := m.Dict.Line(line)
		e.meanRows(vec, words)
		return vec, nil
	}

	var n int
	for _, tok := range strings.Fields(line) {
		wv := e.WordVector(tok)
		if norm := tensor.Norm(wv); norm > 0 {
			tensor.AddScaled(vec, wv, 1/norm)
			n++
		}
	}
	if n > 0 {
		tensor.Scale(vec, 1/float32(n))
	}
	return vec, nil
}

func (e *Engine) meanRows(dst []float32, ids []int32) {
	tensor.Zero(dst)
	for _, id := range ids {
		e.model.Input.AddRowTo(dst, int(id))
	}
	if len(ids) > 0 {
		tensor.Scale(dst, 1/float32(len(ids)))
	}
}

func (e *Engine) NgramVectors(w io.Writer, word string) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	ids, texts := m.Dict.SubwordStrings(word)
	vec := make([]float32, m.Dim())
	for i, id := range ids {
		tensor.Zero(vec)
		m.Input.AddRowTo(vec, int(id))
		if _, err := fmt.Fprintf(bw, "%s %s\n", texts[i], tensor.FormatVec(vec)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// PrecomputeWordVectors returns the unit length vector of every word.
func (e *Engine) PrecomputeWordVectors() (*tensor.Mat, error) {
	m, err := e.loaded()
	if err != nil {
		return nil, err
	}
	out := tensor.NewMat(m.Dict.NWords(), m.Dim())
	for i := 0; i < m.Dict.NWords(); i++ {
		vec := e.WordVector(m.Dict.Word(int32(i)))
		tensor.Normalize(vec)
		copy(out.Row(i), vec)
	}
	return out, nil
}

// FindNN ranks the rows of wordVectors by cosine similarity to query.
// Row i of wordVectors must belong to word i of the dictionary.
func (e *Engine) FindNN(wordVectors *tensor.Mat, query []float32, k int, ban map[string]struct{}) []engine.Neighbor {
	if e.model == nil || k <= 0 {
		return nil
	}
	qnorm := tensor.Norm(query)
	if qnorm == 0 {
		qnorm = 1
	}
	all := make([]engine.Neighbor, 0, wordVectors.R)
	for i := 0; i < wordVectors.R; i++ {
		all = append(all, engine.Neighbor{
			Score: wordVectors.DotRow(query, i) / qnorm,
			Label: e.model.Dict.Word(int32(i)),
		})
	}
	slices.SortStableFunc(all, func(a, b engine.Neighbor) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	out := make([]engine.Neighbor, 0, k)
	for _, n := range all {
		if len(out) == k {
			break
		}
		if _, banned := ban[n.Label]; banned {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Analogies answers `A - B + C` queries read from r until end of input.
func (e *Engine) Analogies(r io.Reader, w io.Writer, k int) error {
	m, err := e.loaded()
	if err != nil {
		return err
	}
	wordVectors, err := e.PrecomputeWordVectors()
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	query := make([]float32, m.Dim())
	for {
		if _, err := io.WriteString(w, "Query triplet (A - B + C)? "); err != nil {
			return err
		}
		var words [3]string
		for i := range words {
			if !sc.Scan() {
				return sc.Err()
			}
			words[i] = sc.Text()
		}

		tensor.Zero(query)
		ban := make(map[string]struct{}, len(words))
		for i, word := range words {
			ban[word] = struct{}{}
			vec := e.WordVector(word)
			sign := float32(1)
			if i == 1 {
				sign = -1
			}
			tensor.AddScaled(query, vec, sign/(tensor.Norm(vec)+1e-8))
		}
		for _, n := range e.FindNN(wordVectors, query, k, ban) {
			if _, err := fmt.Fprintf(w, "%s %s\n", n.Label, strconv.FormatFloat(float64(n.Score), 'g', 6, 32)); err != nil {
				return err
			}
		}
	}
}

func (e *Engine) Args() engine.Dumper {
	if e.model == nil {
		return notLoaded{}
	}
	return e.model.Args
}

func (e *Engine) Dictionary() engine.Dumper {
	if e.model == nil {
		return notLoaded{}
	}
	return e.model.Dict
}

func (e *Engine) InputMatrix() engine.Dumper {
	if e.model == nil {
		return notLoaded{}
	}
	return e.model.Input
}

func (e *Engine) OutputMatrix() engine.Dumper {
	if e.model == nil {
		return notLoaded{}
	}
	return e.model.Output
}

type notLoaded struct{}

func (notLoaded) Dump(io.Writer) error { return engine.ErrNotLoaded }

var _ engine.Dumper = (*args.Args)(nil)
