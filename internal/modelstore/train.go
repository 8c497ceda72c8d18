package modelstore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// Train assembles an unsupervised model from -pretrainedVectors. The
// vocabulary is every word of the -input corpus seen at least -minCount times
// that also has a pretrained vector, most frequent first. Gradient training is
// not part of this engine.
func (e *Engine) Train(ctx context.Context, a *args.Args) error {
	if a.PretrainedVectors == "" {
		return fmt.Errorf("train %s: only -pretrainedVectors assembly is available: %w", a.Model, engine.ErrUnsupported)
	}
	if a.Model == args.ModelSupervised {
		return fmt.Errorf("train %s: a classifier needs trained label rows: %w", a.Model, engine.ErrUnsupported)
	}

	words, vectors, err := readVectors(a.PretrainedVectors)
	if err != nil {
		return err
	}
	if vectors.C != a.Dim {
		return fmt.Errorf("dimension of pretrained vectors (%d) does not match dimension (%d)", vectors.C, a.Dim)
	}

	counts, err := countCorpus(ctx, a.Input, words)
	if err != nil {
		return err
	}

	rows := make([]int, 0, len(words))
	for i, w := range words {
		if counts[w] >= int64(a.MinCount) && counts[w] > 0 {
			rows = append(rows, i)
		}
	}
	slices.SortStableFunc(rows, func(x, y int) int {
		cx, cy := counts[words[x]], counts[words[y]]
		switch {
		case cx > cy:
			return -1
		case cx < cy:
			return 1
		}
		return 0
	})

	ma := *a
	// pretrained vectors carry no subword information
	ma.Bucket, ma.Minn, ma.Maxn, ma.WordNgrams = 0, 0, 0, 1

	entries := make([]Entry, len(rows))
	input := tensor.NewMat(len(rows), a.Dim)
	for j, i := range rows {
		entries[j] = Entry{Word: words[i], Count: counts[words[i]], Kind: KindWord}
		copy(input.Row(j), vectors.Row(i))
	}
	output := tensor.NewMat(len(rows), a.Dim)

	m, err := NewModel(&ma, entries, input, output)
	if err != nil {
		return err
	}
	e.model = m
	e.log.Info("model assembled", "pretrained", a.PretrainedVectors, "vectors", len(words), "words", len(rows))
	return nil
}

// readVectors parses a `.vec` text file: an `n dim` header followed by
// `word v...` lines.
func readVectors(path string) ([]string, *tensor.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%s: missing header", path)
	}
	header := strings.Fields(sc.Text())
	if len(header) != 2 {
		return nil, nil, fmt.Errorf("%s: header must be `<count> <dim>`", path)
	}
	n, err1 := strconv.Atoi(header[0])
	dim, err2 := strconv.Atoi(header[1])
	if err1 != nil || err2 != nil || n < 0 || dim <= 0 {
		return nil, nil, fmt.Errorf("%s: bad header %q", path, sc.Text())
	}

	words := make([]string, 0, n)
	m := tensor.NewMat(n, dim)
	seen := make(map[string]struct{}, n)
	for len(words) < n && sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != dim+1 {
			return nil, nil, fmt.Errorf("%s: line %d: want %d values, got %d", path, len(words)+2, dim, len(fields)-1)
		}
		if _, dup := seen[fields[0]]; dup {
			return nil, nil, fmt.Errorf("%s: duplicate word %q", path, fields[0])
		}
		seen[fields[0]] = struct{}{}
		row := m.Row(len(words))
		for j, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: word %q: %w", path, fields[0], err)
			}
			row[j] = float32(v)
		}
		words = append(words, fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(words) != n {
		return nil, nil, fmt.Errorf("%s: header promises %d vectors, found %d", path, n, len(words))
	}
	return words, m, nil
}

// countCorpus counts the occurrences of vocab words in the corpus at path.
func countCorpus(ctx context.Context, path string, vocab []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(vocab))
	for _, w := range vocab {
		counts[w] = 0
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	var n int
	for sc.Scan() {
		if n++; n%(1<<20) == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := counts[sc.Text()]; ok {
			counts[sc.Text()]++
		}
	}
	return counts, sc.Err()
}
