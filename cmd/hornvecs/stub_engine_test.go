package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"maps"
	"strings"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/logger"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// stubEngine records every call the command layer makes.
type stubEngine struct {
	calls []string

	loadedPath string
	loadErr    error
	trainErr   error
	trained    *args.Args
	quantized  bool

	testResult engine.TestResult
	input      string
	k          int
	threshold  float32
	printProb  bool

	neighbors []engine.Neighbor
	bans      []map[string]struct{}
}

type dumpFunc func(w io.Writer) error

func (f dumpFunc) Dump(w io.Writer) error { return f(w) }

func (s *stubEngine) record(name string) { s.calls = append(s.calls, name) }

func (s *stubEngine) LoadModel(_ context.Context, path string) error {
	s.record("LoadModel")
	s.loadedPath = path
	return s.loadErr
}

func (s *stubEngine) Train(_ context.Context, a *args.Args) error {
	s.record("Train")
	s.trained = a
	return s.trainErr
}

func (s *stubEngine) Quantize(_ context.Context, a *args.Args) error {
	s.record("Quantize")
	s.trained = a
	return nil
}

func (s *stubEngine) SaveModel(context.Context) error   { s.record("SaveModel"); return nil }
func (s *stubEngine) SaveVectors(context.Context) error { s.record("SaveVectors"); return nil }
func (s *stubEngine) SaveOutput(context.Context) error  { s.record("SaveOutput"); return nil }

func (s *stubEngine) Test(r io.Reader, k int, threshold float32) (engine.TestResult, error) {
	s.record("Test")
	b, err := io.ReadAll(r)
	s.input, s.k, s.threshold = string(b), k, threshold
	return s.testResult, err
}

func (s *stubEngine) Predict(r io.Reader, w io.Writer, k int, printProb bool, threshold float32) error {
	s.record("Predict")
	b, err := io.ReadAll(r)
	s.input, s.k, s.threshold, s.printProb = string(b), k, threshold, printProb
	return err
}

func (s *stubEngine) Dimension() int { return 2 }

func (s *stubEngine) WordVector(word string) []float32 {
	return []float32{float32(len(word)), 0.5}
}

func (s *stubEngine) SentenceVector(r *bufio.Reader) ([]float32, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return []float32{float32(len(strings.Fields(line))), 0}, nil
}

func (s *stubEngine) NgramVectors(w io.Writer, word string) error {
	s.record("NgramVectors")
	_, err := io.WriteString(w, word+" 1 2\n")
	return err
}

func (s *stubEngine) PrecomputeWordVectors() (*tensor.Mat, error) {
	s.record("PrecomputeWordVectors")
	return tensor.NewMat(1, 2), nil
}

func (s *stubEngine) FindNN(_ *tensor.Mat, _ []float32, k int, ban map[string]struct{}) []engine.Neighbor {
	s.bans = append(s.bans, maps.Clone(ban))
	s.k = k
	return s.neighbors
}

func (s *stubEngine) Analogies(r io.Reader, w io.Writer, k int) error {
	s.record("Analogies")
	s.k = k
	_, err := io.Copy(w, r)
	return err
}

func (s *stubEngine) IsQuantized() bool { return s.quantized }

func (s *stubEngine) dumper(name string) engine.Dumper {
	return dumpFunc(func(w io.Writer) error {
		s.record("Dump" + name)
		_, err := io.WriteString(w, name+"\n")
		return err
	})
}

func (s *stubEngine) Args() engine.Dumper         { return s.dumper("Args") }
func (s *stubEngine) Dictionary() engine.Dumper   { return s.dumper("Dictionary") }
func (s *stubEngine) InputMatrix() engine.Dumper  { return s.dumper("Input") }
func (s *stubEngine) OutputMatrix() engine.Dumper { return s.dumper("Output") }

var _ engine.Engine = (*stubEngine)(nil)

type harness struct {
	app     *app
	stub    *stubEngine
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	engines int

	engineLog logger.Logger
}

func newHarness(stdin string) *harness {
	h := &harness{
		stub:   &stubEngine{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = &app{
		stdin:  strings.NewReader(stdin),
		stdout: h.stdout,
		stderr: h.stderr,
		log:    logger.Discard(),
		newEngine: func(log logger.Logger) engine.Engine {
			h.engines++
			h.engineLog = log
			return h.stub
		},
	}
	return h
}

func (h *harness) run(argv ...string) int {
	return h.app.run(context.Background(), append([]string{programName}, argv...))
}
