package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/logger"
)

const globalHeader = "The commands supported by hornvecs are:"

func TestEveryCommandIsDispatched(t *testing.T) {
	for c := command(0); c < numCommands; c++ {
		t.Run(c.String(), func(t *testing.T) {
			got, ok := parseCommand(c.String())
			require.True(t, ok)
			assert.Equal(t, c, got)
			assert.NotEmpty(t, commandSummaries[c])

			var usage strings.Builder
			printUsage(&usage, c)
			assert.NotEmpty(t, usage.String())
			assert.NotContains(t, usage.String(), globalHeader)

			h := newHarness("")
			err := h.app.dispatch(context.Background(), c, invocation{programName, c.String()})
			var ue *usageError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, c, ue.cmd)
			assert.Zero(t, h.engines)
		})
	}
	assert.Len(t, globalOrder, int(numCommands))
}

func TestGlobalUsage(t *testing.T) {
	for _, argv := range [][]string{nil, {"bogus"}, {"Test"}, {"--", "nn"}, {"--"}, {"--", "nn", "m", "1"}} {
		h := newHarness("")
		assert.Equal(t, exitFailure, h.run(argv...), "argv %q", argv)
		assert.Contains(t, h.stderr.String(), globalHeader)
		assert.Contains(t, h.stderr.String(), "  print-sentence-vectors  print sentence vectors given a trained model\n")
		assert.Empty(t, h.stdout.String())
		assert.Zero(t, h.engines)
	}
}

func TestTrainingUsageStatesLimits(t *testing.T) {
	var usage strings.Builder
	printUsage(&usage, cmdSupervised)
	assert.True(t, strings.HasPrefix(usage.String(), supervisedNote))
	assert.Contains(t, usage.String(), "The following arguments are mandatory:")

	for _, c := range []command{cmdSkipgram, cmdCBOW} {
		usage.Reset()
		printUsage(&usage, c)
		assert.True(t, strings.HasPrefix(usage.String(), assembleNote), "%s", c)
		assert.Contains(t, usage.String(), "-pretrainedVectors")
	}

	h := newHarness("")
	assert.Equal(t, exitFailure, h.run("supervised", "-output", "o"))
	assert.Contains(t, h.stderr.String(), "supervised always fails")
}

func TestEngineLoggerNamesCommand(t *testing.T) {
	var logs bytes.Buffer
	h := newHarness("")
	h.app.log = logger.Text(&logs, slog.LevelDebug)
	require.Equal(t, exitSuccess, h.run("dump", "m", "args"))
	require.NotNil(t, h.engineLog)

	h.engineLog.Info("loaded")
	assert.Contains(t, logs.String(), "msg=loaded command=dump")
}

func TestUsageErrorsNeverTouchEngine(t *testing.T) {
	tests := []struct {
		argv  []string
		usage string
	}{
		{[]string{"test", "m"}, "usage: hornvecs test"},
		{[]string{"test", "m", "d", "1", "0", "extra"}, "usage: hornvecs test"},
		{[]string{"predict", "m"}, "usage: hornvecs predict[-prob]"},
		{[]string{"predict-prob", "m", "d", "1", "0", "x"}, "usage: hornvecs predict[-prob]"},
		{[]string{"print-word-vectors"}, "usage: hornvecs print-word-vectors"},
		{[]string{"print-word-vectors", "m", "x"}, "usage: hornvecs print-word-vectors"},
		{[]string{"print-sentence-vectors", "m", "x"}, "usage: hornvecs print-sentence-vectors"},
		{[]string{"print-ngrams", "m"}, "usage: hornvecs print-ngrams"},
		{[]string{"print-ngrams", "m", "w", "x"}, "usage: hornvecs print-ngrams"},
		{[]string{"nn"}, "usage: hornvecs nn"},
		{[]string{"nn", "m", "1", "2"}, "usage: hornvecs nn"},
		{[]string{"analogies", "m", "1", "2"}, "usage: hornvecs analogies"},
		{[]string{"quantize"}, "usage: hornvecs quantize"},
		{[]string{"dump", "m"}, "usage: hornvecs dump"},
		{[]string{"dump", "m", "weights"}, "usage: hornvecs dump"},
		{[]string{"skipgram", "-input", "in"}, "The following arguments are mandatory:"},
		{[]string{"cbow", "-output", "o", "-nope", "1"}, "The following arguments are mandatory:"},
		{[]string{"test", "m", "d", "two"}, "usage: hornvecs test"},
		{[]string{"test", "m", "d", "0"}, "usage: hornvecs test"},
		{[]string{"predict", "m", "d", "1", "half"}, "usage: hornvecs predict[-prob]"},
		{[]string{"nn", "m", "-3"}, "usage: hornvecs nn"},
		{[]string{"analogies", "m", "ten"}, "usage: hornvecs analogies"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			h := newHarness("")
			assert.Equal(t, exitFailure, h.run(tt.argv...))
			assert.Contains(t, h.stderr.String(), tt.usage)
			assert.Empty(t, h.stdout.String())
			assert.Zero(t, h.engines)
		})
	}
}

func TestParseKAndThreshold(t *testing.T) {
	o, err := parseEvalOptions(cmdTest, invocation{programName, "test", "m", "d"})
	require.NoError(t, err)
	assert.Equal(t, evalOptions{model: "m", data: "d", k: 1}, o)

	o, err = parseEvalOptions(cmdTest, invocation{programName, "test", "m", "d", "4"})
	require.NoError(t, err)
	assert.Equal(t, evalOptions{model: "m", data: "d", k: 4}, o)

	o, err = parseEvalOptions(cmdPredict, invocation{programName, "predict", "m", "d", "5", "-0.25"})
	require.NoError(t, err)
	assert.Equal(t, 5, o.k)
	assert.Equal(t, float32(-0.25), o.threshold)

	model, k, err := parseQueryOptions(cmdNN, invocation{programName, "nn", "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", model)
	assert.Equal(t, 10, k)

	_, err = parseK(cmdTest, "3x")
	var pe *parseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "k", pe.name)

	_, err = parseThreshold(cmdTest, "")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "threshold", pe.name)
}

func TestTestReportsMetrics(t *testing.T) {
	h := newHarness("__label__a hello\n")
	h.stub.testResult = engine.TestResult{N: 3, Precision: 0.5, Recall: 1.0 / 3}

	require.Equal(t, exitSuccess, h.run("test", "model.bin", "-", "2", "0.25"))
	assert.Equal(t, "N\t3\nP@2\t0.5\nR@2\t0.333\n", h.stdout.String())
	assert.Equal(t, "Number of examples: 3\n", h.stderr.String())
	assert.Equal(t, []string{"LoadModel", "Test"}, h.stub.calls)
	assert.Equal(t, "model.bin", h.stub.loadedPath)
	assert.Equal(t, "__label__a hello\n", h.stub.input, "- reads standard input")
	assert.Equal(t, 2, h.stub.k)
	assert.Equal(t, float32(0.25), h.stub.threshold)
	assert.Equal(t, 1, h.engines)
}

func TestTestWithoutExamples(t *testing.T) {
	h := newHarness("")
	require.Equal(t, exitSuccess, h.run("test", "m", "-"))
	assert.Equal(t, "N\t0\nP@1\t0\nR@1\t0\n", h.stdout.String())
}

func TestPredictOptions(t *testing.T) {
	h := newHarness("some text\n")
	require.Equal(t, exitSuccess, h.run("predict", "m", "-", "3", "-0.5"))
	assert.Equal(t, 3, h.stub.k)
	assert.Equal(t, float32(-0.5), h.stub.threshold, "negative thresholds pass through")
	assert.False(t, h.stub.printProb)

	h = newHarness("")
	require.Equal(t, exitSuccess, h.run("predict-prob", "m", "-"))
	assert.True(t, h.stub.printProb)
	assert.Equal(t, 1, h.stub.k)
	assert.Zero(t, h.stub.threshold)
}

func TestPredictReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0o644))

	h := newHarness("from stdin\n")
	require.Equal(t, exitSuccess, h.run("predict", "m", path))
	assert.Equal(t, "from file\n", h.stub.input)
}

func TestMissingDataFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.txt")

	h := newHarness("")
	assert.Equal(t, exitFailure, h.run("test", "m", missing))
	assert.Equal(t, "Test file cannot be opened!\n", h.stderr.String())
	assert.Empty(t, h.stdout.String())

	h = newHarness("")
	assert.Equal(t, exitFailure, h.run("predict-prob", "m", missing, "2"))
	assert.Equal(t, "Input file cannot be opened!\n", h.stderr.String())
	assert.NotContains(t, h.stub.calls, "Predict")
}

func TestLoadFailure(t *testing.T) {
	h := newHarness("")
	h.stub.loadErr = errors.New("bad model")
	assert.Equal(t, exitFailure, h.run("print-word-vectors", "m"))
	assert.Contains(t, h.stderr.String(), "bad model")
	assert.Equal(t, []string{"LoadModel"}, h.stub.calls)
}

func TestPrintWordVectors(t *testing.T) {
	h := newHarness("a bb\n  ccc")
	require.Equal(t, exitSuccess, h.run("print-word-vectors", "m"))
	assert.Equal(t, "a 1 0.5\nbb 2 0.5\nccc 3 0.5\n", h.stdout.String())
}

func TestPrintSentenceVectors(t *testing.T) {
	h := newHarness("one two\nthree\nfour five six")
	require.Equal(t, exitSuccess, h.run("print-sentence-vectors", "m"))
	assert.Equal(t, "2 0\n1 0\n3 0\n", h.stdout.String())

	h = newHarness("")
	require.Equal(t, exitSuccess, h.run("print-sentence-vectors", "m"))
	assert.Empty(t, h.stdout.String())
}

func TestPrintNgrams(t *testing.T) {
	h := newHarness("")
	require.Equal(t, exitSuccess, h.run("print-ngrams", "m", "word"))
	assert.Equal(t, "word 1 2\n", h.stdout.String())
}

func TestNearestNeighbours(t *testing.T) {
	h := newHarness("cat\ndog")
	h.stub.neighbors = []engine.Neighbor{
		{Score: 0.9, Label: "dog"},
		{Score: 0.8, Label: "cat"},
		{Score: 0.25, Label: "kitten"},
	}

	require.Equal(t, exitSuccess, h.run("nn", "m", "5"))
	assert.Equal(t, "Pre-computing word vectors... done.\n", h.stderr.String())
	assert.Equal(t,
		"Query word? dog 0.9\nkitten 0.25\n"+
			"Query word? cat 0.8\nkitten 0.25\n"+
			"Query word? ",
		h.stdout.String())
	assert.Equal(t, []map[string]struct{}{{"cat": {}}, {"dog": {}}}, h.stub.bans, "ban set holds only the current query")
	assert.Equal(t, 5, h.stub.k)
	assert.Equal(t, 1, h.engines)
}

func TestAnalogies(t *testing.T) {
	h := newHarness("a b c\n")
	require.Equal(t, exitSuccess, h.run("analogies", "m"))
	assert.Equal(t, 10, h.stub.k)
	assert.Equal(t, "a b c\n", h.stdout.String())
}

func TestDump(t *testing.T) {
	for option, want := range map[string]string{
		"args":   "Args\n",
		"dict":   "Dictionary\n",
		"input":  "Input\n",
		"output": "Output\n",
	} {
		h := newHarness("")
		require.Equal(t, exitSuccess, h.run("dump", "m", option))
		assert.Equal(t, want, h.stdout.String())
	}
}

func TestDumpQuantizedMatrices(t *testing.T) {
	for _, option := range []string{"input", "output"} {
		h := newHarness("")
		h.stub.quantized = true
		assert.Equal(t, exitSuccess, h.run("dump", "m", option))
		assert.Equal(t, "Not supported for quantized models.\n", h.stderr.String())
		assert.Empty(t, h.stdout.String())
	}

	h := newHarness("")
	h.stub.quantized = true
	require.Equal(t, exitSuccess, h.run("dump", "m", "dict"))
	assert.Equal(t, "Dictionary\n", h.stdout.String())
}

func TestTrain(t *testing.T) {
	h := newHarness("")
	require.Equal(t, exitSuccess, h.run("skipgram", "-input", "in.txt", "-output", "out", "-dim", "8"))
	assert.Equal(t, []string{"Train", "SaveModel", "SaveVectors"}, h.stub.calls)
	require.NotNil(t, h.stub.trained)
	assert.Equal(t, 8, h.stub.trained.Dim)

	h = newHarness("")
	require.Equal(t, exitSuccess, h.run("supervised", "-input", "in.txt", "-output", "out", "-saveOutput"))
	assert.Equal(t, []string{"Train", "SaveModel", "SaveVectors", "SaveOutput"}, h.stub.calls)

	h = newHarness("")
	h.stub.trainErr = engine.ErrUnsupported
	assert.Equal(t, exitFailure, h.run("cbow", "-input", "in.txt", "-output", "out"))
	assert.Equal(t, []string{"Train"}, h.stub.calls)
	assert.Contains(t, h.stderr.String(), "not supported")
}

func TestQuantize(t *testing.T) {
	h := newHarness("")
	require.Equal(t, exitSuccess, h.run("quantize", "-output", "model", "-qnorm", "-cutoff", "100"))
	assert.Equal(t, []string{"LoadModel", "Quantize", "SaveModel"}, h.stub.calls)
	assert.Equal(t, "model.bin", h.stub.loadedPath)
	assert.Equal(t, 100, h.stub.trained.Cutoff)
	assert.True(t, h.stub.trained.Qnorm)
}
