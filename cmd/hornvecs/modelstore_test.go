package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/logger"
	"github.com/samcharles93/hornvecs/internal/modelstore"
	"github.com/samcharles93/hornvecs/internal/tensor"
)

// savedModel writes a small skipgram model and returns its path.
func savedModel(t *testing.T) (string, *modelstore.Model) {
	t.Helper()
	dir := t.TempDir()
	a := args.Default()
	a.Dim, a.Minn, a.Maxn, a.Bucket = 2, 0, 0, 0
	a.Output = filepath.Join(dir, "words")
	input, err := tensor.NewMatFromData(4, 2, []float32{
		1, 0,
		0.6, 0.8,
		0.95, 0.05,
		0, 1,
	})
	require.NoError(t, err)
	m, err := modelstore.NewModel(a, []modelstore.Entry{
		{Word: "cat", Count: 10},
		{Word: "dog", Count: 8},
		{Word: "kitten", Count: 3},
		{Word: "car", Count: 2},
	}, input, tensor.NewMat(4, 2))
	require.NoError(t, err)

	path := a.Output + ".bin"
	require.NoError(t, modelstore.Save(context.Background(), m, path))
	return path, m
}

func realApp(stdin string) (*app, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &app{
		stdin:     strings.NewReader(stdin),
		stdout:    &stdout,
		stderr:    &stderr,
		log:       logger.Discard(),
		newEngine: defaultEngine,
	}, &stdout, &stderr
}

func TestDumpArgsFeedsConfig(t *testing.T) {
	path, m := savedModel(t)
	a, stdout, _ := realApp("")
	require.Equal(t, exitSuccess, a.run(context.Background(), []string{programName, "dump", path, "args"}))

	cfg := filepath.Join(t.TempDir(), "args.yaml")
	require.NoError(t, os.WriteFile(cfg, stdout.Bytes(), 0o644))
	parsed, err := args.Parse(context.Background(), []string{programName, "quantize", "-config", cfg})
	require.NoError(t, err)
	assert.Equal(t, m.Args, parsed)
}

func TestNearestNeighboursOnSavedModel(t *testing.T) {
	path, _ := savedModel(t)
	a, stdout, stderr := realApp("cat\n")
	require.Equal(t, exitSuccess, a.run(context.Background(), []string{programName, "nn", path, "2"}))
	assert.Equal(t, "Pre-computing word vectors... done.\n", stderr.String())

	lines := strings.Split(stdout.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "kitten", strings.Fields(lines[0])[2])
	assert.Equal(t, "dog", strings.Fields(lines[1])[0])
	assert.Equal(t, "Query word? ", lines[2])
}

func TestDumpDictOnSavedModel(t *testing.T) {
	path, _ := savedModel(t)
	a, stdout, _ := realApp("")
	require.Equal(t, exitSuccess, a.run(context.Background(), []string{programName, "dump", path, "dict"}))
	assert.True(t, strings.HasPrefix(stdout.String(), "4\ncat 10 word\n"), stdout.String())
}

func TestQuantizeUnsupervisedFails(t *testing.T) {
	path, _ := savedModel(t)
	a, _, stderr := realApp("")
	output := strings.TrimSuffix(path, ".bin")
	assert.Equal(t, exitFailure, a.run(context.Background(), []string{programName, "quantize", "-output", output}))
	assert.Contains(t, stderr.String(), "not supervised")
}
