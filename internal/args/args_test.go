package args

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandDefaults(t *testing.T) {
	tests := []struct {
		command string
		model   string
		loss    string
		minn    int
		bucket  int
	}{
		{command: "skipgram", model: ModelSkipgram, loss: LossNS, minn: 3, bucket: 2000000},
		{command: "cbow", model: ModelCBOW, loss: LossNS, minn: 3, bucket: 2000000},
		{command: "supervised", model: ModelSupervised, loss: LossSoftmax, minn: 0, bucket: 0},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			a, err := Parse(context.Background(), []string{"hornvecs", tt.command, "-input", "in.txt", "-output", "out"})
			require.NoError(t, err)
			assert.Equal(t, tt.model, a.Model)
			assert.Equal(t, tt.loss, a.Loss)
			assert.Equal(t, tt.minn, a.Minn)
			assert.Equal(t, tt.bucket, a.Bucket)
			assert.Equal(t, "in.txt", a.Input)
			assert.Equal(t, "out", a.Output)
		})
	}
}

func TestParseOptions(t *testing.T) {
	a, err := Parse(context.Background(), []string{
		"hornvecs", "skipgram",
		"-input", "in.txt", "-output", "out",
		"-dim", "10", "-lr", "0.25", "-saveOutput", "-wordNgrams", "2", "-maxn", "0",
		"-label", "__l__", "-loss", "hs",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, a.Dim)
	assert.InDelta(t, 0.25, a.LR, 1e-12)
	assert.True(t, a.SaveOutput)
	assert.Equal(t, 2, a.WordNgrams)
	assert.Equal(t, 2000000, a.Bucket, "word ngrams keep the hash buckets")
	assert.Equal(t, "__l__", a.Label)
	assert.Equal(t, LossHS, a.Loss)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{name: "missing command", argv: []string{"hornvecs"}},
		{name: "no dash", argv: []string{"hornvecs", "skipgram", "input", "x", "-output", "o"}},
		{name: "unknown", argv: []string{"hornvecs", "skipgram", "-input", "x", "-output", "o", "-nope", "1"}},
		{name: "missing value", argv: []string{"hornvecs", "skipgram", "-input", "x", "-output"}},
		{name: "not a number", argv: []string{"hornvecs", "skipgram", "-input", "x", "-output", "o", "-dim", "ten"}},
		{name: "empty output", argv: []string{"hornvecs", "skipgram", "-input", "x"}},
		{name: "empty input", argv: []string{"hornvecs", "cbow", "-output", "o"}},
		{name: "bad loss", argv: []string{"hornvecs", "cbow", "-input", "x", "-output", "o", "-loss", "l2"}},
		{name: "help is not an option", argv: []string{"hornvecs", "skipgram", "-input", "x", "-output", "o", "-h"}},
		{name: "trailing positional", argv: []string{"hornvecs", "skipgram", "-input", "x", "-output", "o", "extra"}},
		{name: "quantize retrain needs input", argv: []string{"hornvecs", "quantize", "-output", "o", "-retrain"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tt.argv)
			assert.Error(t, err)
		})
	}
}

func TestParseQuantizeOnlyNeedsOutput(t *testing.T) {
	a, err := Parse(context.Background(), []string{"hornvecs", "quantize", "-output", "model", "-qnorm", "-cutoff", "100", "-dsub", "4"})
	require.NoError(t, err)
	assert.Equal(t, "model", a.Output)
	assert.True(t, a.Qnorm)
	assert.Equal(t, 100, a.Cutoff)
	assert.Equal(t, 4, a.Dsub)
}

func TestDumpRoundTrip(t *testing.T) {
	orig, err := Parse(context.Background(), []string{
		"hornvecs", "cbow", "-input", "corpus.txt", "-output", "model",
		"-dim", "16", "-epoch", "9", "-t", "0.001", "-minn", "2", "-maxn", "4", "-saveOutput", "-qout",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, orig.Dump(&buf))

	path := filepath.Join(t.TempDir(), "args.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	for _, command := range []string{"skipgram", "supervised"} {
		back, err := Parse(context.Background(), []string{"hornvecs", command, "-config", path})
		require.NoError(t, err)
		assert.Equal(t, orig, back, "reloading via %s", command)
	}
}

func TestConfigExplicitOptionsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "args.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: a.txt\noutput: m\ndim: 7\nepoch: 3\n"), 0o644))

	for _, argv := range [][]string{
		{"hornvecs", "skipgram", "-config", path, "-dim", "9"},
		{"hornvecs", "skipgram", "-dim", "9", "-config", path},
	} {
		a, err := Parse(context.Background(), argv)
		require.NoError(t, err)
		assert.Equal(t, 9, a.Dim, "argv %q", argv)
		assert.Equal(t, 3, a.Epoch, "argv %q", argv)
		assert.Equal(t, "a.txt", a.Input, "argv %q", argv)
		assert.Equal(t, 0.05, a.LR, "argv %q", argv)
	}
}

func TestConfigMissingFile(t *testing.T) {
	_, err := Parse(context.Background(), []string{"hornvecs", "skipgram", "-config", filepath.Join(t.TempDir(), "none.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "args.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dimension: 7\n"), 0o644))

	_, err := Parse(context.Background(), []string{"hornvecs", "skipgram", "-config", path})
	assert.Error(t, err)
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	PrintHelp(&buf)
	out := buf.String()
	for _, want := range []string{
		groupBasic, groupDict, groupTrain, groupQuant, groupFile,
		"-input", "-dim", "[100]", "sampling threshold [0.0001]", "-qout", "-config",
	} {
		assert.True(t, strings.Contains(out, want), "help missing %q", want)
	}
	assert.Less(t, strings.Index(out, groupBasic), strings.Index(out, groupDict))
	assert.Less(t, strings.Index(out, groupQuant), strings.Index(out, groupFile))
	assert.NotContains(t, out, "whether output params should be saved [")
}
