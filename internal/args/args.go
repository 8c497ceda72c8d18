// Package args parses and prints the training and quantization options of a
// hornvecs model.
package args

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Model kinds.
const (
	ModelCBOW       = "cbow"
	ModelSkipgram   = "sg"
	ModelSupervised = "sup"
)

// Loss functions.
const (
	LossHS      = "hs"
	LossNS      = "ns"
	LossSoftmax = "softmax"
)

var ErrEmptyPath = errors.New("empty input or output path")

// Args holds every option a model is trained or quantized with. The same
// struct is persisted inside the model file and printed by `dump <model> args`.
type Args struct {
	Input             string  `yaml:"input" json:"input"`
	Output            string  `yaml:"output" json:"output"`
	LR                float64 `yaml:"lr" json:"lr"`
	LRUpdateRate      int     `yaml:"lr_update_rate" json:"lr_update_rate"`
	Dim               int     `yaml:"dim" json:"dim"`
	WS                int     `yaml:"ws" json:"ws"`
	Epoch             int     `yaml:"epoch" json:"epoch"`
	MinCount          int     `yaml:"min_count" json:"min_count"`
	MinCountLabel     int     `yaml:"min_count_label" json:"min_count_label"`
	Neg               int     `yaml:"neg" json:"neg"`
	WordNgrams        int     `yaml:"word_ngrams" json:"word_ngrams"`
	Loss              string  `yaml:"loss" json:"loss"`
	Model             string  `yaml:"model" json:"model"`
	Bucket            int     `yaml:"bucket" json:"bucket"`
	Minn              int     `yaml:"minn" json:"minn"`
	Maxn              int     `yaml:"maxn" json:"maxn"`
	Thread            int     `yaml:"thread" json:"thread"`
	T                 float64 `yaml:"t" json:"t"`
	Label             string  `yaml:"label" json:"label"`
	Verbose           int     `yaml:"verbose" json:"verbose"`
	PretrainedVectors string  `yaml:"pretrained_vectors" json:"pretrained_vectors"`
	SaveOutput        bool    `yaml:"save_output" json:"save_output"`

	Qout    bool `yaml:"qout" json:"qout"`
	Retrain bool `yaml:"retrain" json:"retrain"`
	Qnorm   bool `yaml:"qnorm" json:"qnorm"`
	Cutoff  int  `yaml:"cutoff" json:"cutoff"`
	Dsub    int  `yaml:"dsub" json:"dsub"`
}

// Default returns the skipgram defaults.
func Default() *Args {
	return &Args{
		LR:           0.05,
		LRUpdateRate: 100,
		Dim:          100,
		WS:           5,
		Epoch:        5,
		MinCount:     5,
		Neg:          5,
		WordNgrams:   1,
		Loss:         LossNS,
		Model:        ModelSkipgram,
		Bucket:       2000000,
		Minn:         3,
		Maxn:         6,
		Thread:       12,
		T:            1e-4,
		Label:        "__label__",
		Verbose:      2,
		Dsub:         2,
	}
}

// defaultsFor returns Default adjusted for the model kind command trains.
func defaultsFor(command string) *Args {
	a := Default()
	switch command {
	case "supervised":
		a.Model = ModelSupervised
		a.Loss = LossSoftmax
		a.MinCount = 1
		a.Minn = 0
		a.Maxn = 0
		a.LR = 0.1
	case "cbow":
		a.Model = ModelCBOW
	}
	return a
}

// newCommand returns a command named after the training command whose flags
// write into a.
func newCommand(command string, a *Args, config *string) *cli.Command {
	return &cli.Command{
		Name:            command,
		Flags:           flags(a, config),
		HideHelp:        true,
		HideHelpCommand: true,
		HideVersion:     true,
		Writer:          io.Discard,
		ErrWriter:       io.Discard,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 {
				return fmt.Errorf("args: provided argument without a dash: %q", cmd.Args().First())
			}
			return nil
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return fmt.Errorf("args: %w", err)
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// Parse builds Args from a full invocation. argv[0] is the program name and
// argv[1] the command; the command selects the model kind and its defaults.
// A -config file replaces the defaults and explicit options override it.
func Parse(ctx context.Context, argv []string) (*Args, error) {
	if len(argv) < 2 {
		return nil, errors.New("args: missing command")
	}
	command := argv[1]

	a := defaultsFor(command)
	var config string
	if err := newCommand(command, a, &config).Run(ctx, argv[1:]); err != nil {
		return nil, err
	}
	if config != "" {
		// parse again on top of the file so explicit options win
		a = defaultsFor(command)
		if err := a.LoadConfig(config); err != nil {
			return nil, err
		}
		if err := newCommand(command, a, &config).Run(ctx, argv[1:]); err != nil {
			return nil, err
		}
	}

	if err := a.validate(command); err != nil {
		return nil, err
	}
	if a.WordNgrams <= 1 && a.Maxn == 0 {
		a.Bucket = 0
	}
	return a, nil
}

func (a *Args) validate(command string) error {
	if a.Output == "" {
		return ErrEmptyPath
	}
	needsInput := command != "quantize" || a.Retrain
	if needsInput && a.Input == "" {
		return ErrEmptyPath
	}
	switch a.Model {
	case ModelCBOW, ModelSkipgram, ModelSupervised:
	default:
		return fmt.Errorf("args: unknown model %q", a.Model)
	}
	switch a.Loss {
	case LossHS, LossNS, LossSoftmax:
	default:
		return fmt.Errorf("args: unknown loss %q", a.Loss)
	}
	if a.Dim <= 0 {
		return fmt.Errorf("args: dim must be positive, got %d", a.Dim)
	}
	if a.Dsub <= 0 {
		return fmt.Errorf("args: dsub must be positive, got %d", a.Dsub)
	}
	return nil
}

// LoadConfig merges a YAML options document into a. Keys that are absent
// leave the current value alone; unknown keys are an error.
func (a *Args) LoadConfig(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(a); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Dump writes the options as a YAML document readable by LoadConfig.
func (a *Args) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return err
	}
	return enc.Close()
}
