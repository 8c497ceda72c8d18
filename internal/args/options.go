package args

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

const (
	groupBasic = "The following arguments are mandatory:"
	groupDict  = "The following arguments for the dictionary are optional:"
	groupTrain = "The following arguments for training are optional:"
	groupQuant = "The following arguments for quantization are optional:"
	groupFile  = "Options can also be read from a file:"
)

func stringFlag(name, category, usage string, dst *string) cli.Flag {
	return &cli.StringFlag{Name: name, Category: category, Usage: usage, Value: *dst, Destination: dst}
}

func intFlag(name, category, usage string, dst *int) cli.Flag {
	return &cli.IntFlag{Name: name, Category: category, Usage: usage, Value: *dst, Destination: dst}
}

func floatFlag(name, category, usage string, dst *float64) cli.Flag {
	return &cli.Float64Flag{Name: name, Category: category, Usage: usage, Value: *dst, Destination: dst}
}

func boolFlag(name, category, usage string, dst *bool) cli.Flag {
	return &cli.BoolFlag{Name: name, Category: category, Usage: usage, Value: *dst, Destination: dst}
}

// flags binds every option to a field of a. The current values of a are the
// flag defaults. The -config path lands in config.
func flags(a *Args, config *string) []cli.Flag {
	return []cli.Flag{
		stringFlag("input", groupBasic, "training file path", &a.Input),
		stringFlag("output", groupBasic, "output file path", &a.Output),

		intFlag("minCount", groupDict, "minimal number of word occurences", &a.MinCount),
		intFlag("minCountLabel", groupDict, "minimal number of label occurences", &a.MinCountLabel),
		intFlag("wordNgrams", groupDict, "max length of word ngram", &a.WordNgrams),
		intFlag("bucket", groupDict, "number of buckets", &a.Bucket),
		intFlag("minn", groupDict, "min length of char ngram", &a.Minn),
		intFlag("maxn", groupDict, "max length of char ngram", &a.Maxn),
		floatFlag("t", groupDict, "sampling threshold", &a.T),
		stringFlag("label", groupDict, "labels prefix", &a.Label),

		floatFlag("lr", groupTrain, "learning rate", &a.LR),
		intFlag("lrUpdateRate", groupTrain, "change the rate of updates for the learning rate", &a.LRUpdateRate),
		intFlag("dim", groupTrain, "size of word vectors", &a.Dim),
		intFlag("ws", groupTrain, "size of the context window", &a.WS),
		intFlag("epoch", groupTrain, "number of epochs", &a.Epoch),
		intFlag("neg", groupTrain, "number of negatives sampled", &a.Neg),
		stringFlag("loss", groupTrain, "loss function {ns, hs, softmax}", &a.Loss),
		intFlag("thread", groupTrain, "number of threads", &a.Thread),
		stringFlag("pretrainedVectors", groupTrain, "pretrained word vectors for supervised learning", &a.PretrainedVectors),
		boolFlag("saveOutput", groupTrain, "whether output params should be saved", &a.SaveOutput),
		intFlag("verbose", groupTrain, "verbosity level", &a.Verbose),

		intFlag("cutoff", groupQuant, "number of words and ngrams to retain", &a.Cutoff),
		boolFlag("retrain", groupQuant, "finetune embeddings if a cutoff is applied", &a.Retrain),
		boolFlag("qnorm", groupQuant, "quantizing the norm separately", &a.Qnorm),
		boolFlag("qout", groupQuant, "quantizing the classifier", &a.Qout),
		intFlag("dsub", groupQuant, "size of each sub-vector", &a.Dsub),

		&cli.StringFlag{
			Name:        "config",
			Category:    groupFile,
			Usage:       "YAML file in the format printed by `dump <model> args`, overridden by explicit options",
			Destination: config,
		},
	}
}

// PrintHelp writes the option reference with the skipgram defaults, one
// block per flag category.
func PrintHelp(w io.Writer) {
	category := ""
	for _, f := range flags(Default(), new(string)) {
		var name, cat, usage, def string
		switch f := f.(type) {
		case *cli.StringFlag:
			name, cat, usage, def = f.Name, f.Category, f.Usage, f.Value
		case *cli.IntFlag:
			name, cat, usage, def = f.Name, f.Category, f.Usage, fmt.Sprint(f.Value)
		case *cli.Float64Flag:
			name, cat, usage, def = f.Name, f.Category, f.Usage, fmt.Sprint(f.Value)
		case *cli.BoolFlag:
			name, cat, usage = f.Name, f.Category, f.Usage
		}
		if cat != category {
			category = cat
			_, _ = fmt.Fprintf(w, "\n%s\n", category)
		}
		if def != "" {
			_, _ = fmt.Fprintf(w, "  -%-18s %s [%s]\n", name, usage, def)
		} else {
			_, _ = fmt.Fprintf(w, "  -%-18s %s\n", name, usage)
		}
	}
	_, _ = fmt.Fprintln(w)
}
