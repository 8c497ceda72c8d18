package main

import (
	"context"
	"fmt"
)

// command is the closed set of hornvecs commands. Every value below
// numCommands must be handled by dispatch and printUsage.
type command int

const (
	cmdNone command = iota - 1
	cmdSupervised
	cmdSkipgram
	cmdCBOW
	cmdTest
	cmdQuantize
	cmdPredict
	cmdPredictProb
	cmdPrintWordVectors
	cmdPrintSentenceVectors
	cmdPrintNgrams
	cmdNN
	cmdAnalogies
	cmdDump
	numCommands
)

var commandNames = [numCommands]string{
	cmdSupervised:           "supervised",
	cmdSkipgram:             "skipgram",
	cmdCBOW:                 "cbow",
	cmdTest:                 "test",
	cmdQuantize:             "quantize",
	cmdPredict:              "predict",
	cmdPredictProb:          "predict-prob",
	cmdPrintWordVectors:     "print-word-vectors",
	cmdPrintSentenceVectors: "print-sentence-vectors",
	cmdPrintNgrams:          "print-ngrams",
	cmdNN:                   "nn",
	cmdAnalogies:            "analogies",
	cmdDump:                 "dump",
}

var commandSummaries = [numCommands]string{
	cmdSupervised:           "train a supervised classifier",
	cmdSkipgram:             "train a skipgram model",
	cmdCBOW:                 "train a cbow model",
	cmdTest:                 "evaluate a supervised classifier",
	cmdQuantize:             "quantize a model to reduce the memory usage",
	cmdPredict:              "predict most likely labels",
	cmdPredictProb:          "predict most likely labels with probabilities",
	cmdPrintWordVectors:     "print word vectors given a trained model",
	cmdPrintSentenceVectors: "print sentence vectors given a trained model",
	cmdPrintNgrams:          "print ngrams given a trained model and word",
	cmdNN:                   "query for nearest neighbors",
	cmdAnalogies:            "query for analogies",
	cmdDump:                 "dump arguments,dictionary,input/output vectors",
}

func (c command) String() string {
	if c < 0 || c >= numCommands {
		return "hornvecs"
	}
	return commandNames[c]
}

// parseCommand matches a command token exactly.
func parseCommand(name string) (command, bool) {
	for c := command(0); c < numCommands; c++ {
		if commandNames[c] == name {
			return c, true
		}
	}
	return cmdNone, false
}

// invocation is the full argument vector: program, command, positional args.
type invocation []string

func (a *app) dispatch(ctx context.Context, c command, inv invocation) error {
	switch c {
	case cmdSupervised, cmdSkipgram, cmdCBOW:
		return a.train(ctx, c, inv)
	case cmdTest:
		return a.test(ctx, inv)
	case cmdQuantize:
		return a.quantize(ctx, inv)
	case cmdPredict, cmdPredictProb:
		return a.predict(ctx, c, inv)
	case cmdPrintWordVectors:
		return a.printWordVectors(ctx, inv)
	case cmdPrintSentenceVectors:
		return a.printSentenceVectors(ctx, inv)
	case cmdPrintNgrams:
		return a.printNgrams(ctx, inv)
	case cmdNN:
		return a.nn(ctx, inv)
	case cmdAnalogies:
		return a.analogies(ctx, inv)
	case cmdDump:
		return a.dump(ctx, inv)
	}
	panic(fmt.Sprintf("hornvecs: unhandled command %d", int(c)))
}
