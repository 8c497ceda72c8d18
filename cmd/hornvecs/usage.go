package main

import (
	"fmt"
	"io"

	"github.com/samcharles93/hornvecs/internal/args"
)

// globalOrder is the listing order of the top-level usage text.
var globalOrder = []command{
	cmdSupervised,
	cmdQuantize,
	cmdTest,
	cmdPredict,
	cmdPredictProb,
	cmdSkipgram,
	cmdCBOW,
	cmdPrintWordVectors,
	cmdPrintSentenceVectors,
	cmdPrintNgrams,
	cmdNN,
	cmdAnalogies,
	cmdDump,
}

const modelArgHelp = "  <model>      model filename\n"

const evalArgsHelp = modelArgHelp +
	"  <test-data>  test data filename (if -, read from stdin)\n" +
	"  <k>          (optional; 1 by default) predict top k labels\n" +
	"  <th>         (optional; 0.0 by default) probability threshold\n"

const queryArgsHelp = modelArgHelp +
	"  <k>          (optional; 10 by default) predict top k labels\n"

const supervisedNote = "note: training a classifier is not available in hornvecs; supervised always fails\n" +
	"after checking its options. quantize, test and predict work on existing classifiers.\n"

const assembleNote = "note: gradient training is not available in hornvecs; skipgram and cbow build a\n" +
	"model from -pretrainedVectors, keeping the words of -input seen at least -minCount times.\n"

// printUsage writes the usage block for c. cmdNone selects the
// top-level command listing.
func printUsage(w io.Writer, c command) {
	switch c {
	case cmdSupervised:
		fmt.Fprint(w, supervisedNote)
		args.PrintHelp(w)
	case cmdSkipgram, cmdCBOW:
		fmt.Fprint(w, assembleNote)
		args.PrintHelp(w)
	case cmdQuantize:
		fmt.Fprintln(w, "usage: hornvecs quantize <args>")
		args.PrintHelp(w)
	case cmdTest:
		fmt.Fprintf(w, "usage: hornvecs test <model> <test-data> [<k>] [<th>]\n\n%s\n", evalArgsHelp)
	case cmdPredict, cmdPredictProb:
		fmt.Fprintf(w, "usage: hornvecs predict[-prob] <model> <test-data> [<k>] [<th>]\n\n%s\n", evalArgsHelp)
	case cmdPrintWordVectors:
		fmt.Fprintf(w, "usage: hornvecs print-word-vectors <model>\n\n%s\n", modelArgHelp)
	case cmdPrintSentenceVectors:
		fmt.Fprintf(w, "usage: hornvecs print-sentence-vectors <model>\n\n%s\n", modelArgHelp)
	case cmdPrintNgrams:
		fmt.Fprintf(w, "usage: hornvecs print-ngrams <model> <word>\n\n%s  <word>       word to print\n\n", modelArgHelp)
	case cmdNN:
		fmt.Fprintf(w, "usage: hornvecs nn <model> <k>\n\n%s\n", queryArgsHelp)
	case cmdAnalogies:
		fmt.Fprintf(w, "usage: hornvecs analogies <model> <k>\n\n%s\n", queryArgsHelp)
	case cmdDump:
		fmt.Fprintf(w, "usage: hornvecs dump <model> <option>\n\n%s  <option>     option from args,dict,input,output\n", modelArgHelp)
	default:
		printGlobalUsage(w)
	}
}

func printGlobalUsage(w io.Writer) {
	fmt.Fprint(w, "usage: hornvecs <command> <args>\n\n")
	fmt.Fprint(w, "The commands supported by hornvecs are:\n\n")
	for _, c := range globalOrder {
		fmt.Fprintf(w, "  %-22s  %s\n", c, commandSummaries[c])
	}
	fmt.Fprintln(w)
}
