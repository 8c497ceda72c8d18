package main

import (
	"strconv"
)

const (
	defaultEvalK  = 1
	defaultQueryK = 10
)

// evalOptions are the positional arguments of test, predict and
// predict-prob: <model> <data> [<k>] [<th>].
type evalOptions struct {
	model     string
	data      string
	k         int
	threshold float32
}

func parseEvalOptions(c command, inv invocation) (evalOptions, error) {
	if len(inv) < 4 || len(inv) > 6 {
		return evalOptions{}, &usageError{cmd: c}
	}
	o := evalOptions{model: inv[2], data: inv[3], k: defaultEvalK}
	if len(inv) > 4 {
		k, err := parseK(c, inv[4])
		if err != nil {
			return evalOptions{}, err
		}
		o.k = k
	}
	if len(inv) == 6 {
		th, err := parseThreshold(c, inv[5])
		if err != nil {
			return evalOptions{}, err
		}
		o.threshold = th
	}
	return o, nil
}

// parseQueryOptions handles <model> [<k>] for nn and analogies.
func parseQueryOptions(c command, inv invocation) (string, int, error) {
	switch len(inv) {
	case 3:
		return inv[2], defaultQueryK, nil
	case 4:
		k, err := parseK(c, inv[3])
		if err != nil {
			return "", 0, err
		}
		return inv[2], k, nil
	}
	return "", 0, &usageError{cmd: c}
}

func parseK(c command, s string) (int, error) {
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, &parseError{cmd: c, name: "k", value: s, err: err}
	}
	if k < 1 {
		return 0, &parseError{cmd: c, name: "k", value: s, err: errKTooSmall}
	}
	return k, nil
}

// parseThreshold accepts any float32, negative values included.
func parseThreshold(c command, s string) (float32, error) {
	th, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, &parseError{cmd: c, name: "threshold", value: s, err: err}
	}
	return float32(th), nil
}
