package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hornvecs/internal/engine"
	"github.com/samcharles93/hornvecs/internal/logger"
	"github.com/samcharles93/hornvecs/internal/modelstore"
	"github.com/samcharles93/hornvecs/internal/version"
)

const programName = "hornvecs"

// app carries the process streams and the engine factory for one
// invocation. Handlers never exit the process; they return an error that
// report turns into a diagnostic and an exit code.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	log       logger.Logger
	newEngine func(logger.Logger) engine.Engine
	lineEdit  bool
}

func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, cfgErr := loadConfig(configPath())
	a := &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		log:       newLogger(cfg, stderr),
		newEngine: defaultEngine,
		lineEdit:  cfg.lineEditEnabled(),
	}
	if cfgErr != nil {
		a.log.Warn("ignoring config file", "path", configPath(), "error", cfgErr)
	}
	return a.run(ctx, argv)
}

func defaultEngine(log logger.Logger) engine.Engine {
	return modelstore.New(log)
}

func (a *app) run(ctx context.Context, argv []string) int {
	if len(argv) == 0 {
		argv = []string{programName}
	}
	// the command is matched on the first token only, before cli gets to
	// see separators such as "--"
	if len(argv) > 1 {
		if _, ok := parseCommand(argv[1]); !ok {
			return a.report(&usageError{cmd: cmdNone})
		}
	}
	a.log.Debug("starting", "version", version.String(), "args", len(argv)-1)
	return a.report(a.root(argv[0]).Run(ctx, argv))
}

// load creates the single engine handle of an invocation and loads path
// into it.
func (a *app) load(ctx context.Context, path string) (engine.Engine, error) {
	eng := a.newEngine(logger.FromContext(ctx))
	if err := eng.LoadModel(ctx, path); err != nil {
		return nil, err
	}
	return eng, nil
}

// root builds the command tree. Subcommands skip flag parsing so that
// option tokens and negative thresholds reach the handlers untouched.
func (a *app) root(program string) *cli.Command {
	root := &cli.Command{
		Name:            programName,
		Usage:           "learn and query word representations and text classifiers",
		Version:         version.String(),
		HideHelp:        true,
		HideHelpCommand: true,
		HideVersion:     true,
		Reader:          a.stdin,
		Writer:          a.stdout,
		ErrWriter:       a.stderr,
		Action: func(context.Context, *cli.Command) error {
			return &usageError{cmd: cmdNone}
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{cmd: cmdNone, err: err}
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	for c := command(0); c < numCommands; c++ {
		root.Commands = append(root.Commands, &cli.Command{
			Name:            c.String(),
			Usage:           commandSummaries[c],
			HideHelp:        true,
			HideHelpCommand: true,
			SkipFlagParsing: true,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				inv := append(invocation{program, c.String()}, cmd.Args().Slice()...)
				ctx = logger.WithContext(ctx, a.log.With("command", c.String()))
				return a.dispatch(ctx, c, inv)
			},
		})
	}
	return root
}

func (a *app) queryWords() wordReader {
	if f, ok := a.stdin.(*os.File); ok && a.lineEdit && isTerminal(f) {
		if ed := newLineEditor(f, a.stdout); ed != nil {
			return ed
		}
	}
	return newWordScanner(a.stdin, a.stdout)
}
