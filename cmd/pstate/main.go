package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/config"
	"github.com/jorge-barreto/pstate/internal/eventlog"
	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/store"
	"github.com/jorge-barreto/pstate/internal/ux"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		ux.Error(os.Stderr, err)
		os.Exit(planerr.ExitCode(err))
	}
}

func newApp() *cli.Command {
	app := &cli.Command{
		Name:        "pstate",
		Usage:       "Planning state engine for .planning/ projects",
		Description: "Run 'pstate docs' for documentation on the planning layout, phases, state, signals and locks.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cwd", Usage: "Project directory (default: working directory)"},
			&cli.BoolFlag{Name: "raw", Usage: "Print human-readable text instead of JSON"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug output to stderr"},
		},
		Commands: []*cli.Command{
			initCmd(),
			phaseCmd(),
			phasesCmd(),
			roadmapCmd(),
			milestoneCmd(),
			stateCmd(),
			signalCmd(),
			progressCmd(),
			frontmatterCmd(),
			summaryExtractCmd(),
			historyDigestCmd(),
			sessionCmd(),
			validateCmd(),
			healthCmd(),
			docsCmd(),
		},
	}
	setUsageErrors(app)
	return app
}

// setUsageErrors makes flag parse failures exit with the usage status at
// every level of the tree.
func setUsageErrors(cmd *cli.Command) {
	cmd.OnUsageError = func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
		return planerr.Usage("%v", err)
	}
	for _, sub := range cmd.Commands {
		setUsageErrors(sub)
	}
}

// env is everything a command needs once the planning store is found.
type env struct {
	store *store.Store
	cfg   *config.Config
	locks *lock.Manager
	log   *eventlog.Log
	raw   bool
	out   io.Writer
}

func workDir(cmd *cli.Command) (string, error) {
	if dir := cmd.String("cwd"); dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

func openEnv(cmd *cli.Command) (*env, error) {
	dir, err := workDir(cmd)
	if err != nil {
		return nil, err
	}
	s, err := store.Find(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	e := &env{
		store: s,
		cfg:   cfg,
		locks: &lock.Manager{StaleAfter: cfg.Locks.StaleAfter.Duration},
		raw:   cmd.Bool("raw"),
		out:   stdout,
	}
	opts := eventlog.Options{Verbose: cmd.Bool("verbose"), MaxEntries: cfg.Logging.MaxEntries, Locks: e.locks}
	if cfg.LoggingEnabled() {
		opts.Dir = s.LogsDir()
	}
	e.log = eventlog.Open(opts)
	e.log.Debug("store opened", "dir", s.Dir, "config", cfg.Source)
	return e, nil
}

// withEnv wraps an action that needs the planning store.
func withEnv(fn func(ctx context.Context, cmd *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.log.Close()
		return fn(ctx, cmd, e)
	}
}

// emit prints v as JSON, or calls raw when --raw is set.
func (e *env) emit(v any, raw func(w io.Writer)) error {
	if e.raw && raw != nil {
		raw(e.out)
		return nil
	}
	return ux.JSON(e.out, v)
}

func (e *env) now() time.Time { return time.Now() }

func requireArg(cmd *cli.Command, i int, usage string) (string, error) {
	v := strings.TrimSpace(cmd.Args().Get(i))
	if v == "" {
		return "", planerr.Usage("Usage: pstate %s", usage)
	}
	return v, nil
}

func phaseArg(cmd *cli.Command, i int, usage string) (phase.Number, string, error) {
	v, err := requireArg(cmd, i, usage)
	if err != nil {
		return phase.Number{}, "", err
	}
	n, err := phase.ParseNumber(v)
	if err != nil {
		return phase.Number{}, "", planerr.Usage("invalid phase number %q", v)
	}
	return n, v, nil
}

func minutesFlag() cli.Flag {
	return &cli.IntFlag{Name: "minutes", Usage: "Age threshold in minutes (overrides config)"}
}

// threshold is --minutes when given, otherwise the configured default.
func threshold(cmd *cli.Command, def time.Duration) (time.Duration, error) {
	if !cmd.IsSet("minutes") {
		return def, nil
	}
	m := cmd.Int("minutes")
	if m < 0 {
		return 0, planerr.Usage("--minutes must not be negative")
	}
	return time.Duration(m) * time.Minute, nil
}

// restArgs joins the positional arguments from i on.
func restArgs(cmd *cli.Command, i int) string {
	args := cmd.Args().Slice()
	if i >= len(args) {
		return ""
	}
	return strings.TrimSpace(strings.Join(args[i:], " "))
}
