package main

import (
	"context"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/progress"
	"github.com/jorge-barreto/pstate/internal/signal"
	"github.com/jorge-barreto/pstate/internal/ux"
)

func signalCmd() *cli.Command {
	return &cli.Command{
		Name:  "signal",
		Usage: "Coordination flags (.planning/.<name>)",
		Commands: []*cli.Command{
			{
				Name:      "write",
				Usage:     "Set a signal",
				ArgsUsage: "<name> <value...>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					name, err := requireArg(cmd, 0, "signal write <name> <value>")
					if err != nil {
						return err
					}
					value := restArgs(cmd, 1)
					if value == "" {
						return planerr.Usage("Usage: pstate signal write <name> <value>")
					}
					if err := signal.New(e.store.Dir).Write(name, value); err != nil {
						return err
					}
					e.log.Debug("signal written", "op", "signal.write", "signal", name)
					return e.emit(map[string]any{"signal": name, "value": value, "written": true}, func(w io.Writer) {
						fmt.Fprintf(w, "%s=%s\n", name, value)
					})
				}),
			},
			{
				Name:      "read",
				Usage:     "Print a signal's value",
				ArgsUsage: "<name>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					name, err := requireArg(cmd, 0, "signal read <name>")
					if err != nil {
						return err
					}
					v, err := signal.New(e.store.Dir).Read(name)
					if err != nil {
						return err
					}
					return e.emit(v, func(w io.Writer) {
						if v.Exists {
							fmt.Fprintln(w, v.Value)
						}
					})
				}),
			},
			{
				Name:      "delete",
				Usage:     "Clear a signal (succeeds when it is not set)",
				ArgsUsage: "<name>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					name, err := requireArg(cmd, 0, "signal delete <name>")
					if err != nil {
						return err
					}
					if err := signal.New(e.store.Dir).Delete(name); err != nil {
						return err
					}
					e.log.Debug("signal deleted", "op", "signal.delete", "signal", name)
					return e.emit(map[string]any{"signal": name, "deleted": true}, func(w io.Writer) {
						fmt.Fprintf(w, "%s cleared\n", name)
					})
				}),
			},
			{
				Name:  "list",
				Usage: "List the signals that are set",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					entries, err := signal.New(e.store.Dir).List()
					if err != nil {
						return err
					}
					if entries == nil {
						entries = []signal.Entry{}
					}
					return e.emit(map[string]any{"signals": entries}, func(w io.Writer) {
						if len(entries) == 0 {
							fmt.Fprintln(w, "No active signals")
							return
						}
						rows := make([][2]string, 0, len(entries))
						for _, s := range entries {
							rows = append(rows, [2]string{s.Name, fmt.Sprintf("%s %s", s.Value, ux.Muted(fmt.Sprintf("(%dm)", s.AgeMinutes)))})
						}
						ux.Table(w, rows)
					})
				}),
			},
			{
				Name:  "cleanup",
				Usage: "Remove every signal and hook tracker",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					n, err := signal.New(e.store.Dir).Cleanup()
					if err != nil {
						return err
					}
					e.log.Info("signals cleaned", "op", "signal.cleanup", "removed", n)
					return e.emit(map[string]any{"removed": n}, func(w io.Writer) {
						fmt.Fprintf(w, "%d signals removed\n", n)
					})
				}),
			},
			{
				Name:  "check-stale",
				Usage: "List signals older than signals.stale_after",
				Flags: []cli.Flag{minutesFlag()},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					after, err := threshold(cmd, e.cfg.Signals.StaleAfter.Duration)
					if err != nil {
						return err
					}
					stale, err := signal.New(e.store.Dir).CheckStale(after)
					if err != nil {
						return err
					}
					if stale == nil {
						stale = []signal.Stale{}
					}
					return e.emit(map[string]any{"stale": stale}, func(w io.Writer) {
						if len(stale) == 0 {
							fmt.Fprintln(w, "No stale signals")
							return
						}
						for _, s := range stale {
							fmt.Fprintf(w, "%s %s (%d minutes old)\n", ux.Warn(ux.IconWarn), s.Name, s.AgeMinutes)
						}
					})
				}),
			},
		},
	}
}

func sessionCmd() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Session start and end housekeeping",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Fold orphaned progress snapshots into STATE.md",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					rec, err := progress.New(e.store.Dir).Recover(e.locks, e.cfg.Progress.OrphanAfter.Duration)
					if err != nil {
						return err
					}
					e.log.Info("session started", "op", "session.start", "recovered", len(rec.Recovered))
					return e.emit(sessionOut{Recovered: rec.Recovered, StateUpdated: rec.StateUpdated}, func(w io.Writer) {
						renderSession(w, 0, rec)
					})
				}),
			},
			{
				Name:  "end",
				Usage: "Clear signals and fold every progress snapshot into STATE.md",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					removed, err := signal.New(e.store.Dir).Cleanup()
					if err != nil {
						return err
					}
					rec, err := progress.New(e.store.Dir).Recover(e.locks, 0)
					if err != nil {
						return err
					}
					e.log.Info("session ended", "op", "session.end", "signals_removed", removed, "recovered", len(rec.Recovered))
					out := sessionOut{SignalsRemoved: &removed, Recovered: rec.Recovered, StateUpdated: rec.StateUpdated}
					return e.emit(out, func(w io.Writer) { renderSession(w, removed, rec) })
				}),
			},
		},
	}
}

type sessionOut struct {
	SignalsRemoved *int     `json:"signals_removed,omitempty"`
	Recovered      []string `json:"recovered"`
	StateUpdated   bool     `json:"state_updated"`
}

func renderSession(w io.Writer, removed int, rec progress.Recovery) {
	if removed > 0 {
		fmt.Fprintf(w, "%d signals removed\n", removed)
	}
	if len(rec.Recovered) == 0 {
		fmt.Fprintln(w, "No orphaned progress")
		return
	}
	fmt.Fprintf(w, "Recovered %d progress snapshots:\n", len(rec.Recovered))
	ux.List(w, rec.Recovered)
}
