package main

import (
	"context"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/progress"
	"github.com/jorge-barreto/pstate/internal/ux"
)

func progressCmd() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Per-plan task progress snapshots",
		Commands: []*cli.Command{
			{
				Name:      "write",
				Usage:     "Record the last completed task of a plan",
				ArgsUsage: "<plan-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "task", Usage: "Last completed task"},
					&cli.IntFlag{Name: "total", Usage: "Tasks in the plan"},
					&cli.StringFlag{Name: "commit", Usage: "Commit of the last task"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					const usage = "progress write <plan-id> --task N --total N [--commit SHA]"
					id, err := requireArg(cmd, 0, usage)
					if err != nil {
						return err
					}
					if !cmd.IsSet("task") || !cmd.IsSet("total") {
						return planerr.Usage("Usage: pstate %s", usage)
					}
					snap, err := progress.New(e.store.Dir).Write(id, cmd.Int("task"), cmd.Int("total"), cmd.String("commit"))
					if err != nil {
						return err
					}
					e.log.Debug("progress written", "op", "progress.write", "plan", id, "task", snap.LastCompletedTask)
					return e.emit(snap, func(w io.Writer) { fmt.Fprintln(w, snap.Line()) })
				}),
			},
			{
				Name:      "read",
				Usage:     "Print a plan's snapshot",
				ArgsUsage: "<plan-id>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					id, err := requireArg(cmd, 0, "progress read <plan-id>")
					if err != nil {
						return err
					}
					snap, ok, err := progress.New(e.store.Dir).Read(id)
					if err != nil {
						return err
					}
					if !ok {
						return e.emit(map[string]any{"plan_id": id, "exists": false}, func(w io.Writer) {
							fmt.Fprintf(w, "No progress for %s\n", id)
						})
					}
					out := struct {
						Exists bool `json:"exists"`
						progress.Snapshot
					}{true, snap}
					return e.emit(out, func(w io.Writer) { fmt.Fprintln(w, snap.Line()) })
				}),
			},
			{
				Name:      "delete",
				Usage:     "Remove a plan's snapshot",
				ArgsUsage: "<plan-id>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					id, err := requireArg(cmd, 0, "progress delete <plan-id>")
					if err != nil {
						return err
					}
					existed, err := progress.New(e.store.Dir).Delete(id)
					if err != nil {
						return err
					}
					e.log.Debug("progress deleted", "op", "progress.delete", "plan", id, "existed", existed)
					out := map[string]any{"plan_id": id, "deleted": true, "existed": existed}
					return e.emit(out, func(w io.Writer) { fmt.Fprintf(w, "%s cleared\n", id) })
				}),
			},
			{
				Name:  "list",
				Usage: "List every snapshot",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					snaps, err := progress.New(e.store.Dir).List()
					if err != nil {
						return err
					}
					if snaps == nil {
						snaps = []progress.Snapshot{}
					}
					return e.emit(map[string]any{"progress": snaps}, func(w io.Writer) {
						if len(snaps) == 0 {
							fmt.Fprintln(w, "No progress snapshots")
							return
						}
						for _, s := range snaps {
							fmt.Fprintln(w, s.Line())
						}
					})
				}),
			},
			{
				Name:  "check-orphaned",
				Usage: "List snapshots older than progress.orphan_after",
				Flags: []cli.Flag{minutesFlag()},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					after, err := threshold(cmd, e.cfg.Progress.OrphanAfter.Duration)
					if err != nil {
						return err
					}
					orphans, err := progress.New(e.store.Dir).CheckOrphaned(after)
					if err != nil {
						return err
					}
					if orphans == nil {
						orphans = []progress.Orphan{}
					}
					return e.emit(map[string]any{"orphaned": orphans}, func(w io.Writer) {
						if len(orphans) == 0 {
							fmt.Fprintln(w, "No orphaned progress")
							return
						}
						for _, o := range orphans {
							fmt.Fprintf(w, "%s %s (%d minutes old)\n", ux.Warn(ux.IconWarn), o.PlanID, o.AgeMinutes)
						}
					})
				}),
			},
		},
	}
}
