package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/state"
	"github.com/jorge-barreto/pstate/internal/ux"
)

func stateCmd() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Read and update STATE.md",
		Commands: []*cli.Command{
			stateUpdateCmd(),
			statePatchCmd(),
			stateAddDecisionCmd(),
			stateAddBlockerCmd(),
			stateResolveBlockerCmd(),
			stateRecordSessionCmd(),
			stateSnapshotCmd(),
		},
	}
}

func stateUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Set one field",
		ArgsUsage: "<field> <value...>",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			field := strings.TrimSpace(cmd.Args().First())
			value := restArgs(cmd, 1)
			if field == "" || cmd.Args().Len() < 2 {
				return planerr.Usage("Usage: pstate state update <field> <value>")
			}
			var updated bool
			err := state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				updated = d.SetField(field, value)
				return nil
			})
			if err != nil {
				return err
			}
			if updated {
				e.log.Info("state updated", "op", "state.update", "field", field)
			}
			out := map[string]any{"updated": updated, "field": field, "value": value}
			if !updated {
				out["reason"] = fmt.Sprintf("field %q not found in STATE.md", field)
			}
			return e.emit(out, func(w io.Writer) {
				if updated {
					fmt.Fprintf(w, "%s %s = %s\n", ux.Pass(ux.IconPass), field, value)
				} else {
					fmt.Fprintf(w, "%s %s not found\n", ux.Warn(ux.IconWarn), field)
				}
			})
		}),
	}
}

// parsePatchArgs reads "--Field value" pairs and "field=value" words.
// Field names may contain spaces when quoted by the shell.
func parsePatchArgs(args []string) (map[string]string, error) {
	fields := map[string]string{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasPrefix(a, "--"):
			name := strings.TrimPrefix(a, "--")
			if k, v, ok := strings.Cut(name, "="); ok {
				fields[k] = v
				continue
			}
			if i+1 >= len(args) {
				return nil, planerr.Usage("missing value for --%s", name)
			}
			fields[name] = args[i+1]
			i++
		case strings.Contains(a, "="):
			k, v, _ := strings.Cut(a, "=")
			fields[strings.TrimSpace(k)] = v
		default:
			return nil, planerr.Usage("expected --field value or field=value, got %q", a)
		}
	}
	if len(fields) == 0 {
		return nil, planerr.Usage("Usage: pstate state patch --field value ...")
	}
	return fields, nil
}

func statePatchCmd() *cli.Command {
	return &cli.Command{
		Name:            "patch",
		Usage:           "Set several fields in one locked write",
		ArgsUsage:       "--<field> <value> ... | <field>=<value> ...",
		SkipFlagParsing: true,
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			fields, err := parsePatchArgs(cmd.Args().Slice())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(fields))
			for k := range fields {
				names = append(names, k)
			}
			sort.Strings(names)

			updated, failed := []string{}, []string{}
			err = state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				for _, name := range names {
					if d.SetField(name, fields[name]) {
						updated = append(updated, name)
					} else {
						failed = append(failed, name)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if len(updated) > 0 {
				e.log.Info("state patched", "op", "state.patch", "fields", updated)
			}
			out := map[string]any{"updated": updated, "failed": failed}
			return e.emit(out, func(w io.Writer) {
				for _, f := range updated {
					fmt.Fprintf(w, "%s %s\n", ux.Pass(ux.IconPass), f)
				}
				for _, f := range failed {
					fmt.Fprintf(w, "%s %s not found\n", ux.Warn(ux.IconWarn), f)
				}
			})
		}),
	}
}

func stateAddDecisionCmd() *cli.Command {
	return &cli.Command{
		Name:  "add-decision",
		Usage: "Record a decision",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "summary", Usage: "What was decided"},
			&cli.StringFlag{Name: "phase", Usage: "Phase the decision belongs to"},
			&cli.StringFlag{Name: "rationale", Usage: "Why"},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			summary := strings.TrimSpace(cmd.String("summary"))
			if summary == "" {
				return planerr.Usage("--summary required")
			}
			dec := state.Decision{
				Phase:     strings.TrimSpace(cmd.String("phase")),
				Summary:   summary,
				Rationale: strings.TrimSpace(cmd.String("rationale")),
			}
			err := state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				d.AddDecision(dec.Phase, dec.Summary, dec.Rationale)
				return nil
			})
			if err != nil {
				return err
			}
			e.log.Info("decision added", "op", "state.add-decision", "phase", dec.Phase)
			return e.emit(map[string]any{"added": true, "decision": dec}, func(w io.Writer) {
				fmt.Fprintf(w, "%s decision recorded\n", ux.Pass(ux.IconPass))
			})
		}),
	}
}

func stateAddBlockerCmd() *cli.Command {
	return &cli.Command{
		Name:  "add-blocker",
		Usage: "Record a blocker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "Blocker description"},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			text := strings.TrimSpace(cmd.String("text"))
			if text == "" {
				return planerr.Usage("--text required")
			}
			err := state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				d.AddBlocker(text)
				return nil
			})
			if err != nil {
				return err
			}
			e.log.Info("blocker added", "op", "state.add-blocker")
			return e.emit(map[string]any{"added": true, "blocker": text}, func(w io.Writer) {
				fmt.Fprintf(w, "%s blocker recorded\n", ux.Pass(ux.IconPass))
			})
		}),
	}
}

func stateResolveBlockerCmd() *cli.Command {
	return &cli.Command{
		Name:  "resolve-blocker",
		Usage: "Remove blockers containing the given text",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Usage: "Text to match (case-insensitive)"},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			text := strings.TrimSpace(cmd.String("text"))
			if text == "" {
				return planerr.Usage("--text required")
			}
			var removed int
			err := state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				removed = d.ResolveBlocker(text)
				return nil
			})
			if err != nil {
				return err
			}
			if removed > 0 {
				e.log.Info("blocker resolved", "op", "state.resolve-blocker", "removed", removed)
			}
			out := map[string]any{"resolved": removed > 0, "blocker": text, "removed": removed}
			return e.emit(out, func(w io.Writer) {
				fmt.Fprintf(w, "%d blockers resolved\n", removed)
			})
		}),
	}
}

func stateRecordSessionCmd() *cli.Command {
	return &cli.Command{
		Name:  "record-session",
		Usage: "Stamp the session continuity fields",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "stopped-at", Usage: "Where work stopped"},
			&cli.StringFlag{Name: "resume-file", Usage: "File to resume from"},
		},
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			var updated []string
			err := state.Update(e.locks, e.store.Dir, func(d *state.Document) error {
				updated = d.RecordSession(e.now(), cmd.String("stopped-at"), cmd.String("resume-file"))
				return nil
			})
			if err != nil {
				return err
			}
			e.log.Info("session recorded", "op", "state.record-session")
			return e.emit(map[string]any{"recorded": true, "updated": updated}, func(w io.Writer) {
				fmt.Fprintf(w, "%s session recorded (%s)\n", ux.Pass(ux.IconPass), strings.Join(updated, ", "))
			})
		}),
	}
}

func stateSnapshotCmd() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Print STATE.md as structured data",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			d, err := state.Load(e.store.Dir)
			if err != nil {
				return err
			}
			snap := d.Snapshot()
			return e.emit(snap, func(w io.Writer) {
				ux.Table(w, [][2]string{
					{"phase", deref(snap.CurrentPhase)},
					{"name", deref(snap.CurrentPhaseName)},
					{"plan", deref(snap.CurrentPlan)},
					{"status", deref(snap.Status)},
					{"activity", deref(snap.LastActivity)},
				})
				fmt.Fprintf(w, "  %d decisions, %d blockers\n", len(snap.Decisions), len(snap.Blockers))
			})
		}),
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
