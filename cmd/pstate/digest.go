package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/digest"
	"github.com/jorge-barreto/pstate/internal/lifecycle"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/ux"
)

func summaryExtractCmd() *cli.Command {
	return &cli.Command{
		Name:      "summary-extract",
		Usage:     "Extract one-liner, key files, tech and decisions from a SUMMARY.md",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fields", Usage: "Comma-separated subset: " + strings.Join(digest.SummaryFields, ",")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg, err := requireArg(cmd, 0, "summary-extract <file> [--fields a,b]")
			if err != nil {
				return err
			}
			path := arg
			if !filepath.IsAbs(path) {
				dir, err := workDir(cmd)
				if err != nil {
					return err
				}
				path = filepath.Join(dir, path)
			}
			s, err := digest.ExtractSummary(path, arg)
			if err != nil {
				return err
			}
			var names []string
			if v := cmd.String("fields"); v != "" {
				names = strings.Split(v, ",")
			}
			return output(cmd, s.Select(names...), func(w io.Writer) {
				if s.Error != "" {
					fmt.Fprintf(w, "%s %s: %s\n", ux.Fail(ux.IconFail), arg, s.Error)
					return
				}
				if s.OneLiner != nil {
					fmt.Fprintln(w, *s.OneLiner)
				}
				for _, d := range s.Decisions {
					fmt.Fprintf(w, "  - %s\n", d.Summary)
				}
			})
		},
	}
}

func historyDigestCmd() *cli.Command {
	return &cli.Command{
		Name:  "history-digest",
		Usage: "Merge the frontmatter of every SUMMARY.md into one digest",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			h, err := digest.CollectHistory(e.store)
			if err != nil {
				return err
			}
			return e.emit(h, func(w io.Writer) {
				keys := make([]string, 0, len(h.Phases))
				for k := range h.Phases {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					p := h.Phases[k]
					fmt.Fprintf(w, "%s %s\n", ux.Header("Phase "+k), p.Name)
					ux.List(w, p.Provides)
				}
				if len(h.TechStack) > 0 {
					fmt.Fprintf(w, "%s %s\n", ux.Bold("Tech:"), strings.Join(h.TechStack, ", "))
				}
			})
		}),
	}
}

func milestoneCmd() *cli.Command {
	return &cli.Command{
		Name:  "milestone",
		Usage: "Close out a milestone",
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Usage:     "Archive ROADMAP.md and REQUIREMENTS.md and record the milestone",
				ArgsUsage: "<version>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Milestone name"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					version, err := requireArg(cmd, 0, "milestone complete <version> [--name name]")
					if err != nil {
						return err
					}
					// Unquoted multi-word names spill into positional args.
					name := strings.TrimSpace(cmd.String("name") + " " + restArgs(cmd, 1))
					m, err := lifecycle.New(e.store, e.locks, e.log.Logger).CompleteMilestone(version, name)
					if err != nil {
						return err
					}
					return e.emit(m, func(w io.Writer) {
						fmt.Fprintf(w, "%s milestone %s complete (%d phases, %d plans)\n",
							ux.Pass(ux.IconPass), m.Version, m.Phases, m.Plans)
					})
				}),
			},
		},
	}
}

func planIndexCmd() *cli.Command {
	return &cli.Command{
		Name:      "plan-index",
		Usage:     "List a phase's plans grouped by wave",
		ArgsUsage: "<phase>",
		Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
			n, _, err := phaseArg(cmd, 0, "phase plan-index <phase>")
			if err != nil {
				return err
			}
			idx, err := digest.IndexPlans(e.store, n)
			if err != nil {
				return err
			}
			return e.emit(idx, func(w io.Writer) {
				if idx.Error != "" {
					fmt.Fprintf(w, "%s phase %s: %s\n", ux.Fail(ux.IconFail), n, idx.Error)
					return
				}
				waves := make([]string, 0, len(idx.Waves))
				for k := range idx.Waves {
					waves = append(waves, k)
				}
				sort.Slice(waves, func(i, j int) bool {
					if len(waves[i]) != len(waves[j]) {
						return len(waves[i]) < len(waves[j])
					}
					return waves[i] < waves[j]
				})
				for _, k := range waves {
					fmt.Fprintf(w, "%s %s\n", ux.Bold("Wave "+k+":"), strings.Join(idx.Waves[k], ", "))
				}
			})
		}),
	}
}

func progressFormat(cmd *cli.Command) (string, error) {
	f := cmd.String("format")
	switch f {
	case "", "json":
		return "json", nil
	case "table", "bar":
		return f, nil
	}
	return "", planerr.Usage("unknown format %q (json, table or bar)", f)
}
