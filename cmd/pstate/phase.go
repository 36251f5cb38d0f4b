package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/analyze"
	"github.com/jorge-barreto/pstate/internal/lifecycle"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/ux"
)

func phaseCmd() *cli.Command {
	return &cli.Command{
		Name:  "phase",
		Usage: "Add, insert, remove and complete roadmap phases",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Append a phase after the last one",
				ArgsUsage: "<description...>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					desc := restArgs(cmd, 0)
					if desc == "" {
						return planerr.Usage("Usage: pstate phase add <description>")
					}
					added, err := lifecycle.New(e.store, e.locks, e.log.Logger).Add(desc)
					if err != nil {
						return err
					}
					out := struct {
						PhaseNumber int    `json:"phase_number"`
						Padded      string `json:"padded"`
						lifecycle.Added
					}{added.Number.Major, added.Number.Padded(), added}
					return e.emit(out, func(w io.Writer) {
						fmt.Fprintln(w, added.Number.String())
					})
				}),
			},
			{
				Name:      "insert",
				Usage:     "Insert a decimal phase after an existing one",
				ArgsUsage: "<after> <description...>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					base, raw, err := phaseArg(cmd, 0, "phase insert <after> <description>")
					if err != nil {
						return err
					}
					desc := restArgs(cmd, 1)
					if desc == "" {
						return planerr.Usage("Usage: pstate phase insert <after> <description>")
					}
					added, err := lifecycle.New(e.store, e.locks, e.log.Logger).Insert(base, desc)
					if err != nil {
						return err
					}
					out := struct {
						PhaseNumber string `json:"phase_number"`
						AfterPhase  string `json:"after_phase"`
						lifecycle.Added
					}{added.Number.Padded(), raw, added}
					return e.emit(out, func(w io.Writer) {
						fmt.Fprintln(w, added.Number.Padded())
					})
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a phase and renumber the ones after it",
				ArgsUsage: "<phase>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Remove even with executed plans or decimal children"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					n, _, err := phaseArg(cmd, 0, "phase remove <phase> [--force]")
					if err != nil {
						return err
					}
					res, err := lifecycle.New(e.store, e.locks, e.log.Logger).Remove(n, cmd.Bool("force"))
					if err != nil {
						return err
					}
					return e.emit(res, func(w io.Writer) {
						fmt.Fprintf(w, "%s removed phase %s (%d directories renumbered)\n",
							ux.Pass(ux.IconPass), res.Phase, len(res.RenamedDirectories))
					})
				}),
			},
			{
				Name:      "complete",
				Usage:     "Mark a phase complete and advance STATE.md",
				ArgsUsage: "<phase>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					n, _, err := phaseArg(cmd, 0, "phase complete <phase>")
					if err != nil {
						return err
					}
					res, err := lifecycle.New(e.store, e.locks, e.log.Logger).Complete(n)
					if err != nil {
						return err
					}
					return e.emit(res, func(w io.Writer) {
						next := "milestone complete"
						if res.NextPhase != nil {
							next = "next: " + *res.NextPhase
						}
						fmt.Fprintf(w, "%s phase %s complete, %s\n", ux.Pass(ux.IconPass), res.Phase, next)
					})
				}),
			},
			{
				Name:      "next-decimal",
				Usage:     "Show the decimal phase insert would create",
				ArgsUsage: "<phase>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					n, _, err := phaseArg(cmd, 0, "phase next-decimal <phase>")
					if err != nil {
						return err
					}
					info, err := lifecycle.New(e.store, e.locks, e.log.Logger).NextDecimal(n)
					if err != nil {
						return err
					}
					return e.emit(info, func(w io.Writer) { fmt.Fprintln(w, info.Next) })
				}),
			},
			planIndexCmd(),
		},
	}
}

func phasesCmd() *cli.Command {
	return &cli.Command{
		Name:  "phases",
		Usage: "List phase directories or their plan files",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List phase directories, or plans/summaries with --type",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "plans or summaries"},
					&cli.StringFlag{Name: "phase", Usage: "Only this phase"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					kind := cmd.String("type")
					if kind == "" {
						listing, err := analyze.Directories(e.store)
						if err != nil {
							return err
						}
						return e.emit(listing, func(w io.Writer) { ux.List(w, listing.Directories) })
					}
					var only *phase.Number
					if v := cmd.String("phase"); v != "" {
						n, err := phase.ParseNumber(v)
						if err != nil {
							return planerr.Usage("invalid phase number %q", v)
						}
						only = &n
					}
					listing, err := analyze.Files(e.store, kind, only)
					if err != nil {
						return err
					}
					return e.emit(listing, func(w io.Writer) { ux.List(w, listing.Files) })
				}),
			},
		},
	}
}

func roadmapCmd() *cli.Command {
	return &cli.Command{
		Name:  "roadmap",
		Usage: "Read ROADMAP.md",
		Commands: []*cli.Command{
			{
				Name:      "get-phase",
				Usage:     "Print one phase section",
				ArgsUsage: "<phase>",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					n, _, err := phaseArg(cmd, 0, "roadmap get-phase <phase>")
					if err != nil {
						return err
					}
					sec, err := analyze.GetPhase(e.store, n)
					if err != nil {
						return err
					}
					return e.emit(sec, func(w io.Writer) {
						switch {
						case sec.Section != nil:
							fmt.Fprintln(w, strings.TrimRight(*sec.Section, "\n"))
						case sec.Message != "":
							fmt.Fprintln(w, sec.Message)
						default:
							fmt.Fprintf(w, "phase %s not in roadmap\n", n)
						}
					})
				}),
			},
			{
				Name:  "analyze",
				Usage: "Summarize every phase with its disk status",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					a, err := analyze.Roadmap(e.store)
					if err != nil {
						return err
					}
					return e.emit(a, func(w io.Writer) { ux.RenderAnalysis(w, a) })
				}),
			},
			{
				Name:  "progress",
				Usage: "Show executed plans per phase directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "json", Usage: "json, table or bar"},
				},
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					format, err := progressFormat(cmd)
					if err != nil {
						return err
					}
					r, err := analyze.Progress(e.store)
					if err != nil {
						return err
					}
					switch format {
					case "table":
						ux.RenderProgressTable(e.out, r)
					case "bar":
						ux.RenderProgressBar(e.out, r)
					default:
						return e.emit(r, func(w io.Writer) { ux.RenderProgressBar(w, r) })
					}
					return nil
				}),
			},
		},
	}
}
