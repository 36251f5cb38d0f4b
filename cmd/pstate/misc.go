package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/docs"
	"github.com/jorge-barreto/pstate/internal/doctor"
	"github.com/jorge-barreto/pstate/internal/frontmatter"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/scaffold"
	"github.com/jorge-barreto/pstate/internal/ux"
	"github.com/jorge-barreto/pstate/internal/validate"
)

// output is emit for commands that run without a planning store.
func output(cmd *cli.Command, v any, raw func(w io.Writer)) error {
	if cmd.Bool("raw") && raw != nil {
		raw(stdout)
		return nil
	}
	return ux.JSON(stdout, v)
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create .planning/ in the project directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Project name (default: directory name)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := workDir(cmd)
			if err != nil {
				return err
			}
			res, err := scaffold.Init(dir, cmd.String("name"), time.Now())
			if err != nil {
				return err
			}
			return output(cmd, res, func(w io.Writer) {
				for _, f := range res.Created {
					fmt.Fprintf(w, "  %s %s\n", ux.Pass(ux.IconPass), f)
				}
				fmt.Fprintf(w, "\nNext: pstate phase add \"<first phase>\"\n")
			})
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Cross-check the planning documents",
		Commands: []*cli.Command{
			{
				Name:  "consistency",
				Usage: "Check the roadmap, STATE.md and phase directories agree",
				Action: withEnv(func(ctx context.Context, cmd *cli.Command, e *env) error {
					r, err := validate.Consistency(e.store)
					if err != nil {
						return err
					}
					return e.emit(r, func(w io.Writer) { ux.RenderValidation(w, r) })
				}),
			},
		},
	}
}

func healthCmd() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Run every health check on the planning directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := workDir(cmd)
			if err != nil {
				return err
			}
			r := doctor.Run(dir, time.Now())
			return output(cmd, r, func(w io.Writer) { ux.RenderHealth(w, r) })
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Fprint(stdout, "\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Fprintf(stdout, "  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Fprintln(stdout, "\nRun 'pstate docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return planerr.Usage("%v", err)
			}
			fmt.Fprint(stdout, docs.Render(t.Content, ux.IsTerminal()))
			return nil
		},
	}
}

func frontmatterCmd() *cli.Command {
	return &cli.Command{
		Name:  "frontmatter",
		Usage: "Read and edit document frontmatter",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the header fields of a document",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "field", Usage: "Only this field"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, text, err := readDocArg(cmd, "frontmatter get <file> [--field name]")
					if err != nil {
						return err
					}
					fields, _ := frontmatter.Parse(text)
					if key := cmd.String("field"); key != "" {
						v, ok := fields[key]
						if !ok {
							return planerr.NotFound("field %q in %s", key, path)
						}
						return output(cmd, map[string]frontmatter.Value{key: v}, func(w io.Writer) {
							fmt.Fprintln(w, strings.Join(valueLines(v), "\n"))
						})
					}
					return output(cmd, fields, func(w io.Writer) {
						keys := make([]string, 0, len(fields))
						for k := range fields {
							keys = append(keys, k)
						}
						sort.Strings(keys)
						rows := make([][2]string, 0, len(keys))
						for _, k := range keys {
							rows = append(rows, [2]string{k, strings.Join(valueLines(fields[k]), ", ")})
						}
						ux.Table(w, rows)
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Set one scalar header field",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "field", Usage: "Field name"},
					&cli.StringFlag{Name: "value", Usage: "New value (a JSON string is unquoted)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					const usage = "frontmatter set <file> --field name --value v"
					path, text, err := readDocArg(cmd, usage)
					if err != nil {
						return err
					}
					key := strings.TrimSpace(cmd.String("field"))
					if key == "" || !cmd.IsSet("value") {
						return planerr.Usage("Usage: pstate %s", usage)
					}
					value := cmd.String("value")
					var s string
					if json.Unmarshal([]byte(value), &s) == nil {
						value = s
					}
					if err := atomicfile.Write(path, []byte(frontmatter.Set(text, key, value))); err != nil {
						return fmt.Errorf("writing %s: %w", path, err)
					}
					out := map[string]any{"updated": true, "field": key, "value": value}
					return output(cmd, out, func(w io.Writer) {
						fmt.Fprintf(w, "%s %s: %s\n", ux.Pass(ux.IconPass), key, value)
					})
				},
			},
		},
	}
}

// readDocArg resolves the file argument against --cwd and reads it.
func readDocArg(cmd *cli.Command, usage string) (string, string, error) {
	arg, err := requireArg(cmd, 0, usage)
	if err != nil {
		return "", "", err
	}
	path := arg
	if !filepath.IsAbs(path) {
		dir, err := workDir(cmd)
		if err != nil {
			return "", "", err
		}
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", planerr.NotFound("%s", arg)
	}
	if err != nil {
		return "", "", err
	}
	return path, string(data), nil
}

func valueLines(v frontmatter.Value) []string {
	switch v.Kind {
	case frontmatter.KindList:
		return v.Items
	case frontmatter.KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+": "+strings.Join(valueLines(v.Map[k]), ", "))
		}
		return out
	default:
		return []string{v.Str}
	}
}
