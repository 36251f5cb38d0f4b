package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/digest"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

// Archived names the milestone copies that were written, relative to the
// planning directory. Empty when the source document does not exist.
type Archived struct {
	Roadmap      string `json:"roadmap"`
	Requirements string `json:"requirements"`
}

// Milestone describes what CompleteMilestone did.
type Milestone struct {
	Version         string   `json:"version"`
	Name            string   `json:"name"`
	Date            string   `json:"date"`
	Phases          int      `json:"phases"`
	Plans           int      `json:"plans"`
	Accomplishments []string `json:"accomplishments"`
	Archived        Archived `json:"archived"`
	MilestonesFile  string   `json:"milestones_file"`
	StateUpdated    bool     `json:"state_updated"`
}

// CompleteMilestone archives the current ROADMAP.md and REQUIREMENTS.md
// under milestones/ as "<version>-ROADMAP.md" and
// "<version>-REQUIREMENTS.md", appends an entry to MILESTONES.md listing the
// one-liners of every summary, and records the milestone in STATE.md. The
// live documents are left in place for the next milestone to rewrite.
func (e *Engine) CompleteMilestone(version, name string) (Milestone, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return Milestone{}, planerr.Usage("milestone version required")
	}
	if strings.ContainsAny(version, `/\`) || strings.HasPrefix(version, ".") {
		return Milestone{}, planerr.Usage("invalid milestone version %q", version)
	}
	out := Milestone{Version: version, Name: strings.TrimSpace(name), Date: e.today(), Accomplishments: []string{}}
	archiveDir := filepath.Join(e.Store.Dir, "milestones")

	err := e.locked(func(d *docs) error {
		if err := os.MkdirAll(archiveDir, 0755); err != nil {
			return fmt.Errorf("creating milestones directory: %w", err)
		}
		rel := func(file string) string { return filepath.ToSlash(filepath.Join("milestones", file)) }

		out.Archived.Roadmap = rel(version + "-ROADMAP.md")
		if err := atomicfile.WriteNoBackup(filepath.Join(e.Store.Dir, out.Archived.Roadmap), []byte(d.roadmapText)); err != nil {
			return fmt.Errorf("archiving ROADMAP.md: %w", err)
		}
		if d.Reqs != nil {
			out.Archived.Requirements = rel(version + "-REQUIREMENTS.md")
			if err := atomicfile.WriteNoBackup(filepath.Join(e.Store.Dir, out.Archived.Requirements), []byte(d.reqsText)); err != nil {
				return fmt.Errorf("archiving REQUIREMENTS.md: %w", err)
			}
		}

		out.Phases = len(d.Dirs)
		for _, dir := range d.Dirs {
			plans, err := dir.Plans()
			if err != nil {
				return err
			}
			out.Plans += len(plans)
			summaries, err := dir.Summaries()
			if err != nil {
				return err
			}
			for _, f := range summaries {
				s, err := digest.ExtractSummary(filepath.Join(dir.Path, f), f)
				if err != nil {
					return err
				}
				if s.OneLiner != nil && strings.TrimSpace(*s.OneLiner) != "" {
					out.Accomplishments = append(out.Accomplishments, strings.TrimSpace(*s.OneLiner))
				}
			}
		}

		out.MilestonesFile = "MILESTONES.md"
		if err := e.appendMilestone(out); err != nil {
			return err
		}

		if st := d.State; st != nil {
			st.SetField("Status", version+" milestone complete")
			st.SetField("Last Activity", out.Date)
			st.SetField("Last Activity Description", version+" milestone completed and archived")
		}
		var err error
		_, out.StateUpdated, _, err = e.save(d)
		return err
	})
	if err != nil {
		return Milestone{}, err
	}
	e.log().Info("milestone completed", "op", "milestone.complete", "version", version,
		"phases", out.Phases, "plans", out.Plans)
	return out, nil
}

func (e *Engine) appendMilestone(m Milestone) error {
	path := filepath.Join(e.Store.Dir, "MILESTONES.md")
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	text := string(existing)
	if strings.TrimSpace(text) == "" {
		text = "# Milestones\n"
	}
	text = strings.TrimRight(text, "\n") + "\n\n"

	title := m.Version
	if m.Name != "" {
		title += " " + m.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (Shipped: %s)\n\n", title, m.Date)
	fmt.Fprintf(&b, "**Phases completed:** %d phases, %d plans\n", m.Phases, m.Plans)
	if len(m.Accomplishments) > 0 {
		b.WriteString("\n**Key accomplishments:**\n")
		for _, a := range m.Accomplishments {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	b.WriteString("\n---\n")

	if err := atomicfile.Write(path, []byte(text+b.String())); err != nil {
		return fmt.Errorf("writing MILESTONES.md: %w", err)
	}
	return nil
}
