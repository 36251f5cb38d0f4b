package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

// Renamed is one directory rename performed by Remove.
type Renamed struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Removed describes what Remove did.
type Removed struct {
	Number              phase.Number `json:"-"`
	Phase               string       `json:"removed"`
	DirectoryDeleted    *string      `json:"directory_deleted"`
	AlsoRemoved         []string     `json:"also_removed"`
	RenamedDirectories  []Renamed    `json:"renamed_directories"`
	RenamedFiles        int          `json:"renamed_files"`
	RoadmapUpdated      bool         `json:"roadmap_updated"`
	StateUpdated        bool         `json:"state_updated"`
	RequirementsUpdated bool         `json:"requirements_updated"`
}

// Remove deletes phase n and shifts every later phase down by one: whole
// phases after a removed whole phase, or decimal siblings after a removed
// decimal. Directories, the plan files inside them, roadmap references and
// the requirements traceability table are renumbered together.
//
// A phase with summaries (executed plans) is only removed with force, as
// is a whole phase that still has decimal children; the children go with
// it.
func (e *Engine) Remove(n phase.Number, force bool) (Removed, error) {
	out := Removed{Number: n, Phase: n.String(), AlsoRemoved: []string{}, RenamedDirectories: []Renamed{}}
	err := e.locked(func(d *docs) error {
		_, inRoadmap := d.Roadmap.Find(n)
		_, onDisk := phase.FindDir(d.Dirs, n)
		if !inRoadmap && !onDisk {
			return planerr.NotFound("Phase %s", n)
		}

		files := map[string][]string{}
		for _, dir := range d.Dirs {
			names, err := dirFiles(dir.Path)
			if err != nil {
				return err
			}
			files[dir.Name] = names
		}
		plan := PlanRemoval(d.Dirs, files, n)

		children := map[phase.Number]bool{}
		for _, c := range decimalsUnder(d, n.Major) {
			if plan.Removes(c) && !c.Equal(n) {
				children[c] = true
			}
		}
		if len(children) > 0 && !force {
			return planerr.Guard("--force", "phase %s has %d inserted decimal phase(s) that would be removed with it", n, len(children))
		}
		if !force {
			for _, del := range plan.Delete {
				summaries, err := del.Summaries()
				if err != nil {
					return err
				}
				if len(summaries) > 0 {
					return planerr.Guard("--force", "phase %s has %d executed plan(s) (%s)", del.Number, len(summaries), summaries[0])
				}
			}
		}

		// Documents first, in memory.
		removed := removedNumbers(d, plan)
		removeFromRoadmap(d, plan, removed)
		d.Roadmap.Renumber(plan.Remap)
		if d.Reqs != nil {
			d.Reqs.Renumber(removed, plan.Remap)
		}
		if d.State != nil {
			adjustTotal(d.State, -(1 + len(children)))
			if cur, ok := d.State.Field("Current Phase"); ok {
				if cn, err := phase.ParseNumber(cur); err == nil {
					if to, ok := plan.Remap(cn); ok {
						d.State.SetField("Current Phase", to.Format(cur))
					}
				}
			}
		}

		// Then the directory tree.
		for _, del := range plan.Delete {
			if err := os.RemoveAll(del.Path); err != nil {
				return fmt.Errorf("removing %s: %w", del.Name, err)
			}
			if del.Number.Equal(n) {
				name := del.Name
				out.DirectoryDeleted = &name
			} else {
				out.AlsoRemoved = append(out.AlsoRemoved, del.Name)
			}
		}
		for _, m := range plan.Moves {
			to := e.phaseDir(m.Name)
			if _, err := os.Stat(to); err == nil {
				return fmt.Errorf("renaming %s: %s already exists", m.From.Name, m.Name)
			}
			if err := os.Rename(m.From.Path, to); err != nil {
				return fmt.Errorf("renaming %s: %w", m.From.Name, err)
			}
			out.RenamedDirectories = append(out.RenamedDirectories, Renamed{From: m.From.Name, To: m.Name})
			for _, f := range m.Files {
				if err := os.Rename(filepath.Join(to, f.From), filepath.Join(to, f.To)); err != nil {
					return fmt.Errorf("renaming %s/%s: %w", m.Name, f.From, err)
				}
				out.RenamedFiles++
			}
		}

		var err error
		out.RoadmapUpdated, out.StateUpdated, out.RequirementsUpdated, err = e.save(d)
		return err
	})
	if err != nil {
		return Removed{}, err
	}
	e.log().Info("phase removed", "op", "phase.remove", "phase", n.String(),
		"renamed_directories", len(out.RenamedDirectories), "renamed_files", out.RenamedFiles)
	return out, nil
}

// removeFromRoadmap drops the sections, checklist entries and progress
// rows of every phase the plan removes.
func removeFromRoadmap(d *docs, plan RenumberPlan, removed []phase.Number) {
	for {
		found := false
		for _, s := range d.Roadmap.Sections() {
			if plan.Removes(s.Number) {
				d.Roadmap.Remove(s)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	for _, n := range removed {
		d.Roadmap.RemoveChecklistItem(n)
		d.Roadmap.RemoveProgressRow(n)
	}
}

// removedNumbers lists the target and any children known from disk or the
// roadmap, as they were before the removal.
func removedNumbers(d *docs, plan RenumberPlan) []phase.Number {
	out := []phase.Number{plan.Target}
	for _, dir := range plan.Delete {
		if !dir.Number.Equal(plan.Target) {
			out = append(out, dir.Number)
		}
	}
	if !plan.Target.Decimal {
		for _, n := range decimalsUnder(d, plan.Target.Major) {
			if !containsNumber(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func containsNumber(list []phase.Number, n phase.Number) bool {
	for _, m := range list {
		if m.Equal(n) {
			return true
		}
	}
	return false
}

func dirFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
