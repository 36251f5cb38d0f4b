// Package validate cross-checks the roadmap, STATE.md and the phases
// directory. It only reads; drift is reported, never repaired.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/roadmap"
	"github.com/jorge-barreto/pstate/internal/state"
	"github.com/jorge-barreto/pstate/internal/store"
)

// Report is the outcome of a consistency check. Passed is false only when
// there are errors; warnings are informational.
type Report struct {
	Passed       bool     `json:"passed"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	WarningCount int      `json:"warning_count"`
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Consistency runs every check against the store.
func Consistency(s *store.Store) (Report, error) {
	r := Report{Errors: []string{}, Warnings: []string{}}

	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return r, err
	}
	data, err := os.ReadFile(s.RoadmapPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.Errors = append(r.Errors, "ROADMAP.md not found")
		r.finish()
		return r, nil
	case err != nil:
		return r, err
	}
	rm := roadmap.Parse(string(data))

	checkOrphans(&r, rm, dirs)
	checkGaps(&r, rm, dirs)
	if err := checkState(&r, s, rm, dirs); err != nil {
		return r, err
	}
	if err := checkPairs(&r, dirs); err != nil {
		return r, err
	}
	r.finish()
	return r, nil
}

func (r *Report) finish() {
	r.WarningCount = len(r.Warnings)
	r.Passed = len(r.Errors) == 0
}

// checkOrphans flags directories without a roadmap section and sections
// without a directory.
func checkOrphans(r *Report, rm *roadmap.Roadmap, dirs []phase.Dir) {
	for _, d := range dirs {
		if _, ok := rm.Find(d.Number); !ok {
			r.warn("Phase %s exists on disk but not in ROADMAP.md (%s)", d.Number, d.Name)
		}
	}
	for _, sec := range rm.Sections() {
		if _, ok := phase.FindDir(dirs, sec.Number); !ok {
			r.warn("Phase %s is in ROADMAP.md but has no directory on disk", sec.Number)
		}
	}
}

// checkGaps flags missing whole numbers between the lowest and highest
// whole phase. Decimal gaps are allowed.
func checkGaps(r *Report, rm *roadmap.Roadmap, dirs []phase.Dir) {
	seen := map[int]bool{}
	for _, sec := range rm.Sections() {
		seen[sec.Number.Major] = true
	}
	for _, d := range dirs {
		seen[d.Number.Major] = true
	}
	var wholes []int
	for n := range seen {
		wholes = append(wholes, n)
	}
	sort.Ints(wholes)
	for i := 1; i < len(wholes); i++ {
		if wholes[i] != wholes[i-1]+1 {
			r.warn("Gap in phase numbering: %d is followed by %d", wholes[i-1], wholes[i])
		}
	}
}

// checkState flags a current phase that the roadmap does not know, and an
// in-progress phase with no directory.
func checkState(r *Report, s *store.Store, rm *roadmap.Roadmap, dirs []phase.Dir) error {
	st, err := state.Load(s.Dir)
	if planerr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	cur, ok := st.Field("Current Phase")
	if !ok {
		return nil
	}
	n, err := phase.ParseNumber(firstWord(cur))
	if err != nil {
		return nil
	}
	if _, ok := rm.Find(n); !ok {
		r.warn("STATE.md current phase %s is not in ROADMAP.md", n)
	}
	status, _ := st.Field("Status")
	if inProgress(status) {
		if _, ok := phase.FindDir(dirs, n); !ok {
			r.warn("STATE.md marks phase %s as %q but it has no directory on disk", n, status)
		}
	}
	return nil
}

// checkPairs flags summaries whose plan is missing.
func checkPairs(r *Report, dirs []phase.Dir) error {
	for _, d := range dirs {
		plans, err := d.Plans()
		if err != nil {
			return err
		}
		summaries, err := d.Summaries()
		if err != nil {
			return err
		}
		have := map[string]bool{}
		for _, p := range plans {
			have[phase.PlanID(p)] = true
		}
		for _, sm := range summaries {
			if !have[phase.PlanID(sm)] {
				r.warn("%s/%s has no matching PLAN", d.Name, sm)
			}
		}
	}
	return nil
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func inProgress(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "in progress") || strings.Contains(s, "executing")
}
