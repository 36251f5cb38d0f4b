package lifecycle

import (
	"sort"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
)

// FileMove renames one file inside a phase directory.
type FileMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DirMove renames a phase directory and the plan files it holds.
type DirMove struct {
	From  phase.Dir
	To    phase.Number
	Name  string // new directory name
	Files []FileMove
}

// RenumberPlan is everything a removal does to the phases directory,
// computed before anything is touched.
type RenumberPlan struct {
	Target phase.Number
	Delete []phase.Dir
	Moves  []DirMove // ascending by old number; each target is free once earlier moves ran
}

// Removes reports whether n disappears with the target: the target itself
// and, for a whole phase, its decimal children.
func (p RenumberPlan) Removes(n phase.Number) bool {
	if n.Equal(p.Target) {
		return true
	}
	return !p.Target.Decimal && n.Decimal && n.Major == p.Target.Major
}

// Remap returns the new number for a phase that shifts down, and false for
// phases that keep their number or are removed.
func (p RenumberPlan) Remap(n phase.Number) (phase.Number, bool) {
	if p.Removes(n) {
		return n, false
	}
	if !p.Target.Decimal {
		if n.Major > p.Target.Major {
			n.Major--
			return n, true
		}
		return n, false
	}
	if n.Decimal && n.Major == p.Target.Major && n.Minor > p.Target.Minor {
		n.Minor--
		return n, true
	}
	return n, false
}

// PlanRemoval computes the directory deletions and renames for removing
// target. files maps a directory name to the file names inside it.
func PlanRemoval(dirs []phase.Dir, files map[string][]string, target phase.Number) RenumberPlan {
	p := RenumberPlan{Target: target}
	for _, d := range dirs {
		if p.Removes(d.Number) {
			p.Delete = append(p.Delete, d)
			continue
		}
		to, ok := p.Remap(d.Number)
		if !ok {
			continue
		}
		move := DirMove{From: d, To: to, Name: phase.DirName(to, d.Slug)}
		if token := dirToken(d.Name); token != "" {
			move.Name = to.NameLike(token)
			if d.Slug != "" {
				move.Name += "-" + d.Slug
			}
		}
		for _, f := range files[d.Name] {
			if renamed, ok := renameFile(f, d, to); ok {
				move.Files = append(move.Files, FileMove{From: f, To: renamed})
			}
		}
		p.Moves = append(p.Moves, move)
	}
	sort.SliceStable(p.Moves, func(i, j int) bool {
		return p.Moves[i].From.Number.Compare(p.Moves[j].From.Number) < 0
	})
	return p
}

func dirToken(name string) string {
	token, _, _ := strings.Cut(name, "-")
	return token
}

// renameFile rewrites the phase prefix of a plan or summary file name,
// "03-02-PLAN.md" -> "02-02-PLAN.md", keeping the prefix's padding.
func renameFile(name string, d phase.Dir, to phase.Number) (string, bool) {
	for _, prefix := range []string{dirToken(d.Name), d.Number.Padded(), d.Number.String()} {
		if prefix == "" || !strings.HasPrefix(name, prefix+"-") {
			continue
		}
		return to.NameLike(prefix) + name[len(prefix):], true
	}
	return "", false
}
