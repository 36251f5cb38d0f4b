package digest

import (
	"os"
	"path/filepath"

	"github.com/jorge-barreto/pstate/internal/frontmatter"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

// PhaseHistory collects what the summaries of one phase declared.
type PhaseHistory struct {
	Name     string   `json:"name"`
	Provides []string `json:"provides"`
	Affects  []string `json:"affects"`
	Patterns []string `json:"patterns"`
}

// HistoryDecision is a key decision and the phase it was made in.
type HistoryDecision struct {
	Phase    string `json:"phase"`
	Decision string `json:"decision"`
}

// History merges every SUMMARY.md in the store.
type History struct {
	Phases    map[string]*PhaseHistory `json:"phases"`
	Decisions []HistoryDecision        `json:"decisions"`
	TechStack []string                 `json:"tech_stack"`
}

// CollectHistory reads the frontmatter of every summary. Summaries without
// usable frontmatter contribute nothing. "provides" and "affects" are read
// from the dependency-graph block, or from top-level keys in older files.
func CollectHistory(s *store.Store) (History, error) {
	h := History{Phases: map[string]*PhaseHistory{}, Decisions: []HistoryDecision{}, TechStack: []string{}}
	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return h, err
	}
	tech := map[string]bool{}
	for _, d := range dirs {
		summaries, err := d.Summaries()
		if err != nil {
			return h, err
		}
		for _, f := range summaries {
			data, err := os.ReadFile(filepath.Join(d.Path, f))
			if err != nil {
				return h, err
			}
			fields, _ := frontmatter.Parse(string(data))
			if len(fields) == 0 {
				continue
			}
			key := fields.String("phase", d.Number.Padded())
			ph := h.Phases[key]
			if ph == nil {
				ph = &PhaseHistory{Provides: []string{}, Affects: []string{}, Patterns: []string{}}
				h.Phases[key] = ph
			}
			if name := fields.String("name", ""); name != "" {
				ph.Name = name
			}
			ph.Provides = appendNew(ph.Provides, firstList(fields, "dependency-graph.provides", "provides")...)
			ph.Affects = appendNew(ph.Affects, firstList(fields, "dependency-graph.affects", "affects")...)
			ph.Patterns = appendNew(ph.Patterns, fields.List("patterns-established")...)
			for _, dec := range fields.List("key-decisions") {
				h.Decisions = append(h.Decisions, HistoryDecision{Phase: key, Decision: dec})
			}
			for _, t := range fields.List("tech-stack.added") {
				if !tech[t] {
					tech[t] = true
					h.TechStack = append(h.TechStack, t)
				}
			}
		}
	}
	return h, nil
}

func firstList(f frontmatter.Fields, keys ...string) []string {
	for _, k := range keys {
		if f.Has(k) {
			return f.List(k)
		}
	}
	return nil
}

func appendNew(list []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, have := range list {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, it)
		}
	}
	return list
}
