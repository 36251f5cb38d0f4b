// Package analyze answers read-only questions about the roadmap and the
// phases directory: one phase's section, per-phase disk status, and file
// listings.
package analyze

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/roadmap"
	"github.com/jorge-barreto/pstate/internal/store"
)

const roadmapMissing = "ROADMAP.md not found"

// Disk status of a phase, from least to most advanced.
const (
	NoDirectory = "no_directory"
	Empty       = "empty"
	Discussed   = "discussed"
	Researched  = "researched"
	Planned     = "planned"
	Partial     = "partial"
	Complete    = "complete"
)

// PhaseSection is the result of looking up one roadmap section.
type PhaseSection struct {
	Found       bool    `json:"found"`
	PhaseNumber string  `json:"phase_number"`
	PhaseName   *string `json:"phase_name,omitempty"`
	Goal        *string `json:"goal,omitempty"`
	Section     *string `json:"section,omitempty"`
	Error       string  `json:"error,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// GetPhase returns the roadmap section for n. Absence is reported in the
// result, not as an error.
func GetPhase(s *store.Store, n phase.Number) (PhaseSection, error) {
	out := PhaseSection{PhaseNumber: n.String()}
	rm, err := readRoadmap(s)
	if err != nil {
		return out, err
	}
	if rm == nil {
		out.Error = roadmapMissing
		return out, nil
	}
	sec, ok := rm.Find(n)
	if !ok {
		if rm.Listed(n) {
			out.Error = "malformed_roadmap"
			out.Message = fmt.Sprintf("Phase %s is in the ROADMAP.md checklist but its detail section (### Phase %s: ...) is missing", n, n)
		}
		return out, nil
	}
	out.Found = true
	out.PhaseNumber = sec.Token
	out.PhaseName = &sec.Name
	if g, ok := rm.Field(sec, "Goal"); ok {
		out.Goal = &g
	}
	text := rm.SectionText(sec)
	out.Section = &text
	return out, nil
}

// PhaseStatus is one roadmap phase joined with its directory.
type PhaseStatus struct {
	Number          string  `json:"number"`
	Name            string  `json:"name"`
	Goal            *string `json:"goal"`
	DependsOn       *string `json:"depends_on"`
	Directory       *string `json:"directory"`
	PlanCount       int     `json:"plan_count"`
	SummaryCount    int     `json:"summary_count"`
	DiskStatus      string  `json:"disk_status"`
	RoadmapComplete bool    `json:"roadmap_complete"`
}

// Analysis summarises progress across the roadmap.
type Analysis struct {
	Phases          []PhaseStatus `json:"phases"`
	PhaseCount      int           `json:"phase_count"`
	CompletedPhases int           `json:"completed_phases"`
	TotalPlans      int           `json:"total_plans"`
	TotalSummaries  int           `json:"total_summaries"`
	ProgressPercent int           `json:"progress_percent"`
	CurrentPhase    *string       `json:"current_phase"`
	NextPhase       *string       `json:"next_phase"`
	Error           string        `json:"error,omitempty"`
}

// Roadmap analyses every roadmap phase against the phases directory. A
// missing ROADMAP.md is reported in the result.
func Roadmap(s *store.Store) (Analysis, error) {
	a := Analysis{Phases: []PhaseStatus{}}
	rm, err := readRoadmap(s)
	if err != nil {
		return a, err
	}
	if rm == nil {
		a.Error = roadmapMissing
		return a, nil
	}
	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return a, err
	}

	for _, sec := range rm.Sections() {
		ps := PhaseStatus{
			Number:          sec.Token,
			Name:            sec.Name,
			DiskStatus:      NoDirectory,
			RoadmapComplete: rm.Checked(sec.Number),
		}
		if v, ok := rm.Field(sec, "Goal"); ok {
			ps.Goal = &v
		}
		if v, ok := rm.Field(sec, "Depends on"); ok {
			ps.DependsOn = &v
		}
		if d, ok := phase.FindDir(dirs, sec.Number); ok {
			name := d.Name
			ps.Directory = &name
			if err := diskStatus(d, &ps); err != nil {
				return a, err
			}
		}
		a.TotalPlans += ps.PlanCount
		a.TotalSummaries += ps.SummaryCount
		if ps.DiskStatus == Complete {
			a.CompletedPhases++
		}
		a.Phases = append(a.Phases, ps)
	}
	a.PhaseCount = len(a.Phases)
	if a.TotalPlans > 0 {
		a.ProgressPercent = min(100, a.TotalSummaries*100/a.TotalPlans)
	}

	for i := range a.Phases {
		p := &a.Phases[i]
		switch p.DiskStatus {
		case Planned, Partial:
			if a.CurrentPhase == nil {
				a.CurrentPhase = &p.Number
			}
		case Complete:
		default:
			if a.NextPhase == nil {
				a.NextPhase = &p.Number
			}
		}
	}
	return a, nil
}

func diskStatus(d phase.Dir, ps *PhaseStatus) error {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return err
	}
	var research, context bool
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
		case strings.HasSuffix(name, "-PLAN.md"):
			ps.PlanCount++
		case strings.HasSuffix(name, "-SUMMARY.md"):
			ps.SummaryCount++
		case strings.HasSuffix(name, "RESEARCH.md"):
			research = true
		case strings.HasSuffix(name, "CONTEXT.md"):
			context = true
		}
	}
	switch {
	case ps.PlanCount > 0 && ps.SummaryCount >= ps.PlanCount:
		ps.DiskStatus = Complete
	case ps.SummaryCount > 0:
		ps.DiskStatus = Partial
	case ps.PlanCount > 0:
		ps.DiskStatus = Planned
	case research:
		ps.DiskStatus = Researched
	case context:
		ps.DiskStatus = Discussed
	default:
		ps.DiskStatus = Empty
	}
	return nil
}

// readRoadmap returns nil when ROADMAP.md does not exist.
func readRoadmap(s *store.Store) (*roadmap.Roadmap, error) {
	data, err := os.ReadFile(s.RoadmapPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return roadmap.Parse(string(data)), nil
}
