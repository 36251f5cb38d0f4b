package analyze

import (
	"regexp"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

// Progress labels, from the phases directory alone.
const (
	ProgressPending    = "Pending"
	ProgressPlanned    = "Planned"
	ProgressInProgress = "In Progress"
	ProgressComplete   = "Complete"
)

var versionRe = regexp.MustCompile(`v\d+(?:\.\d+)*`)

// PhaseProgress is one phase directory's execution count.
type PhaseProgress struct {
	Number    string `json:"number"`
	Name      string `json:"name"`
	Directory string `json:"directory"`
	Plans     int    `json:"plans"`
	Summaries int    `json:"summaries"`
	Status    string `json:"status"`
}

// ProgressReport counts executed plans across every phase directory.
type ProgressReport struct {
	MilestoneVersion string          `json:"milestone_version"`
	MilestoneName    string          `json:"milestone_name"`
	Phases           []PhaseProgress `json:"phases"`
	TotalPlans       int             `json:"total_plans"`
	TotalSummaries   int             `json:"total_summaries"`
	Percent          int             `json:"percent"`
}

// Progress reports plan execution per phase directory. Unlike Roadmap it
// does not need ROADMAP.md; when present, the milestone version and name
// come from its first line that names a version.
func Progress(s *store.Store) (ProgressReport, error) {
	r := ProgressReport{MilestoneVersion: "v1.0", MilestoneName: "milestone", Phases: []PhaseProgress{}}
	rm, err := readRoadmap(s)
	if err != nil {
		return r, err
	}
	if rm != nil {
		r.MilestoneVersion, r.MilestoneName = milestoneOf(rm.String(), r.MilestoneVersion, r.MilestoneName)
	}

	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return r, err
	}
	for _, d := range dirs {
		plans, err := d.Plans()
		if err != nil {
			return r, err
		}
		summaries, err := d.Summaries()
		if err != nil {
			return r, err
		}
		p := PhaseProgress{
			Number:    d.Number.String(),
			Name:      strings.ReplaceAll(d.Slug, "-", " "),
			Directory: d.Name,
			Plans:     len(plans),
			Summaries: len(summaries),
		}
		switch {
		case p.Plans > 0 && p.Summaries >= p.Plans:
			p.Status = ProgressComplete
		case p.Summaries > 0:
			p.Status = ProgressInProgress
		case p.Plans > 0:
			p.Status = ProgressPlanned
		default:
			p.Status = ProgressPending
		}
		r.TotalPlans += p.Plans
		r.TotalSummaries += p.Summaries
		r.Phases = append(r.Phases, p)
	}
	if r.TotalPlans > 0 {
		r.Percent = min(100, r.TotalSummaries*100/r.TotalPlans)
	}
	return r, nil
}

// milestoneOf finds the first heading or line carrying a version such as
// "v1.2" and takes the rest of that line as the milestone name.
func milestoneOf(text, defVersion, defName string) (string, string) {
	for _, line := range strings.Split(text, "\n") {
		loc := versionRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		name := strings.Trim(strings.TrimSpace(line[loc[1]:]), ":- ")
		if i := strings.Index(name, "("); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if name == "" {
			name = defName
		}
		return line[loc[0]:loc[1]], name
	}
	return defVersion, defName
}
