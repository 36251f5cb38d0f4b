package lifecycle

import (
	"fmt"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/roadmap"
)

// Completed describes what Complete did.
type Completed struct {
	Phase               string   `json:"completed_phase"`
	PhaseName           string   `json:"phase_name"`
	PlansExecuted       string   `json:"plans_executed"`
	NextPhase           *string  `json:"next_phase"`
	NextPhaseName       *string  `json:"next_phase_name"`
	IsLastPhase         bool     `json:"is_last_phase"`
	Date                string   `json:"date"`
	RoadmapUpdated      bool     `json:"roadmap_updated"`
	StateUpdated        bool     `json:"state_updated"`
	RequirementsUpdated []string `json:"requirements_updated"`
}

// Complete marks phase n done: the roadmap checklist entry is ticked and
// dated, STATE.md moves to the next phase in roadmap order (or records the
// milestone as complete), and the requirements the phase declares are
// marked Complete in both the checklist and the traceability table.
func (e *Engine) Complete(n phase.Number) (Completed, error) {
	out := Completed{Phase: n.String(), Date: e.today(), RequirementsUpdated: []string{}}
	err := e.locked(func(d *docs) error {
		sec, inRoadmap := d.Roadmap.Find(n)
		dir, onDisk := phase.FindDir(d.Dirs, n)
		if !inRoadmap && !onDisk {
			return planerr.NotFound("Phase %s", n)
		}

		plans, summaries := 0, 0
		if onDisk {
			p, err := dir.Plans()
			if err != nil {
				return err
			}
			s, err := dir.Summaries()
			if err != nil {
				return err
			}
			plans, summaries = len(p), len(s)
		}
		out.PlansExecuted = fmt.Sprintf("%d/%d", summaries, plans)
		if inRoadmap {
			out.PhaseName = sec.Name
		} else {
			out.PhaseName = dir.Slug
		}

		d.Roadmap.Check(n, out.Date)
		d.Roadmap.SetProgress(n, out.PlansExecuted, "Complete", out.Date)

		next, hasNext := nextInRoadmap(d.Roadmap.Sections(), n)
		out.IsLastPhase = !hasNext
		if hasNext {
			padded, name := next.Number.Padded(), next.Name
			out.NextPhase, out.NextPhaseName = &padded, &name
		}

		if inRoadmap && d.Reqs != nil {
			if ids := d.Roadmap.Requirements(sec); len(ids) > 0 {
				out.RequirementsUpdated = append(out.RequirementsUpdated, d.Reqs.Complete(ids)...)
			}
		}

		if st := d.State; st != nil {
			if hasNext {
				if cur, ok := st.Field("Current Phase"); ok {
					st.SetField("Current Phase", next.Number.Format(cur))
				}
				st.SetField("Current Phase Name", next.Name)
				st.SetField("Status", "Ready to plan")
				st.SetField("Last Activity Description", fmt.Sprintf("Phase %s complete, transitioned to Phase %s", n, next.Number))
			} else {
				st.SetField("Status", "Milestone complete")
				st.SetField("Last Activity Description", fmt.Sprintf("Phase %s complete, milestone complete", n))
			}
			st.SetField("Current Plan", "Not started")
			st.SetField("Last Activity", out.Date)
		}

		var err error
		out.RoadmapUpdated, out.StateUpdated, _, err = e.save(d)
		return err
	})
	if err != nil {
		return Completed{}, err
	}
	e.log().Info("phase completed", "op", "phase.complete", "phase", n.String(),
		"plans", out.PlansExecuted, "last", out.IsLastPhase, "requirements", len(out.RequirementsUpdated))
	return out, nil
}

// nextInRoadmap returns the first section after n in document order with a
// higher number.
func nextInRoadmap(sections []roadmap.Section, n phase.Number) (roadmap.Section, bool) {
	start := 0
	for i, s := range sections {
		if s.Number.Equal(n) {
			start = i + 1
			break
		}
	}
	for _, s := range sections[start:] {
		if s.Number.Compare(n) > 0 {
			return s, true
		}
	}
	return roadmap.Section{}, false
}
