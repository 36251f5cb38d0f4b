package digest

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jorge-barreto/pstate/internal/frontmatter"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

var taskRe = regexp.MustCompile(`(?m)^(?:#{2,4}\s+Task\b|\s*<task[\s>])`)

// Plan is one PLAN.md as seen by the plan index.
type Plan struct {
	ID            string   `json:"id"`
	Wave          int      `json:"wave"`
	Autonomous    bool     `json:"autonomous"`
	Objective     string   `json:"objective"`
	FilesModified []string `json:"files_modified"`
	TaskCount     int      `json:"task_count"`
	HasSummary    bool     `json:"has_summary"`
}

// PlanIndex lists a phase's plans grouped into execution waves.
type PlanIndex struct {
	Phase          string              `json:"phase"`
	Plans          []Plan              `json:"plans"`
	Waves          map[string][]string `json:"waves"`
	Incomplete     []string            `json:"incomplete"`
	HasCheckpoints bool                `json:"has_checkpoints"`
	Error          string              `json:"error,omitempty"`
}

// IndexPlans reads every plan in phase n. A plan without "wave" is in wave
// 1; one without "autonomous" is autonomous. A plan whose summary exists is
// complete.
func IndexPlans(s *store.Store, n phase.Number) (PlanIndex, error) {
	out := PlanIndex{Phase: n.Padded(), Plans: []Plan{}, Waves: map[string][]string{}, Incomplete: []string{}}
	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return out, err
	}
	d, ok := phase.FindDir(dirs, n)
	if !ok {
		out.Error = "Phase not found"
		return out, nil
	}
	plans, err := d.Plans()
	if err != nil {
		return out, err
	}
	summaries, err := d.Summaries()
	if err != nil {
		return out, err
	}
	done := map[string]bool{}
	for _, f := range summaries {
		done[phase.PlanID(f)] = true
	}

	for _, f := range plans {
		data, err := os.ReadFile(filepath.Join(d.Path, f))
		if err != nil {
			return out, err
		}
		fields, body := frontmatter.Parse(string(data))
		p := Plan{
			ID:            phase.PlanID(f),
			Wave:          1,
			Autonomous:    fields.String("autonomous", "true") != "false",
			Objective:     fields.String("objective", ""),
			FilesModified: nonNil(fields.List("files-modified")),
			TaskCount:     len(taskRe.FindAllString(body, -1)),
		}
		if w, err := strconv.Atoi(strings.TrimSpace(fields.String("wave", ""))); err == nil {
			p.Wave = w
		}
		p.HasSummary = done[p.ID]
		if !p.HasSummary {
			out.Incomplete = append(out.Incomplete, p.ID)
		}
		if !p.Autonomous {
			out.HasCheckpoints = true
		}
		wave := strconv.Itoa(p.Wave)
		out.Waves[wave] = append(out.Waves[wave], p.ID)
		out.Plans = append(out.Plans, p)
	}
	return out, nil
}
