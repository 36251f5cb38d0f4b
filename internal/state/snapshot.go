package state

import (
	"regexp"
	"strings"
)

type Decision struct {
	Phase     string `json:"phase"`
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

type Session struct {
	LastDate   *string `json:"last_date"`
	StoppedAt  *string `json:"stopped_at"`
	ResumeFile *string `json:"resume_file"`
}

// Snapshot is the structured view of STATE.md. Absent fields are nil.
type Snapshot struct {
	CurrentPhase      *string    `json:"current_phase"`
	CurrentPhaseName  *string    `json:"current_phase_name"`
	TotalPhases       *int       `json:"total_phases"`
	CurrentPlan       *string    `json:"current_plan"`
	TotalPlansInPhase *int       `json:"total_plans_in_phase"`
	Status            *string    `json:"status"`
	ProgressPercent   *int       `json:"progress_percent"`
	LastActivity      *string    `json:"last_activity"`
	LastActivityDesc  *string    `json:"last_activity_desc"`
	Decisions         []Decision `json:"decisions"`
	Blockers          []string   `json:"blockers"`
	PausedAt          *string    `json:"paused_at"`
	Session           Session    `json:"session"`
}

var decisionItemRe = regexp.MustCompile(`^[-*]\s+(?:\[Phase\s+([^\]]+)\]:\s*)?(.+?)(?:\s+-\s+(.+))?$`)

// Snapshot extracts the fields agents read at the start of a turn.
func (d *Document) Snapshot() Snapshot {
	s := Snapshot{
		CurrentPhase:      d.strField("Current Phase"),
		CurrentPhaseName:  d.strField("Current Phase Name"),
		TotalPhases:       d.intField("Total Phases"),
		CurrentPlan:       d.strField("Current Plan"),
		TotalPlansInPhase: d.intField("Total Plans in Phase"),
		Status:            d.strField("Status"),
		ProgressPercent:   d.intField("Progress"),
		LastActivity:      d.strField("Last Activity"),
		LastActivityDesc:  d.strField("Last Activity Description"),
		PausedAt:          d.strField("Paused At"),
		Decisions:         []Decision{},
		Blockers:          []string{},
		Session: Session{
			LastDate:   d.strField("Last Date"),
			StoppedAt:  d.strField("Stopped At"),
			ResumeFile: d.strField("Resume File"),
		},
	}

	for _, l := range d.sectionBody(decisionTitles...) {
		t := strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(t, "|"):
			cells := tableCells(t)
			if len(cells) < 2 || isSeparatorRow(cells) || strings.EqualFold(cells[0], "phase") {
				continue
			}
			dec := Decision{Phase: cells[0], Summary: cells[1]}
			if len(cells) > 2 {
				dec.Rationale = cells[2]
			}
			s.Decisions = append(s.Decisions, dec)
		case isListItem(t) && !isPlaceholder(t):
			if m := decisionItemRe.FindStringSubmatch(t); m != nil {
				s.Decisions = append(s.Decisions, Decision{Phase: m[1], Summary: m[2], Rationale: m[3]})
			}
		}
	}

	for _, l := range d.sectionBody(blockerTitles...) {
		t := strings.TrimSpace(l)
		if isListItem(t) && !isPlaceholder(t) {
			s.Blockers = append(s.Blockers, strings.TrimSpace(t[2:]))
		}
	}
	return s
}

func (d *Document) strField(name string) *string {
	v, ok := d.Field(name)
	if !ok {
		return nil
	}
	return &v
}

func (d *Document) intField(name string) *int {
	n, ok := d.IntField(name)
	if !ok {
		return nil
	}
	return &n
}

func tableCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	parts := strings.Split(row, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}
