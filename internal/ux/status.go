package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/jorge-barreto/pstate/internal/analyze"
	"github.com/jorge-barreto/pstate/internal/doctor"
	"github.com/jorge-barreto/pstate/internal/validate"
)

// RenderHealth prints one line per check with its issues indented below.
func RenderHealth(w io.Writer, r *doctor.Report) {
	fmt.Fprintf(w, "%s  %s\n\n", Header("Health:"), Status(r.Overall))
	for _, c := range r.Checks {
		fmt.Fprintf(w, "  %-8s %-22s %s\n", Status(c.Status), c.ID, Muted(c.Name))
		for _, issue := range c.Issues {
			fmt.Fprintf(w, "           └─ %s\n", issue)
		}
	}
	fmt.Fprintf(w, "\n  %d passed, %d warnings, %d failed\n",
		r.Summary.Pass, r.Summary.Warn, r.Summary.Fail)
}

// RenderValidation prints the consistency report.
func RenderValidation(w io.Writer, r validate.Report) {
	if r.Passed {
		fmt.Fprintf(w, "%s (%d warnings)\n", Pass(IconPass+" consistency check passed"), r.WarningCount)
	} else {
		fmt.Fprintf(w, "%s\n", Fail(IconFail+" consistency check failed"))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s %s\n", Fail(IconFail), e)
	}
	for _, wn := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", Warn(IconWarn), wn)
	}
}

// RenderAnalysis prints the roadmap as a table of phases with their disk
// status, marking the current phase.
func RenderAnalysis(w io.Writer, a analyze.Analysis) {
	if a.Error != "" {
		fmt.Fprintf(w, "%s\n", Fail(a.Error))
		return
	}
	fmt.Fprintf(w, "%s %d phases, %d complete, %d/%d plans executed (%d%%)\n\n",
		Header("Roadmap:"), a.PhaseCount, a.CompletedPhases, a.TotalSummaries, a.TotalPlans, a.ProgressPercent)
	for _, p := range a.Phases {
		marker := "  "
		if a.CurrentPhase != nil && *a.CurrentPhase == p.Number {
			marker = Warn(IconNext) + " "
		}
		fmt.Fprintf(w, "  %s%-6s %-30s %s\n", marker, p.Number, p.Name, diskStatus(p))
	}
}

func diskStatus(p analyze.PhaseStatus) string {
	switch p.DiskStatus {
	case analyze.Complete:
		return Pass(fmt.Sprintf("%s (%d/%d)", p.DiskStatus, p.SummaryCount, p.PlanCount))
	case analyze.Planned, analyze.Partial:
		return Warn(fmt.Sprintf("%s (%d/%d)", p.DiskStatus, p.SummaryCount, p.PlanCount))
	default:
		return Muted(p.DiskStatus)
	}
}

// RenderProgressBar prints a one-line bar of executed plans.
func RenderProgressBar(w io.Writer, r analyze.ProgressReport) {
	const width = 20
	filled := r.Percent * width / 100
	bar := Pass(strings.Repeat("█", filled)) + Muted(strings.Repeat("░", width-filled))
	fmt.Fprintf(w, "%s %s %d%% (%d/%d plans)\n", Header(r.MilestoneVersion), bar, r.Percent, r.TotalSummaries, r.TotalPlans)
}

// RenderProgressTable prints one row per phase directory.
func RenderProgressTable(w io.Writer, r analyze.ProgressReport) {
	fmt.Fprintf(w, "%s %s %s\n\n", Header("Milestone:"), r.MilestoneVersion, r.MilestoneName)
	fmt.Fprintf(w, "  %-8s %-30s %-7s %s\n", "Phase", "Name", "Plans", "Status")
	for _, p := range r.Phases {
		fmt.Fprintf(w, "  %-8s %-30s %-7s %s\n", p.Number, p.Name,
			fmt.Sprintf("%d/%d", p.Summaries, p.Plans), progressStatus(p.Status))
	}
	fmt.Fprintf(w, "\n  %d/%d plans executed (%d%%)\n", r.TotalSummaries, r.TotalPlans, r.Percent)
}

func progressStatus(s string) string {
	switch s {
	case analyze.ProgressComplete:
		return Pass(s)
	case analyze.ProgressInProgress, analyze.ProgressPlanned:
		return Warn(s)
	default:
		return Muted(s)
	}
}
