package state

import (
	"strings"
	"testing"
	"time"
)

func TestAddDecision_ReplacesPlaceholder(t *testing.T) {
	d := Parse("# Project State\n\n### Decisions\nNone yet.\n")
	d.AddDecision("1", "Use React", "")
	got := d.Text()
	if !strings.Contains(got, "- [Phase 1]: Use React") {
		t.Errorf("decision missing: %q", got)
	}
	if strings.Contains(got, "None yet") {
		t.Errorf("placeholder not removed: %q", got)
	}
}

func TestAddDecision_Table(t *testing.T) {
	d := Parse(`# Project State

## Decisions Made

| Phase | Decision | Rationale |
|-------|----------|-----------|
| 01 | Use Prisma | Better DX |

## Blockers
`)
	d.AddDecision("02", "JWT auth", "Stateless")
	snap := d.Snapshot()
	if len(snap.Decisions) != 2 {
		t.Fatalf("decisions = %+v", snap.Decisions)
	}
	if snap.Decisions[1] != (Decision{Phase: "02", Summary: "JWT auth", Rationale: "Stateless"}) {
		t.Errorf("decision = %+v", snap.Decisions[1])
	}
	if !strings.Contains(d.Text(), "| 02 | JWT auth | Stateless |\n\n## Blockers") {
		t.Errorf("row not appended at end of table: %q", d.Text())
	}
}

func TestAddDecision_CreatesSection(t *testing.T) {
	d := Parse("# Project State\n\n**Status:** planning\n")
	d.AddDecision("3", "Use Redis", "Pub/sub")
	if !strings.Contains(d.Text(), "### Decisions\n\n- [Phase 3]: Use Redis - Pub/sub\n") {
		t.Errorf("got %q", d.Text())
	}
}

func TestAddBlocker(t *testing.T) {
	d := Parse("# Project State\n\n### Blockers\nNone\n\n### Next\n")
	d.AddBlocker("API key missing")
	got := d.Text()
	if !strings.Contains(got, "### Blockers\n- API key missing\n\n### Next") {
		t.Errorf("got %q", got)
	}
}

func TestResolveBlocker(t *testing.T) {
	d := Parse("# Project State\n\n### Blockers\n- API key missing\n- Database timeout\n")
	if n := d.ResolveBlocker("api key"); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	got := d.Text()
	if strings.Contains(got, "API key missing") || !strings.Contains(got, "Database timeout") {
		t.Errorf("got %q", got)
	}
}

func TestResolveBlocker_LastOneLeavesPlaceholder(t *testing.T) {
	d := Parse("### Blockers\n- API key missing\n")
	d.ResolveBlocker("API key")
	if d.Text() != "### Blockers\nNone\n" {
		t.Errorf("got %q", d.Text())
	}
}

func TestResolveBlocker_NoMatch(t *testing.T) {
	d := Parse("### Blockers\n- API key missing\n")
	if n := d.ResolveBlocker("database"); n != 0 {
		t.Fatalf("removed %d, want 0", n)
	}
	if d.Changed() {
		t.Error("document should be unchanged")
	}
}

func TestRecordSession_UpdatesExistingFields(t *testing.T) {
	d := Parse("# Project State\n\n**Last session:** none\n**Last Date:** none\n**Stopped At:** none\n**Resume File:** none\n")
	now := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	updated := d.RecordSession(now, "Finished phase 2", "")
	if len(updated) != 4 {
		t.Errorf("updated = %v", updated)
	}
	got := d.Text()
	for _, want := range []string{
		"**Last session:** 2026-02-11T09:30:00Z",
		"**Stopped At:** Finished phase 2",
		"**Resume File:** None",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestRecordSession_AppendsSection(t *testing.T) {
	d := Parse("# Project State\n")
	d.RecordSession(time.Now(), "Plan 2 task 3", ".planning/phases/02-api/02-02-PLAN.md")
	got := d.Text()
	if !strings.Contains(got, "## Session Continuity") || !strings.Contains(got, "**Resume File:** .planning/phases/02-api/02-02-PLAN.md") {
		t.Errorf("got %q", got)
	}
}

func TestAppendRecovery_InsideSessionSection(t *testing.T) {
	d := Parse("# State\n\n## Session Continuity\n\n**Stopped At:** x\n\n## Notes\n\nkeep\n")
	d.AppendRecovery("- 01-02: task 2/5")
	got := d.Text()
	want := "## Session Continuity\n\n**Stopped At:** x\n\n### Recovery Info\n\n- 01-02: task 2/5\n\n## Notes"
	if !strings.Contains(got, want) {
		t.Errorf("got %q", got)
	}
}

func TestAppendRecovery_AtEndAndExtends(t *testing.T) {
	d := Parse("# State\n\n**Status:** executing\n")
	d.AppendRecovery("- 01-02: task 2/5")
	d.AppendRecovery("- 01-03: task 1/4")
	got := d.Text()
	if strings.Count(got, "### Recovery Info") != 1 {
		t.Fatalf("recovery heading duplicated: %q", got)
	}
	if !strings.HasSuffix(got, "### Recovery Info\n\n- 01-02: task 2/5\n- 01-03: task 1/4\n") {
		t.Errorf("got %q", got)
	}
}
