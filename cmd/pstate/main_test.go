package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

// run executes pstate with --cwd dir and returns what it printed.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	argv := append([]string{"pstate", "--cwd", dir}, args...)
	err := newApp().Run(context.Background(), argv)
	return buf.String(), err
}

func runJSON(t *testing.T, dir string, args ...string) map[string]any {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), "output: %s", out)
	return m
}

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, dir, "init", "--name", "demo")
	require.NoError(t, err)
	return dir
}

func TestMissingPlanningDir(t *testing.T) {
	_, err := run(t, t.TempDir(), "signal", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".planning directory not found")
	assert.Equal(t, planerr.ExitNotFound, planerr.ExitCode(err))
}

func TestPhaseAddAndInsert(t *testing.T) {
	dir := initProject(t)

	added := runJSON(t, dir, "phase", "add", "Foundation", "work")
	assert.EqualValues(t, 1, added["phase_number"])
	assert.Equal(t, "01", added["padded"])
	assert.Equal(t, "foundation-work", added["slug"])
	assert.DirExists(t, filepath.Join(dir, ".planning", "phases", "01-foundation-work"))

	ins := runJSON(t, dir, "phase", "insert", "1", "Hotfix")
	assert.Equal(t, "01.1", ins["phase_number"])
	assert.Equal(t, "1", ins["after_phase"])

	next := runJSON(t, dir, "phase", "next-decimal", "1")
	assert.Equal(t, "01.2", next["next"])
	assert.Equal(t, []any{"01.1"}, next["existing"])
}

func TestPhaseRemoveNeedsNumber(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "phase", "remove")
	require.Error(t, err)
	assert.Equal(t, planerr.ExitUsage, planerr.ExitCode(err))
}

func TestSignalRoundTrip(t *testing.T) {
	dir := initProject(t)

	_, err := run(t, dir, "signal", "write", "active-agent", "executor")
	require.NoError(t, err)

	read := runJSON(t, dir, "signal", "read", "active-agent")
	assert.Equal(t, true, read["exists"])
	assert.Equal(t, "executor", read["value"])

	list := runJSON(t, dir, "signal", "list")
	assert.Len(t, list["signals"], 1)

	del := runJSON(t, dir, "signal", "delete", "active-agent")
	assert.Equal(t, true, del["deleted"])
	del = runJSON(t, dir, "signal", "delete", "active-agent")
	assert.Equal(t, true, del["deleted"])

	stale := runJSON(t, dir, "signal", "check-stale")
	assert.Equal(t, []any{}, stale["stale"])
}

func TestSignalInvalidName(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "signal", "write", "bogus", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid signal name")
	assert.Equal(t, planerr.ExitUsage, planerr.ExitCode(err))
}

func TestProgressCommands(t *testing.T) {
	dir := initProject(t)

	out, err := run(t, dir, "--raw", "progress", "write", "01-03", "--task", "1", "--total", "2")
	require.NoError(t, err)
	assert.Equal(t, "Progress: 01-03 task 1/2\n", out)

	read := runJSON(t, dir, "progress", "read", "01-03")
	assert.Equal(t, true, read["exists"])
	assert.EqualValues(t, 1, read["last_completed_task"])

	del := runJSON(t, dir, "progress", "delete", "01-03")
	assert.Equal(t, true, del["existed"])

	read = runJSON(t, dir, "progress", "read", "01-03")
	assert.Equal(t, false, read["exists"])
}

func TestProgressWriteRequiresTaskAndTotal(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "progress", "write", "01-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Usage")
}

func TestStateUpdateAndPatch(t *testing.T) {
	dir := initProject(t)

	up := runJSON(t, dir, "state", "update", "Status", "building")
	assert.Equal(t, true, up["updated"])

	patch := runJSON(t, dir, "state", "patch", "--Current Plan", "2", "Status=verifying", "--Nope", "x")
	assert.ElementsMatch(t, []any{"Current Plan", "Status"}, patch["updated"])
	assert.Equal(t, []any{"Nope"}, patch["failed"])

	snap := runJSON(t, dir, "state", "snapshot")
	assert.Equal(t, "verifying", snap["status"])
	assert.Equal(t, "2", snap["current_plan"])
}

func TestStateBlockers(t *testing.T) {
	dir := initProject(t)

	add := runJSON(t, dir, "state", "add-blocker", "--text", "Waiting on API key")
	assert.Equal(t, true, add["added"])

	res := runJSON(t, dir, "state", "resolve-blocker", "--text", "api key")
	assert.Equal(t, true, res["resolved"])

	dec := runJSON(t, dir, "state", "add-decision", "--phase", "1", "--summary", "Use SQLite")
	assert.Equal(t, true, dec["added"])

	snap := runJSON(t, dir, "state", "snapshot")
	assert.Len(t, snap["decisions"], 1)
	assert.Empty(t, snap["blockers"])
}

func TestFrontmatterSet(t *testing.T) {
	dir := initProject(t)
	path := filepath.Join(dir, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nphase: 01\n---\n# Plan\n"), 0644))

	_, err := run(t, dir, "frontmatter", "set", "plan.md", "--field", "status", "--value", `"done"`)
	require.NoError(t, err)

	got := runJSON(t, dir, "frontmatter", "get", "plan.md", "--field", "status")
	assert.Equal(t, "done", got["status"])
	assert.FileExists(t, atomicfile.BackupPath(path))
}

func TestSessionEnd(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "signal", "write", "active-plan", "01-02")
	require.NoError(t, err)
	_, err = run(t, dir, "progress", "write", "01-02", "--task", "2", "--total", "4")
	require.NoError(t, err)

	end := runJSON(t, dir, "session", "end")
	assert.EqualValues(t, 1, end["signals_removed"])
	assert.Len(t, end["recovered"], 1)
	assert.Equal(t, true, end["state_updated"])
}

func TestValidateFreshProject(t *testing.T) {
	dir := initProject(t)
	r := runJSON(t, dir, "validate", "consistency")
	assert.Equal(t, true, r["passed"])
}

func TestParsePatchArgs(t *testing.T) {
	got, err := parsePatchArgs([]string{"--Status", "building", "--Current Phase=2", "Plan=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Status": "building", "Current Phase": "2", "Plan": "3"}, got)

	_, err = parsePatchArgs([]string{"--Status"})
	assert.Error(t, err)
	_, err = parsePatchArgs(nil)
	assert.Error(t, err)
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestCheckStale_MinutesOverride(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "signal", "write", "active-agent", "executor")
	require.NoError(t, err)
	backdate(t, filepath.Join(dir, ".planning", ".active-agent"), 7*time.Minute)

	def := runJSON(t, dir, "signal", "check-stale")
	assert.Empty(t, def["stale"])

	short := runJSON(t, dir, "signal", "check-stale", "--minutes", "5")
	require.Len(t, short["stale"], 1)
	assert.Equal(t, "active-agent", short["stale"].([]any)[0].(map[string]any)["name"])

	_, err = run(t, dir, "signal", "check-stale", "--minutes=-1")
	require.Error(t, err)
	assert.Equal(t, planerr.ExitUsage, planerr.ExitCode(err))
}

func TestCheckOrphaned_MinutesOverride(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, dir, "progress", "write", "01-02", "--task", "1", "--total", "3")
	require.NoError(t, err)
	backdate(t, filepath.Join(dir, ".planning", ".PROGRESS-01-02"), 7*time.Minute)

	def := runJSON(t, dir, "progress", "check-orphaned")
	assert.Empty(t, def["orphaned"])

	short := runJSON(t, dir, "progress", "check-orphaned", "--minutes", "5")
	assert.Len(t, short["orphaned"], 1)

	all := runJSON(t, dir, "progress", "check-orphaned", "--minutes", "0")
	assert.Len(t, all["orphaned"], 1)
}

func TestSummaryExtract(t *testing.T) {
	dir := initProject(t)
	path := filepath.Join(dir, "01-01-SUMMARY.md")
	require.NoError(t, os.WriteFile(path, []byte("---\none-liner: Built auth\nkey-files: [a.go]\n---\n"), 0644))

	all := runJSON(t, dir, "summary-extract", "01-01-SUMMARY.md")
	assert.Equal(t, "01-01-SUMMARY.md", all["path"])
	assert.Equal(t, "Built auth", all["one_liner"])
	assert.Equal(t, []any{"a.go"}, all["key_files"])
	assert.Contains(t, all, "decisions")

	some := runJSON(t, dir, "summary-extract", "01-01-SUMMARY.md", "--fields", "one_liner")
	assert.Len(t, some, 2)

	missing := runJSON(t, dir, "summary-extract", "nope.md")
	assert.Equal(t, "File not found", missing["error"])
}

func TestPlanIndexAndHistoryDigest(t *testing.T) {
	dir := initProject(t)
	runJSON(t, dir, "phase", "add", "Foundation")
	phaseDir := filepath.Join(dir, ".planning", "phases", "01-foundation")
	require.NoError(t, os.WriteFile(filepath.Join(phaseDir, "01-01-PLAN.md"), []byte("---\nwave: 2\n---\n## Task 1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(phaseDir, "01-01-SUMMARY.md"),
		[]byte("---\nphase: \"01\"\nname: Foundation\nprovides: [Auth]\ntech-stack:\n  added: [jose]\n---\n"), 0644))

	idx := runJSON(t, dir, "phase", "plan-index", "1")
	assert.Equal(t, "01", idx["phase"])
	assert.Equal(t, map[string]any{"2": []any{"01-01"}}, idx["waves"])
	assert.Empty(t, idx["incomplete"])

	h := runJSON(t, dir, "history-digest")
	phases := h["phases"].(map[string]any)
	require.Contains(t, phases, "01")
	assert.Equal(t, []any{"Auth"}, phases["01"].(map[string]any)["provides"])
	assert.Equal(t, []any{"jose"}, h["tech_stack"])
}

func TestRoadmapProgressFormats(t *testing.T) {
	dir := initProject(t)
	runJSON(t, dir, "phase", "add", "Foundation")
	phaseDir := filepath.Join(dir, ".planning", "phases", "01-foundation")
	for _, f := range []string{"01-01-PLAN.md", "01-01-SUMMARY.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(phaseDir, f), []byte("# x\n"), 0644))
	}

	js := runJSON(t, dir, "roadmap", "progress")
	assert.EqualValues(t, 1, js["total_plans"])
	assert.EqualValues(t, 100, js["percent"])

	bar, err := run(t, dir, "roadmap", "progress", "--format", "bar")
	require.NoError(t, err)
	assert.Contains(t, bar, "1/1")
	assert.Contains(t, bar, "100%")

	table, err := run(t, dir, "roadmap", "progress", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, table, "Phase")
	assert.Contains(t, table, "foundation")

	_, err = run(t, dir, "roadmap", "progress", "--format", "xml")
	assert.Equal(t, planerr.ExitUsage, planerr.ExitCode(err))
}

func TestMilestoneComplete(t *testing.T) {
	dir := initProject(t)
	runJSON(t, dir, "phase", "add", "Foundation")

	m := runJSON(t, dir, "milestone", "complete", "v1.0", "--name", "MVP Foundation")
	assert.Equal(t, "v1.0", m["version"])
	assert.Equal(t, "MVP Foundation", m["name"])
	assert.EqualValues(t, 1, m["phases"])
	assert.FileExists(t, filepath.Join(dir, ".planning", "milestones", "v1.0-ROADMAP.md"))

	data, err := os.ReadFile(filepath.Join(dir, ".planning", "MILESTONES.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "v1.0 MVP Foundation")
}
