package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".planning", "phases"), 0755))
	s, err := store.Find(root)
	require.NoError(t, err)
	return s
}

func writePhaseFile(t *testing.T, s *store.Store, dir, name, content string) {
	t.Helper()
	p := filepath.Join(s.PhasesDir(), dir)
	require.NoError(t, os.MkdirAll(p, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(p, name), []byte(content), 0644))
}

func num(t *testing.T, s string) phase.Number {
	t.Helper()
	n, err := phase.ParseNumber(s)
	require.NoError(t, err)
	return n
}

const fullSummary = `---
phase: "01"
name: Foundation
one-liner: Set up Prisma with User and Project models
key-files:
  - prisma/schema.prisma
  - src/lib/db.ts
tech-stack:
  added:
    - prisma
    - zod
patterns-established:
  - Repository pattern
key-decisions:
  - Use Prisma over Drizzle: Better DX and ecosystem
  - Single database
dependency-graph:
  provides:
    - Database schema
  affects:
    - API layer
---

# Summary
`

func TestExtractSummary_AllFields(t *testing.T) {
	s := newStore(t)
	writePhaseFile(t, s, "01-foundation", "01-01-SUMMARY.md", fullSummary)
	path := filepath.Join(s.PhasesDir(), "01-foundation", "01-01-SUMMARY.md")

	got, err := ExtractSummary(path, "01-foundation/01-01-SUMMARY.md")
	require.NoError(t, err)
	require.NotNil(t, got.OneLiner)
	assert.Equal(t, "Set up Prisma with User and Project models", *got.OneLiner)
	assert.Equal(t, []string{"prisma/schema.prisma", "src/lib/db.ts"}, got.KeyFiles)
	assert.Equal(t, []string{"prisma", "zod"}, got.TechAdded)
	assert.Equal(t, []string{"Repository pattern"}, got.Patterns)
	assert.Equal(t, []Decision{
		{Summary: "Use Prisma over Drizzle", Rationale: "Better DX and ecosystem"},
		{Summary: "Single database", Rationale: ""},
	}, got.Decisions)
}

func TestExtractSummary_MissingFile(t *testing.T) {
	got, err := ExtractSummary(filepath.Join(t.TempDir(), "nope.md"), "nope.md")
	require.NoError(t, err)
	assert.Equal(t, "File not found", got.Error)
	assert.Equal(t, map[string]any{"path": "nope.md", "error": "File not found"}, got.Select())
}

func TestExtractSummary_NoFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01-01-SUMMARY.md")
	require.NoError(t, os.WriteFile(path, []byte("# Just a body\n"), 0644))

	got, err := ExtractSummary(path, "x")
	require.NoError(t, err)
	assert.Nil(t, got.OneLiner)
	assert.Empty(t, got.KeyFiles)
	assert.NotNil(t, got.KeyFiles)
	assert.Empty(t, got.Decisions)
}

func TestSummary_Select(t *testing.T) {
	one := "done"
	s := Summary{Path: "p", OneLiner: &one, KeyFiles: []string{"a"}, TechAdded: []string{}, Patterns: []string{}, Decisions: []Decision{}}

	got := s.Select("one_liner", " key_files", "bogus")
	assert.Equal(t, map[string]any{"path": "p", "one_liner": &one, "key_files": []string{"a"}}, got)
	assert.Len(t, s.Select(), 1+len(SummaryFields))
}

func TestIndexPlans(t *testing.T) {
	s := newStore(t)
	writePhaseFile(t, s, "03-api", "03-01-PLAN.md", "---\nwave: 1\nobjective: Build routes\nfiles-modified: [src/a.ts, src/b.ts]\n---\n## Task 1: one\n## Task 2: two\n")
	writePhaseFile(t, s, "03-api", "03-02-PLAN.md", "---\nwave: 2\nautonomous: false\n---\n<task type=\"auto\">\n</task>\n")
	writePhaseFile(t, s, "03-api", "03-03-PLAN.md", "# no header\n### Task 1\n")
	writePhaseFile(t, s, "03-api", "03-01-SUMMARY.md", "---\none-liner: x\n---\n")

	idx, err := IndexPlans(s, num(t, "3"))
	require.NoError(t, err)
	assert.Equal(t, "03", idx.Phase)
	require.Len(t, idx.Plans, 3)

	first := idx.Plans[0]
	assert.Equal(t, "03-01", first.ID)
	assert.Equal(t, 1, first.Wave)
	assert.True(t, first.Autonomous)
	assert.Equal(t, "Build routes", first.Objective)
	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, first.FilesModified)
	assert.Equal(t, 2, first.TaskCount)
	assert.True(t, first.HasSummary)

	assert.False(t, idx.Plans[1].Autonomous)
	assert.Equal(t, 1, idx.Plans[1].TaskCount)
	assert.Equal(t, 1, idx.Plans[2].Wave)
	assert.Equal(t, 1, idx.Plans[2].TaskCount)

	assert.Equal(t, map[string][]string{"1": {"03-01", "03-03"}, "2": {"03-02"}}, idx.Waves)
	assert.Equal(t, []string{"03-02", "03-03"}, idx.Incomplete)
	assert.True(t, idx.HasCheckpoints)
}

func TestIndexPlans_MissingPhase(t *testing.T) {
	s := newStore(t)
	idx, err := IndexPlans(s, num(t, "9"))
	require.NoError(t, err)
	assert.Equal(t, "Phase not found", idx.Error)
	assert.Empty(t, idx.Plans)
}

func TestCollectHistory_Empty(t *testing.T) {
	h, err := CollectHistory(newStore(t))
	require.NoError(t, err)
	assert.Empty(t, h.Phases)
	assert.NotNil(t, h.Decisions)
	assert.NotNil(t, h.TechStack)
}

func TestCollectHistory_MergesPhases(t *testing.T) {
	s := newStore(t)
	writePhaseFile(t, s, "01-foundation", "01-01-SUMMARY.md", fullSummary)
	writePhaseFile(t, s, "01-foundation", "01-02-SUMMARY.md", "---\nphase: \"01\"\nprovides: [Auth]\ntech-stack:\n  added: [zod, jose]\n---\n")
	writePhaseFile(t, s, "02-api", "02-01-SUMMARY.md", "---\nname: API\nkey-decisions:\n  - REST over GraphQL\n---\n")
	writePhaseFile(t, s, "02-api", "02-02-SUMMARY.md", "---\nbroken: [unclosed\n---\n")

	h, err := CollectHistory(s)
	require.NoError(t, err)
	require.Len(t, h.Phases, 2)

	one := h.Phases["01"]
	assert.Equal(t, "Foundation", one.Name)
	assert.Equal(t, []string{"Database schema", "Auth"}, one.Provides)
	assert.Equal(t, []string{"API layer"}, one.Affects)
	assert.Equal(t, []string{"Repository pattern"}, one.Patterns)

	two := h.Phases["02"]
	assert.Equal(t, "API", two.Name)
	assert.Empty(t, two.Provides)

	assert.Equal(t, []HistoryDecision{
		{Phase: "01", Decision: "Use Prisma over Drizzle: Better DX and ecosystem"},
		{Phase: "01", Decision: "Single database"},
		{Phase: "02", Decision: "REST over GraphQL"},
	}, h.Decisions)
	assert.Equal(t, []string{"prisma", "zod", "jose"}, h.TechStack)
}
