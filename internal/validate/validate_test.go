package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/store"
)

func setup(t *testing.T, roadmap string, dirs ...string) *store.Store {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".planning", "phases"), 0755))
	s, err := store.Find(root)
	require.NoError(t, err)
	if roadmap != "" {
		require.NoError(t, os.WriteFile(s.RoadmapPath(), []byte(roadmap), 0644))
	}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(s.PhasesDir(), d), 0755))
	}
	return s
}

func hasWarning(r Report, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestConsistency_Passes(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n### Phase 2: B\n### Phase 3: C\n", "01-a", "02-b", "03-c")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.True(t, r.Passed)
	assert.Zero(t, r.WarningCount)
	assert.Empty(t, r.Errors)
}

func TestConsistency_OrphanDirectory(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n", "01-a", "02-orphan")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.True(t, r.Passed)
	assert.Greater(t, r.WarningCount, 0)
	assert.True(t, hasWarning(r, "disk but not in ROADMAP"), r.Warnings)
}

func TestConsistency_MissingDirectory(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n### Phase 2: B\n", "01-a")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.True(t, hasWarning(r, "Phase 2 is in ROADMAP.md but has no directory"), r.Warnings)
}

func TestConsistency_Gap(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n### Phase 3: C\n", "01-a", "03-c")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.True(t, hasWarning(r, "Gap in phase numbering"), r.Warnings)
}

func TestConsistency_DecimalGapAllowed(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n### Phase 1.1: B\n### Phase 1.3: C\n### Phase 2: D\n", "01-a", "01.1-b", "01.3-c", "02-d")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.Zero(t, r.WarningCount, r.Warnings)
}

func TestConsistency_State(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n", "01-a")
	require.NoError(t, os.WriteFile(s.StatePath(), []byte("# State\n\n**Current Phase:** 04\n**Status:** In progress\n"), 0644))
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.True(t, hasWarning(r, "current phase 4 is not in ROADMAP.md"), r.Warnings)
	assert.True(t, hasWarning(r, "has no directory on disk"), r.Warnings)
}

func TestConsistency_OrphanSummary(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n", "01-a")
	dir := filepath.Join(s.PhasesDir(), "01-a")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-01-PLAN.md"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-01-SUMMARY.md"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-02-SUMMARY.md"), nil, 0644))
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"01-a/01-02-SUMMARY.md has no matching PLAN"}, r.Warnings)
}

func TestConsistency_MissingRoadmap(t *testing.T) {
	s := setup(t, "")
	r, err := Consistency(s)
	require.NoError(t, err)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"ROADMAP.md not found"}, r.Errors)
}

func TestConsistency_ReadOnly(t *testing.T) {
	s := setup(t, "# Roadmap\n### Phase 1: A\n### Phase 3: C\n", "01-a", "07-x")
	before, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	_, err = Consistency(s)
	require.NoError(t, err)
	after, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}
