package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

func setup(t *testing.T, roadmap string) *store.Store {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".planning", "phases"), 0755))
	s, err := store.Find(root)
	require.NoError(t, err)
	if roadmap != "" {
		require.NoError(t, os.WriteFile(s.RoadmapPath(), []byte(roadmap), 0644))
	}
	return s
}

func touch(t *testing.T, s *store.Store, dir string, files ...string) {
	t.Helper()
	p := filepath.Join(s.PhasesDir(), dir)
	require.NoError(t, os.MkdirAll(p, 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(p, f), []byte("# "+f+"\n"), 0644))
	}
}

func num(t *testing.T, s string) phase.Number {
	t.Helper()
	n, err := phase.ParseNumber(s)
	require.NoError(t, err)
	return n
}

const roadmapDoc = `# Roadmap v1.0

### Phase 1: Foundation
**Goal:** Set up project infrastructure

- Database setup
- CI/CD pipeline

### Phase 2: API
**Goal:** Build REST API
**Depends on:** Phase 1

### Phase 2.1: Hotfix (INSERTED)
**Goal:** Emergency fix
`

func TestGetPhase(t *testing.T) {
	s := setup(t, roadmapDoc)
	got, err := GetPhase(s, num(t, "1"))
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "1", got.PhaseNumber)
	assert.Equal(t, "Foundation", *got.PhaseName)
	assert.Equal(t, "Set up project infrastructure", *got.Goal)
	assert.Contains(t, *got.Section, "CI/CD pipeline")
	assert.NotContains(t, *got.Section, "Phase 2")
}

func TestGetPhase_Decimal(t *testing.T) {
	s := setup(t, roadmapDoc)
	got, err := GetPhase(s, num(t, "2.1"))
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Hotfix (INSERTED)", *got.PhaseName)
	assert.Equal(t, "Emergency fix", *got.Goal)
}

func TestGetPhase_Missing(t *testing.T) {
	s := setup(t, roadmapDoc)
	got, err := GetPhase(s, num(t, "5"))
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Empty(t, got.Error)
}

func TestGetPhase_NoRoadmap(t *testing.T) {
	s := setup(t, "")
	got, err := GetPhase(s, num(t, "1"))
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, "ROADMAP.md not found", got.Error)
}

func TestGetPhase_Malformed(t *testing.T) {
	s := setup(t, "# Roadmap v1.0\n\n## Phases\n\n- [ ] **Phase 1: Foundation** - Set up project\n- [ ] **Phase 2: API** - Build REST API\n")
	got, err := GetPhase(s, num(t, "1"))
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, "malformed_roadmap", got.Error)
	assert.Contains(t, got.Message, "missing")
}

func TestRoadmap_DiskStatus(t *testing.T) {
	s := setup(t, `# Roadmap v1.0

### Phase 1: Foundation
**Goal:** Set up infrastructure

### Phase 2: Authentication
**Goal:** Add user auth

### Phase 3: Features
**Goal:** Build core features
`)
	touch(t, s, "01-foundation", "01-01-PLAN.md", "01-01-SUMMARY.md")
	touch(t, s, "02-authentication", "02-01-PLAN.md")

	a, err := Roadmap(s)
	require.NoError(t, err)
	require.Equal(t, 3, a.PhaseCount)
	assert.Equal(t, Complete, a.Phases[0].DiskStatus)
	assert.Equal(t, Planned, a.Phases[1].DiskStatus)
	assert.Equal(t, NoDirectory, a.Phases[2].DiskStatus)
	assert.Equal(t, 1, a.CompletedPhases)
	assert.Equal(t, 2, a.TotalPlans)
	assert.Equal(t, 1, a.TotalSummaries)
	assert.Equal(t, 50, a.ProgressPercent)
	require.NotNil(t, a.CurrentPhase)
	assert.Equal(t, "2", *a.CurrentPhase)
	require.NotNil(t, a.NextPhase)
	assert.Equal(t, "3", *a.NextPhase)
}

func TestRoadmap_GoalsAndDependencies(t *testing.T) {
	s := setup(t, "# Roadmap\n\n### Phase 1: Setup\n**Goal:** Initialize project\n**Depends on:** Nothing\n\n### Phase 2: Build\n**Goal:** Build features\n**Depends on:** Phase 1\n")
	a, err := Roadmap(s)
	require.NoError(t, err)
	require.Len(t, a.Phases, 2)
	assert.Equal(t, "Initialize project", *a.Phases[0].Goal)
	assert.Equal(t, "Nothing", *a.Phases[0].DependsOn)
	assert.Equal(t, "Phase 1", *a.Phases[1].DependsOn)
}

func TestRoadmap_ResearchAndContext(t *testing.T) {
	s := setup(t, "### Phase 1: A\n### Phase 2: B\n### Phase 3: C\n")
	touch(t, s, "01-a", "01-RESEARCH.md")
	touch(t, s, "02-b", "02-CONTEXT.md")
	touch(t, s, "03-c")
	a, err := Roadmap(s)
	require.NoError(t, err)
	assert.Equal(t, Researched, a.Phases[0].DiskStatus)
	assert.Equal(t, Discussed, a.Phases[1].DiskStatus)
	assert.Equal(t, Empty, a.Phases[2].DiskStatus)
	assert.Nil(t, a.CurrentPhase)
	assert.Equal(t, "1", *a.NextPhase)
}

func TestRoadmap_Missing(t *testing.T) {
	s := setup(t, "")
	a, err := Roadmap(s)
	require.NoError(t, err)
	assert.Equal(t, "ROADMAP.md not found", a.Error)
	assert.Empty(t, a.Phases)
}
