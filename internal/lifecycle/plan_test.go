package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/phase"
)

func dirsFor(t *testing.T, names ...string) []phase.Dir {
	t.Helper()
	var out []phase.Dir
	for _, name := range names {
		n, slug, ok := phase.ParseDirName(name)
		require.True(t, ok, name)
		out = append(out, phase.Dir{Number: n, Name: name, Slug: slug, Path: "/p/" + name})
	}
	return out
}

func TestPlanRemoval_Whole(t *testing.T) {
	dirs := dirsFor(t, "01-foundation", "02-auth", "03-features", "03.1-hotfix", "04-polish")
	files := map[string][]string{
		"03-features": {"03-01-PLAN.md", "03-02-PLAN.md", "03-01-SUMMARY.md", "notes.md"},
		"03.1-hotfix": {"03.1-01-PLAN.md"},
	}
	p := PlanRemoval(dirs, files, num(t, "2"))

	require.Len(t, p.Delete, 1)
	assert.Equal(t, "02-auth", p.Delete[0].Name)

	var names []string
	for _, m := range p.Moves {
		names = append(names, m.From.Name+">"+m.Name)
	}
	assert.Equal(t, []string{"03-features>02-features", "03.1-hotfix>02.1-hotfix", "04-polish>03-polish"}, names)
	assert.Equal(t, []FileMove{
		{From: "03-01-PLAN.md", To: "02-01-PLAN.md"},
		{From: "03-02-PLAN.md", To: "02-02-PLAN.md"},
		{From: "03-01-SUMMARY.md", To: "02-01-SUMMARY.md"},
	}, p.Moves[0].Files)
	assert.Equal(t, []FileMove{{From: "03.1-01-PLAN.md", To: "02.1-01-PLAN.md"}}, p.Moves[1].Files)
}

func TestPlanRemoval_WholeTakesChildren(t *testing.T) {
	p := PlanRemoval(dirsFor(t, "02-a", "02.1-b", "02.2-c", "03-d"), nil, num(t, "2"))
	require.Len(t, p.Delete, 3)
	require.Len(t, p.Moves, 1)
	assert.Equal(t, "02-d", p.Moves[0].Name)
}

func TestPlanRemoval_Decimal(t *testing.T) {
	dirs := dirsFor(t, "06-main", "06.1-fix-a", "06.2-fix-b", "06.3-fix-c", "07-next")
	p := PlanRemoval(dirs, map[string][]string{"06.3-fix-c": {"06.3-01-PLAN.md"}}, num(t, "6.2"))

	require.Len(t, p.Delete, 1)
	assert.Equal(t, "06.2-fix-b", p.Delete[0].Name)
	require.Len(t, p.Moves, 1)
	assert.Equal(t, "06.2-fix-c", p.Moves[0].Name)
	assert.Equal(t, []FileMove{{From: "06.3-01-PLAN.md", To: "06.2-01-PLAN.md"}}, p.Moves[0].Files)
}

func TestPlanRemoval_KeepsUnpaddedNames(t *testing.T) {
	p := PlanRemoval(dirsFor(t, "1-a", "2-b", "3-c"), map[string][]string{"3-c": {"3-01-PLAN.md"}}, num(t, "1"))
	require.Len(t, p.Moves, 2)
	assert.Equal(t, "1-b", p.Moves[0].Name)
	assert.Equal(t, "2-c", p.Moves[1].Name)
	assert.Equal(t, "2-01-PLAN.md", p.Moves[1].Files[0].To)
}

func TestPlanRemoval_TwoDigitPhaseKeepsPadding(t *testing.T) {
	dirs := dirsFor(t, "08-h", "09-i", "10-j", "10.1-k")
	files := map[string][]string{"10-j": {"10-01-PLAN.md"}, "10.1-k": {"10.1-01-PLAN.md"}}
	p := PlanRemoval(dirs, files, num(t, "9"))

	require.Len(t, p.Moves, 2)
	assert.Equal(t, "09-j", p.Moves[0].Name)
	assert.Equal(t, []FileMove{{From: "10-01-PLAN.md", To: "09-01-PLAN.md"}}, p.Moves[0].Files)
	assert.Equal(t, "09.1-k", p.Moves[1].Name)
	assert.Equal(t, []FileMove{{From: "10.1-01-PLAN.md", To: "09.1-01-PLAN.md"}}, p.Moves[1].Files)
}

func TestRemap(t *testing.T) {
	whole := RenumberPlan{Target: num(t, "3")}
	for in, want := range map[string]string{"4": "3", "4.2": "3.2", "10": "9"} {
		got, ok := whole.Remap(num(t, in))
		assert.True(t, ok, in)
		assert.Equal(t, want, got.String(), in)
	}
	for _, in := range []string{"1", "2", "2.5", "3", "3.1"} {
		_, ok := whole.Remap(num(t, in))
		assert.False(t, ok, in)
	}
	assert.True(t, whole.Removes(num(t, "3.1")))
	assert.False(t, whole.Removes(num(t, "4")))

	dec := RenumberPlan{Target: num(t, "6.2")}
	got, ok := dec.Remap(num(t, "6.3"))
	assert.True(t, ok)
	assert.Equal(t, "6.2", got.String())
	for _, in := range []string{"6", "6.1", "6.2", "7", "7.3"} {
		_, ok := dec.Remap(num(t, in))
		assert.False(t, ok, in)
	}
	assert.False(t, dec.Removes(num(t, "6")))
}
