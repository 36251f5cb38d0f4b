package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/store"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".planning", "phases"), 0755))
	s, err := store.Find(root)
	require.NoError(t, err)
	e := New(s, &lock.Manager{}, nil)
	e.Now = func() time.Time { return time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC) }
	return e
}

func writeDoc(t *testing.T, e *Engine, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.Store.Dir, name), []byte(content), 0644))
}

func readDoc(t *testing.T, e *Engine, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.Store.Dir, name))
	require.NoError(t, err)
	return string(data)
}

func mkPhase(t *testing.T, e *Engine, dir string, files ...string) string {
	t.Helper()
	p := filepath.Join(e.Store.PhasesDir(), dir)
	require.NoError(t, os.MkdirAll(p, 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(p, f), []byte("# "+f), 0644))
	}
	return p
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func num(t *testing.T, s string) phase.Number {
	t.Helper()
	n, err := phase.ParseNumber(s)
	require.NoError(t, err)
	return n
}

// noLocks fails if any lock file was left in the planning directory.
func noLocks(t *testing.T, e *Engine) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(e.Store.Dir, "*.lock"))
	require.NoError(t, err)
	require.Empty(t, matches)
}
