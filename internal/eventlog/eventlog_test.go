package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/pstate/internal/lock"
)

func TestOpen_WritesJSONLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stderr bytes.Buffer
	l := Open(Options{Dir: dir, MaxEntries: 10, Stderr: &stderr, Locks: &lock.Manager{}})
	l.Info("phase added", "op", "phase.add", "phase", "3")
	l.Debug("hidden")
	path := l.Path()
	l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "phase added", rec["msg"])
	assert.Equal(t, "phase.add", rec["op"])
	assert.Equal(t, "INFO", rec["level"])

	assert.Empty(t, stderr.String(), "info is not shown without verbose")
}

func TestOpen_Verbose(t *testing.T) {
	var stderr bytes.Buffer
	l := Open(Options{Verbose: true, Stderr: &stderr})
	l.Debug("lock acquired", "resource", "ROADMAP.md")
	l.Close()
	assert.Contains(t, stderr.String(), "lock acquired")
	assert.Contains(t, stderr.String(), "resource=ROADMAP.md")
	assert.Equal(t, "", l.Path())
}

func TestClose_Rotates(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		l := Open(Options{Dir: dir, MaxEntries: 5, Stderr: &bytes.Buffer{}, Locks: &lock.Manager{}})
		for j := 0; j < 4; j++ {
			l.Info("event", "n", fmt.Sprint(i*4+j))
		}
		l.Close()
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[4], `"n":"11"`)
	assert.Contains(t, lines[0], `"n":"7"`)

	_, err = os.Stat(filepath.Join(dir, FileName+".lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestClose_SkipsRotationWhenBusy(t *testing.T) {
	dir := t.TempDir()
	locks := &lock.Manager{}
	l := Open(Options{Dir: dir, MaxEntries: 1, Stderr: &bytes.Buffer{}, Locks: locks})
	held, err := locks.Acquire(filepath.Join(dir, FileName))
	require.NoError(t, err)
	defer held.Release()

	l.Info("a")
	l.Info("b")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	l.Close()
	assert.Equal(t, "", l.Path())
}
