// Package lock provides non-blocking, exclusive advisory locks for planning
// documents. A lock on a document is the sibling file "<document>.lock",
// created exclusively and removed on release. A lock older than the
// manager's stale threshold is assumed abandoned by a crashed writer and is
// reclaimed once.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/jorge-barreto/pstate/internal/planerr"
)

// DefaultStaleAfter is the age at which a lock is considered abandoned.
const DefaultStaleAfter = 10 * time.Second

const reclaimGuardName = ".lock-reclaim"

// Holder describes the owner recorded in a lock file.
type Holder struct {
	PID     int       `json:"pid"`
	Created time.Time `json:"created"`
	Token   string    `json:"token"`

	// Age is measured from the lock file's modification time.
	Age time.Duration `json:"-"`
}

// Manager acquires locks. The zero value uses DefaultStaleAfter and the
// wall clock.
type Manager struct {
	StaleAfter time.Duration
	Now        func() time.Time
}

// Lock is a held lock. Release it exactly once.
type Lock struct {
	path  string
	token string
}

// Path returns the lock file path for a resource path.
func Path(resource string) string {
	return resource + ".lock"
}

func (m *Manager) staleAfter() time.Duration {
	if m == nil || m.StaleAfter <= 0 {
		return DefaultStaleAfter
	}
	return m.StaleAfter
}

func (m *Manager) now() time.Time {
	if m == nil || m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Stale reports whether h is old enough to be reclaimed.
func (m *Manager) Stale(h Holder) bool {
	return h.Age >= m.staleAfter()
}

// WithLock runs fn while holding the lock on resource. Release always runs,
// including when fn returns an error or panics.
func (m *Manager) WithLock(resource string, fn func() error) (err error) {
	l, err := m.Acquire(resource)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := l.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn()
}

// Acquire takes the lock on resource without waiting. A fresh lock held by
// someone else yields a planerr.BusyError. A stale one is removed and
// acquisition retried once.
func (m *Manager) Acquire(resource string) (*Lock, error) {
	lockPath := Path(resource)
	l, err := create(lockPath, m.now())
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating lock %s: %w", lockPath, err)
	}

	h, err := inspectAt(lockPath, m.now())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Released between our create and inspect.
	case err != nil:
		return nil, err
	case !m.Stale(h):
		return nil, busy(resource, h)
	default:
		if err := m.reclaim(resource, lockPath); err != nil {
			return nil, err
		}
	}

	l, err = create(lockPath, m.now())
	if errors.Is(err, fs.ErrExist) {
		h, _ := inspectAt(lockPath, m.now())
		return nil, busy(resource, h)
	}
	if err != nil {
		return nil, fmt.Errorf("creating lock %s: %w", lockPath, err)
	}
	return l, nil
}

// reclaim removes a stale lock. Reclaimers are serialised through a flock on
// a guard file so that two processes cannot both delete and recreate the
// same lock; the staleness check is repeated under the guard.
func (m *Manager) reclaim(resource, lockPath string) error {
	guard := flock.New(filepath.Join(filepath.Dir(lockPath), reclaimGuardName))
	ok, err := guard.TryLock()
	if err != nil {
		return fmt.Errorf("locking reclaim guard: %w", err)
	}
	if !ok {
		return planerr.Busy(filepath.Base(resource), "stale lock is being reclaimed")
	}
	defer guard.Unlock()

	h, err := inspectAt(lockPath, m.now())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !m.Stale(h) {
		return busy(resource, h)
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale lock %s: %w", lockPath, err)
	}
	return nil
}

// Release removes the lock file if it is still ours. A lock that was
// reclaimed by another process is left alone.
func (l *Lock) Release() error {
	h, err := Inspect(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && h.Token != l.token {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}

// Inspect reads the holder of a lock file. A lock file with unreadable
// content still reports its age so that it can go stale.
func Inspect(lockPath string) (Holder, error) {
	return inspectAt(lockPath, time.Now())
}

// Inspect is like the package-level Inspect but ages the lock by m.Now.
func (m *Manager) Inspect(lockPath string) (Holder, error) {
	return inspectAt(lockPath, m.now())
}

func inspectAt(lockPath string, now time.Time) (Holder, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	if data, err := os.ReadFile(lockPath); err == nil {
		_ = json.Unmarshal(data, &h)
	}
	h.Age = now.Sub(info.ModTime())
	if h.Age < 0 {
		h.Age = 0
	}
	return h, nil
}

func create(lockPath string, now time.Time) (*Lock, error) {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	h := Holder{PID: os.Getpid(), Created: now.UTC(), Token: uuid.NewString()}
	data, _ := json.Marshal(h)
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(lockPath)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(lockPath)
		return nil, err
	}
	return &Lock{path: lockPath, token: h.Token}, nil
}

func busy(resource string, h Holder) error {
	detail := ""
	if h.PID != 0 {
		detail = fmt.Sprintf("locked by pid %d %s ago", h.PID, h.Age.Round(time.Second))
	}
	return planerr.Busy(filepath.Base(resource), detail)
}
