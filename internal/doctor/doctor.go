// Package doctor runs the health checks behind "pstate health". Every
// check always runs and reports PASS, WARN or FAIL with a list of issues;
// a missing .planning directory fails the structure check instead of
// aborting the run.
package doctor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/pstate/internal/config"
	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/progress"
	"github.com/jorge-barreto/pstate/internal/roadmap"
	"github.com/jorge-barreto/pstate/internal/signal"
	"github.com/jorge-barreto/pstate/internal/state"
	"github.com/jorge-barreto/pstate/internal/store"
	"github.com/jorge-barreto/pstate/internal/validate"
)

const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Check is the outcome of one health check.
type Check struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

type Summary struct {
	Pass  int `json:"pass"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
	Total int `json:"total"`
}

// Report is the full health report.
type Report struct {
	Overall string  `json:"overall"`
	Summary Summary `json:"summary"`
	Checks  []Check `json:"checks"`
}

type check struct {
	id   string
	name string
	run  func(e *env, c *Check)
}

var checks = []check{
	{"structure", "Planning directory structure", checkStructure},
	{"config-validity", "Config file is valid", checkConfigValidity},
	{"config-completeness", "Config has recommended fields", checkConfigCompleteness},
	{"state-accuracy", "STATE.md matches the roadmap", checkStateAccuracy},
	{"phase-consistency", "ROADMAP.md matches the phases directory", checkPhaseConsistency},
	{"plan-summary-pairing", "Every summary has a plan", checkPairing},
	{"lock-health", "No abandoned lock files", checkLocks},
	{"signal-health", "No stale signals", checkSignals},
	{"progress-health", "No orphaned progress snapshots", checkProgress},
}

// env is what the checks share.
type env struct {
	store  *store.Store
	cfg    *config.Config
	cfgErr error
	now    time.Time
}

// Thresholds fall back to the defaults when the config is unreadable.
func (e *env) lockStaleAfter() time.Duration {
	if e.cfg == nil {
		return config.DefaultLockStaleAfter
	}
	return e.cfg.Locks.StaleAfter.Duration
}

func (e *env) signalStaleAfter() time.Duration {
	if e.cfg == nil {
		return config.DefaultSignalStaleAfter
	}
	return e.cfg.Signals.StaleAfter.Duration
}

func (e *env) orphanAfter() time.Duration {
	if e.cfg == nil {
		return config.DefaultProgressOrphanAge
	}
	return e.cfg.Progress.OrphanAfter.Duration
}

// Run executes every check for the project containing cwd.
func Run(cwd string, now time.Time) *Report {
	e := &env{now: now}
	if s, err := store.Find(cwd); err == nil {
		e.store = s
		e.cfg, e.cfgErr = config.Load(s.Dir)
	}

	r := &Report{Checks: make([]Check, 0, len(checks))}
	for _, ch := range checks {
		c := Check{ID: ch.id, Name: ch.name, Status: StatusPass, Issues: []string{}}
		if e.store == nil && ch.id != "structure" {
			c.fail("skipped: .planning/ directory not found")
		} else {
			ch.run(e, &c)
		}
		r.Checks = append(r.Checks, c)
		switch c.Status {
		case StatusPass:
			r.Summary.Pass++
		case StatusWarn:
			r.Summary.Warn++
		default:
			r.Summary.Fail++
		}
	}
	r.Summary.Total = len(r.Checks)
	switch {
	case r.Summary.Fail > 0:
		r.Overall = StatusFail
	case r.Summary.Warn > 0:
		r.Overall = StatusWarn
	default:
		r.Overall = StatusPass
	}
	return r
}

func (c *Check) warn(format string, args ...any) {
	c.Issues = append(c.Issues, fmt.Sprintf(format, args...))
	if c.Status == StatusPass {
		c.Status = StatusWarn
	}
}

func (c *Check) fail(format string, args ...any) {
	c.Issues = append(c.Issues, fmt.Sprintf(format, args...))
	c.Status = StatusFail
}

func checkStructure(e *env, c *Check) {
	if e.store == nil {
		c.fail(".planning/ directory not found (run 'pstate init')")
		return
	}
	if !exists(e.store.RoadmapPath()) {
		c.fail("ROADMAP.md is missing")
	}
	if !exists(e.store.StatePath()) {
		c.warn("STATE.md is missing")
	}
	if !exists(e.store.PhasesDir()) {
		c.warn("phases/ directory is missing")
	}
}

func checkConfigValidity(e *env, c *Check) {
	if e.cfgErr != nil {
		c.fail("%v", e.cfgErr)
	}
}

func checkConfigCompleteness(e *env, c *Check) {
	if e.cfgErr != nil {
		c.warn("config could not be read; see config-validity")
		return
	}
	if e.cfg.Source == "" {
		return
	}
	for _, k := range e.cfg.Missing() {
		c.warn("%s is missing recommended field %s", filepath.Base(e.cfg.Source), k)
	}
}

func checkStateAccuracy(e *env, c *Check) {
	st, err := state.Load(e.store.Dir)
	if planerr.IsNotFound(err) {
		c.fail("STATE.md not found")
		return
	}
	if err != nil {
		c.fail("reading STATE.md: %v", err)
		return
	}
	data, err := os.ReadFile(e.store.RoadmapPath())
	if err != nil {
		// reported by structure
		return
	}
	rm := roadmap.Parse(string(data))

	if cur, ok := st.Field("Current Phase"); ok && len(strings.Fields(cur)) > 0 {
		if n, err := phase.ParseNumber(strings.Fields(cur)[0]); err == nil {
			if _, ok := rm.Find(n); !ok {
				c.warn("STATE.md current phase %s is not in ROADMAP.md", n)
			}
		}
	}
	if total, ok := st.IntField("Total Phases"); ok && total != len(rm.Sections()) {
		c.warn("STATE.md says %d total phases but ROADMAP.md has %d", total, len(rm.Sections()))
	}
}

func checkPhaseConsistency(e *env, c *Check) {
	r, err := validate.Consistency(e.store)
	if err != nil {
		c.fail("%v", err)
		return
	}
	for _, msg := range r.Errors {
		c.fail("%s", msg)
	}
	for _, w := range r.Warnings {
		// STATE.md and summary pairing have checks of their own
		if strings.HasPrefix(w, "STATE.md") || strings.Contains(w, "no matching PLAN") {
			continue
		}
		c.warn("%s", w)
	}
}

func checkPairing(e *env, c *Check) {
	dirs, err := phase.ScanDirs(e.store.PhasesDir())
	if err != nil {
		c.fail("%v", err)
		return
	}
	for _, d := range dirs {
		plans, err := d.Plans()
		if err != nil {
			c.fail("%v", err)
			continue
		}
		summaries, err := d.Summaries()
		if err != nil {
			c.fail("%v", err)
			continue
		}
		have := map[string]bool{}
		for _, p := range plans {
			have[phase.PlanID(p)] = true
		}
		for _, s := range summaries {
			if !have[phase.PlanID(s)] {
				c.warn("Orphaned summary: %s/%s has no matching PLAN", d.Name, s)
			}
		}
	}
}

func checkLocks(e *env, c *Check) {
	m := &lock.Manager{StaleAfter: e.lockStaleAfter(), Now: func() time.Time { return e.now }}
	_ = filepath.WalkDir(e.store.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		h, err := m.Inspect(path)
		if err != nil || !m.Stale(h) {
			return nil
		}
		owner := "owner unknown"
		if h.PID > 0 {
			if lock.OwnerAlive(h) {
				owner = fmt.Sprintf("owner pid %d still running", h.PID)
			} else {
				owner = fmt.Sprintf("owner pid %d not running", h.PID)
			}
		}
		c.warn("Stale lock file: %s (%s old, %s)", e.store.Rel(path), h.Age.Round(time.Second), owner)
		return nil
	})
}

func checkSignals(e *env, c *Check) {
	sig := signal.New(e.store.Dir)
	sig.Now = func() time.Time { return e.now }
	stale, err := sig.CheckStale(e.signalStaleAfter())
	if err != nil {
		c.fail("%v", err)
		return
	}
	for _, s := range stale {
		c.warn("Stale signal: %s (%d minutes old)", s.Name, s.AgeMinutes)
	}
}

func checkProgress(e *env, c *Check) {
	ps := progress.New(e.store.Dir)
	ps.Now = func() time.Time { return e.now }
	orphans, err := ps.CheckOrphaned(e.orphanAfter())
	if err != nil {
		c.fail("%v", err)
		return
	}
	for _, o := range orphans {
		c.warn("Orphaned progress: %s (%d minutes old, run 'pstate session start' to recover)", o.PlanID, o.AgeMinutes)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
