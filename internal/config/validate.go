package config

import (
	"fmt"
	"time"
)

const (
	DefaultLockStaleAfter    = 10 * time.Second
	DefaultSignalStaleAfter  = 10 * time.Minute
	DefaultProgressOrphanAge = 60 * time.Minute
	DefaultLogMaxEntries     = 200
)

var validProfiles = map[string]bool{
	"quality":  true,
	"balanced": true,
	"budget":   true,
}

var validBranching = map[string]bool{
	"none":      true,
	"phase":     true,
	"milestone": true,
}

var recommendedKeys = []string{"model_profile", "commit_docs", "branching_strategy"}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.ModelProfile == "" {
		cfg.ModelProfile = "balanced"
	}
	if !validProfiles[cfg.ModelProfile] {
		return fmt.Errorf("config: unknown model_profile %q (must be quality, balanced, or budget)", cfg.ModelProfile)
	}

	if cfg.BranchingStrategy == "" {
		cfg.BranchingStrategy = "none"
	}
	if !validBranching[cfg.BranchingStrategy] {
		return fmt.Errorf("config: unknown branching_strategy %q (must be none, phase, or milestone)", cfg.BranchingStrategy)
	}

	if cfg.CommitDocs == nil {
		t := true
		cfg.CommitDocs = &t
	}

	if cfg.Locks.StaleAfter.Duration < 0 {
		return fmt.Errorf("config: locks.stale_after must be >= 0")
	}
	if cfg.Locks.StaleAfter.Duration == 0 {
		cfg.Locks.StaleAfter.Duration = DefaultLockStaleAfter
	}

	if cfg.Signals.StaleAfter.Duration < 0 {
		return fmt.Errorf("config: signals.stale_after must be >= 0")
	}
	if cfg.Signals.StaleAfter.Duration == 0 {
		cfg.Signals.StaleAfter.Duration = DefaultSignalStaleAfter
	}

	if cfg.Progress.OrphanAfter.Duration < 0 {
		return fmt.Errorf("config: progress.orphan_after must be >= 0")
	}
	if cfg.Progress.OrphanAfter.Duration == 0 {
		cfg.Progress.OrphanAfter.Duration = DefaultProgressOrphanAge
	}

	if cfg.Logging.MaxEntries < 0 {
		return fmt.Errorf("config: logging.max_entries must be >= 0")
	}
	if cfg.Logging.MaxEntries == 0 {
		cfg.Logging.MaxEntries = DefaultLogMaxEntries
	}

	return nil
}
