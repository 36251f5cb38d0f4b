// Package scaffold creates a fresh .planning directory.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/store"
)

var configTemplate = `# pstate configuration
model_profile: balanced
commit_docs: true
branching_strategy: none

locks:
  stale_after: 10s
signals:
  stale_after: 10m
progress:
  orphan_after: 60m
logging:
  enabled: true
  max_entries: 200
`

var roadmapTemplate = `# Roadmap: {{name}}

## Overview

{{name}} is built in phases. Add phases with ` + "`pstate phase add <description>`" + `.

## Phases

## Progress

| Phase | Plans Complete | Status | Completed |
|-------|----------------|--------|-----------|
`

var stateTemplate = `# Project State

## Current Position

**Current Phase:** Not started
**Current Phase Name:** None
**Total Phases:** 0
**Current Plan:** Not started
**Total Plans in Phase:** 0
**Status:** Ready to plan
**Last Activity:** {{date}}
**Last Activity Description:** Project initialized

**Progress:** [░░░░░░░░░░] 0%

## Accumulated Context

### Decisions

None yet.

### Blockers

None yet.

## Session Continuity

**Last session:** None
**Stopped At:** None
**Resume File:** None
`

var requirementsTemplate = `# Requirements: {{name}}

## v1 Requirements

## Traceability

| Requirement | Phase | Status |
|-------------|-------|--------|
`

// Result lists what Init created, relative to the project root.
type Result struct {
	Directory string   `json:"directory"`
	Created   []string `json:"created"`
}

// Init creates .planning/ with a config, empty roadmap, state and
// requirements documents, and a phases directory. It refuses to touch an
// existing .planning directory.
func Init(targetDir, name string, now time.Time) (*Result, error) {
	dir := filepath.Join(targetDir, store.DirName)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%s directory already exists in %s", store.DirName, targetDir)
	}
	if name == "" {
		abs, err := filepath.Abs(targetDir)
		if err != nil {
			return nil, err
		}
		name = filepath.Base(abs)
	}

	if err := os.MkdirAll(filepath.Join(dir, "phases"), 0755); err != nil {
		return nil, fmt.Errorf("creating %s/phases: %w", store.DirName, err)
	}

	r := &Result{Directory: store.DirName, Created: []string{store.DirName + "/phases/"}}
	expand := strings.NewReplacer("{{name}}", name, "{{date}}", now.Format("2006-01-02"))
	files := []struct {
		name, content string
	}{
		{"config.yaml", configTemplate},
		{"ROADMAP.md", roadmapTemplate},
		{"STATE.md", stateTemplate},
		{"REQUIREMENTS.md", requirementsTemplate},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := atomicfile.WriteNoBackup(path, []byte(expand.Replace(f.content))); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
		r.Created = append(r.Created, store.DirName+"/"+f.name)
	}
	return r, nil
}
