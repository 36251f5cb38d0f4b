package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with pstate",
		Content: topicQuickstart,
	},
	{
		Name:    "layout",
		Title:   "Planning Directory Layout",
		Summary: "Files under .planning/ and who writes them",
		Content: topicLayout,
	},
	{
		Name:    "phases",
		Title:   "Phase Numbering",
		Summary: "Adding, inserting, removing and completing phases",
		Content: topicPhases,
	},
	{
		Name:    "state",
		Title:   "STATE.md",
		Summary: "Fields, decisions, blockers and session continuity",
		Content: topicState,
	},
	{
		Name:    "signals",
		Title:   "Signals and Progress",
		Summary: "Coordination flags and per-plan progress snapshots",
		Content: topicSignals,
	},
	{
		Name:    "locks",
		Title:   "Locking and Atomic Writes",
		Summary: "How concurrent invocations stay out of each other's way",
		Content: topicLocks,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "config.yaml fields and defaults",
		Content: topicConfig,
	},
	{
		Name:    "exit-codes",
		Title:   "Output and Exit Codes",
		Summary: "JSON output, --raw, and what each exit status means",
		Content: topicExitCodes,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    cd your-project
    pstate init

   This creates .planning/ with config.yaml, ROADMAP.md, STATE.md,
   REQUIREMENTS.md and an empty phases/ directory.

2. Add phases to the roadmap:

    pstate phase add "Foundation"
    pstate phase add "API layer"

3. Insert urgent work between two phases without renumbering:

    pstate phase insert 1 "Fix auth bug"     # becomes phase 01.1

4. Mark a phase done once its plans have summaries:

    pstate phase complete 1

5. Check that everything still lines up:

    pstate validate consistency
    pstate health

Every command prints JSON by default. Add --raw for a short human line.

CLI Overview
------------

  pstate phase add|insert|remove|complete|next-decimal|plan-index
  pstate phases list [--type plans|summaries] [--phase N]
  pstate roadmap get-phase N | analyze | progress [--format json|table|bar]
  pstate milestone complete VERSION [--name NAME]
  pstate state update|patch|add-decision|add-blocker|resolve-blocker|record-session|snapshot
  pstate signal write|read|delete|list|cleanup|check-stale
  pstate progress write|read|delete|list|check-orphaned
  pstate frontmatter get|set FILE
  pstate summary-extract FILE [--fields one_liner,key_files,...]
  pstate history-digest
  pstate session start|end
  pstate validate consistency
  pstate health
  pstate init
  pstate docs [topic]
`

const topicLayout = `Planning Directory Layout
=========================

pstate finds the project by walking up from the working directory (or
--cwd) until it sees a .planning/ directory.

  .planning/
    config.yaml                 settings (see 'pstate docs config')
    ROADMAP.md                  ordered phase sections, checklist, progress table
    STATE.md                    current position, decisions, blockers, session
    REQUIREMENTS.md             requirement checklist and traceability table
    phases/
      01-foundation/
        01-01-PLAN.md           a plan
        01-01-SUMMARY.md        written when the plan has been executed
      01.1-fix-auth-bug/        an inserted (decimal) phase
    logs/pstate.jsonl           one JSON line per mutating command
    .active-agent               signals, one line each
    .PROGRESS-01-02             progress snapshot for plan 01-02
    ROADMAP.md.lock             present only while a command holds the lock
    .lock-reclaim               flock guard, created the first time a stale
                                lock is reclaimed and kept for reuse

All documents are plain markdown with an optional YAML frontmatter block,
so they can be read and edited by hand. Hand edits are fine between
commands; pstate re-reads every document it changes.

A write to an existing document leaves the previous content in
<name>.bak next to it.
`

const topicPhases = `Phase Numbering
===============

Phases are numbered 1, 2, 3 ... in ROADMAP.md. Directories use a
zero-padded form: phases/03-features. Both "3" and "03" refer to the same
phase on the command line.

Adding
------

  pstate phase add "Description"

Appends a section after the last phase with the next whole number, creates
its directory, adds a checklist entry and bumps Total Phases in STATE.md.

Inserting
---------

  pstate phase insert 6 "Urgent fix"

Takes the next free decimal under 6 (06.1, then 06.2 ...) so nothing after
it has to move. The new section is placed after 6 and any existing 6.x
sections and is marked (INSERTED).

  pstate phase next-decimal 6

Shows which decimal insert would pick without changing anything.

Removing
--------

  pstate phase remove 3 [--force]

Deletes the section, the checklist entry and the directory, then shifts
every later phase down by one: directories, the files inside them
(04-01-PLAN.md becomes 03-01-PLAN.md), "Phase N" references in ROADMAP.md,
and traceability rows in REQUIREMENTS.md. Removing a decimal phase only
shifts its later siblings (06.3 becomes 06.2).

Removal is refused when the phase has executed plans (SUMMARY files) or,
for a whole phase, decimal children. --force overrides both.

Completing
----------

  pstate phase complete 3

Ticks the checklist entry, fills the progress-table row, marks the
phase's requirements Complete and moves STATE.md to the next phase (or to
"Milestone complete" after the last one).

Milestones
----------

  pstate milestone complete v1.0 --name "MVP Foundation"

Copies ROADMAP.md and REQUIREMENTS.md to .planning/milestones/v1.0-*.md,
appends an entry with the summaries' one-liners to MILESTONES.md and sets
the STATE.md status. The live documents are not changed.

Reading plans and summaries
---------------------------

  pstate phase plan-index 3        plans grouped by wave, incomplete ids
  pstate summary-extract FILE      one-liner, key files, tech, decisions
  pstate history-digest            every summary merged by phase
  pstate roadmap progress --format bar
`

const topicState = `STATE.md
========

STATE.md is the one mutable record of where the project is. Fields are
lines of the form

  **Current Phase:** 3
  **Status:** Executing

and are matched case-insensitively. Plain "Status: Executing" lines work
too.

Commands
--------

  pstate state update "Current Phase" 4
  pstate state patch --Status building --"Current Plan" 2
  pstate state add-decision --phase 3 --summary "Use SQLite" --rationale "single file"
  pstate state add-blocker --text "Waiting on API key"
  pstate state resolve-blocker --text "API key"
  pstate state record-session --stopped-at "Finished 03-02" --resume-file 03-03-PLAN.md
  pstate state snapshot

update and patch report fields that were not found instead of adding
them. patch writes every field it finds in one locked write.

Decisions go under "### Decisions" (table rows when the section holds a
table, list items otherwise). Resolving the last blocker leaves "None".

snapshot returns the current position, decisions, blockers and session
fields as JSON; absent fields are null.
`

const topicSignals = `Signals and Progress
====================

Signals
-------

Signals are one-line files that tell hooks and agents what is running:

  active-agent  active-skill  active-operation  active-plan  auto-next

  pstate signal write active-agent executor
  pstate signal read active-agent
  pstate signal delete active-agent
  pstate signal list
  pstate signal check-stale [--minutes N]
  pstate signal cleanup

--minutes overrides signals.stale_after for one call. Any other name is
rejected. Deleting a signal that is not set succeeds. cleanup also removes
the context-tracker and compact-counter files.

Progress
--------

A progress snapshot records how far a plan got, so a crashed session can
be resumed:

  pstate progress write 01-02 --task 2 --total 5 --commit abc123
  pstate progress read 01-02
  pstate progress delete 01-02
  pstate progress list
  pstate progress check-orphaned [--minutes N]

A snapshot older than progress.orphan_after (or --minutes) is orphaned.

Sessions
--------

  pstate session start    recover orphaned snapshots into STATE.md
  pstate session end      clear signals, recover every snapshot

Recovered snapshots are written to a "### Recovery Info" block under
"## Session Continuity" and then deleted.
`

const topicLocks = `Locking and Atomic Writes
=========================

Every document write goes to a temporary file in the same directory and is
renamed over the target, so a reader sees either the old or the new file,
never a mix.

Commands that change ROADMAP.md, STATE.md or REQUIREMENTS.md take a lock
first: the file <document>.lock is created exclusively. If it already
exists:

  - younger than locks.stale_after (10s): the command fails with exit
    status 4 and nothing is written. Retry later.
  - older: the previous owner is assumed dead, the lock is removed and
    acquisition is retried once.

Reclaiming goes through an flock(2) on .planning/.lock-reclaim so that two
commands cannot both remove the same stale lock. That file is left in
place on purpose: deleting it would let a second reclaimer lock a fresh
file of the same name while the first still holds the old one. It is
empty and can be deleted whenever no pstate command is running.

pstate never waits for a lock. Phase commands lock ROADMAP.md, STATE.md
and REQUIREMENTS.md in that order and hold all three until every rename
is done.

STATE.md carries a content hash from the moment it was read; a write is
refused if the file changed underneath.

'pstate health' reports lock files that have gone stale.
`

const topicConfig = `Configuration Reference
=======================

.planning/config.yaml (a legacy .planning/config.json is read when there
is no YAML file; comments and trailing commas are allowed in it).

  model_profile: balanced        quality | balanced | budget
  commit_docs: true
  branching_strategy: none       none | phase | milestone

  locks:
    stale_after: 10s             lock age after which it is reclaimed
  signals:
    stale_after: 10m             age reported by 'signal check-stale'
  progress:
    orphan_after: 60m            age at which a snapshot is orphaned
  logging:
    enabled: true                write .planning/logs/pstate.jsonl
    max_entries: 200             lines kept in the log

Missing fields take the defaults shown. 'pstate health' warns when
model_profile, commit_docs or branching_strategy are not set explicitly.
`

const topicExitCodes = `Output and Exit Codes
=====================

Output is one JSON document on stdout. --raw prints a short human-readable
form instead. Failures print one line, "error: <reason>", on stderr.

  0  success
  1  unexpected failure (I/O error, unreadable document)
  2  usage error: bad or missing argument, unknown signal name
  3  not found: phase, document or .planning directory
  4  busy: another command holds the lock; retry later
  5  refused: a destructive change needs --force

Validator and health warnings are part of the output, not failures.
`
