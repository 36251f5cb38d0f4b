package roadmap

import (
	"regexp"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
)

var (
	checklistRe   = regexp.MustCompile(`^(\s*[-*]\s+\[)([ xX])(\]\s+(?:\*\*)?Phase\s+)(\d+(?:\.\d+)?)(\b.*)$`)
	progressRowRe = regexp.MustCompile(`^\s*\|\s*(\d+(?:\.\d+)?)\.?\s[^|]*\|`)
	phaseRefRe    = regexp.MustCompile(`(Phase\s+)(\d+(?:\.\d+)?)`)
	rowNumberRe   = regexp.MustCompile(`^(\s*\|\s*)(\d+(?:\.\d+)?)(\.?\s)`)
)

// NewSection describes a section to add.
type NewSection struct {
	Number    phase.Number
	Token     string // how to write the number in the heading
	Name      string
	Level     int
	Goal      string
	DependsOn string
}

func (n NewSection) lines() []string {
	level := n.Level
	if level == 0 {
		level = 3
	}
	return []string{
		"",
		strings.Repeat("#", level) + " Phase " + n.Token + ": " + n.Name,
		"",
		"**Goal:** " + n.Goal,
		"**Depends on:** " + n.DependsOn,
		"**Plans:** 0 plans",
		"",
		"Plans:",
		"- [ ] TBD (run plan-phase " + n.Number.String() + " to break down)",
	}
}

func (r *Roadmap) insert(at int, add []string) {
	lines := make([]string, 0, len(r.lines)+len(add))
	lines = append(lines, r.lines[:at]...)
	lines = append(lines, add...)
	lines = append(lines, r.lines[at:]...)
	r.reset(lines)
}

// InsertAfter adds a section directly after the content of section s.
func (r *Roadmap) InsertAfter(s Section, n NewSection) {
	r.insert(r.lastContent(s), n.lines())
}

// Append adds a section after the last phase section, or at the end of
// the document when there is none.
func (r *Roadmap) Append(n NewSection) {
	if len(r.sections) == 0 {
		lines := r.lines
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		r.reset(append(append(append([]string(nil), lines...), n.lines()...), ""))
		return
	}
	last := r.sections[0]
	for _, s := range r.sections[1:] {
		if s.Line > last.Line {
			last = s
		}
	}
	r.InsertAfter(last, n)
}

// Remove deletes section s and one adjacent blank line.
func (r *Roadmap) Remove(s Section) {
	start, end := s.Line, s.End
	if start > 0 && strings.TrimSpace(r.lines[start-1]) == "" {
		for end > start && end-1 > start && strings.TrimSpace(r.lines[end-1]) == "" {
			end--
		}
		start--
	} else if end == len(r.lines) && end-1 > start && r.lines[end-1] == "" {
		// keep the document's final newline
		end--
	}
	lines := append(append([]string(nil), r.lines[:start]...), r.lines[end:]...)
	r.reset(lines)
}

func (r *Roadmap) checklistLine(n phase.Number) int {
	for j, l := range r.lines {
		if r.code[j] {
			continue
		}
		m := checklistRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		if num, err := phase.ParseNumber(m[4]); err == nil && num.Equal(n) {
			return j
		}
	}
	return -1
}

// Listed reports whether the phase checklist has an entry for n.
func (r *Roadmap) Listed(n phase.Number) bool {
	return r.checklistLine(n) >= 0
}

// Checked reports whether the checklist entry for n is ticked.
func (r *Roadmap) Checked(n phase.Number) bool {
	j := r.checklistLine(n)
	if j < 0 {
		return false
	}
	m := checklistRe.FindStringSubmatch(r.lines[j])
	return m[2] != " "
}

// Check ticks the checklist entry for n and appends "(completed <date>)".
// It reports whether an entry was found.
func (r *Roadmap) Check(n phase.Number, date string) bool {
	j := r.checklistLine(n)
	if j < 0 {
		return false
	}
	m := checklistRe.FindStringSubmatch(r.lines[j])
	line := m[1] + "x" + m[3] + m[4] + m[5]
	if !strings.Contains(line, "(completed") {
		line = strings.TrimRight(line, " ") + " (completed " + date + ")"
	}
	lines := append([]string(nil), r.lines...)
	lines[j] = line
	r.reset(lines)
	return true
}

// AddChecklistItem adds an unticked entry for n after the entry for
// after, or after the last entry when after is nil. Documents without a
// checklist are left alone.
func (r *Roadmap) AddChecklistItem(n phase.Number, token, name string, after *phase.Number) {
	at := -1
	for j, l := range r.lines {
		if r.code[j] {
			continue
		}
		m := checklistRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		num, err := phase.ParseNumber(m[4])
		if err != nil {
			continue
		}
		if after == nil || num.Major == after.Major && num.Compare(*after) >= 0 {
			at = j
		}
	}
	if at < 0 {
		return
	}
	m := checklistRe.FindStringSubmatch(r.lines[at])
	item := m[1] + " " + m[3] + token + ": " + name
	if strings.Contains(m[3], "**") {
		item += "**"
	}
	r.insert(at+1, []string{item})
}

// RemoveChecklistItem deletes the checklist entry for n, if any.
func (r *Roadmap) RemoveChecklistItem(n phase.Number) {
	j := r.checklistLine(n)
	if j < 0 {
		return
	}
	lines := append(append([]string(nil), r.lines[:j]...), r.lines[j+1:]...)
	r.reset(lines)
}

func (r *Roadmap) progressRow(n phase.Number) int {
	for j, l := range r.lines {
		if r.code[j] {
			continue
		}
		m := progressRowRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		if num, err := phase.ParseNumber(m[1]); err == nil && num.Equal(n) {
			return j
		}
	}
	return -1
}

// SetProgress updates the progress-table row for n:
// "| 3. Features | 2/2 | Complete | 2026-01-10 |".
func (r *Roadmap) SetProgress(n phase.Number, plans, status, date string) bool {
	j := r.progressRow(n)
	if j < 0 {
		return false
	}
	cells := strings.Split(strings.Trim(strings.TrimSpace(r.lines[j]), "|"), "|")
	values := []string{plans, status, date}
	for i, v := range values {
		if i+1 < len(cells) {
			cells[i+1] = " " + v + " "
		}
	}
	lines := append([]string(nil), r.lines...)
	lines[j] = "|" + strings.Join(cells, "|") + "|"
	r.reset(lines)
	return true
}

// RemoveProgressRow deletes the progress-table row for n, if any.
func (r *Roadmap) RemoveProgressRow(n phase.Number) {
	j := r.progressRow(n)
	if j < 0 {
		return
	}
	lines := append(append([]string(nil), r.lines[:j]...), r.lines[j+1:]...)
	r.reset(lines)
}

// Renumber rewrites every "Phase N" reference and progress-table row
// number for which remap returns a new number. Each token is rewritten at
// most once, so chained shifts (3→2, 4→3) do not cascade. Padding of each
// token is preserved.
func (r *Roadmap) Renumber(remap func(phase.Number) (phase.Number, bool)) int {
	changed := 0
	rewrite := func(token string) string {
		n, err := phase.ParseNumber(token)
		if err != nil {
			return token
		}
		to, ok := remap(n)
		if !ok {
			return token
		}
		changed++
		return to.Format(token)
	}
	lines := append([]string(nil), r.lines...)
	for j, l := range lines {
		if r.code[j] {
			continue
		}
		l = phaseRefRe.ReplaceAllStringFunc(l, func(s string) string {
			m := phaseRefRe.FindStringSubmatch(s)
			return m[1] + rewrite(m[2])
		})
		if m := rowNumberRe.FindStringSubmatch(l); m != nil && progressRowRe.MatchString(l) {
			l = m[1] + rewrite(m[2]) + m[3] + l[len(m[0]):]
		}
		lines[j] = l
	}
	r.reset(lines)
	return changed
}
