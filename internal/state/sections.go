package state

import (
	"strings"
)

var placeholders = map[string]bool{
	"none":          true,
	"none.":         true,
	"none yet":      true,
	"none yet.":     true,
	"- none":        true,
	"- none yet":    true,
	"- none yet.":   true,
	"(none)":        true,
	"none recorded": true,
}

func isPlaceholder(line string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(line))]
}

// section is a heading line and the lines that belong to it.
type section struct {
	heading int // index of the heading line
	end     int // index one past the last body line
	level   int
}

func headingLevel(line string) (int, string) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || (n < len(line) && line[n] != ' ') {
		return 0, ""
	}
	return n, strings.TrimSpace(line[n:])
}

// findSection locates the first heading whose title matches one of titles.
// The section runs until the next heading of the same or a higher level.
func findSection(lines []string, titles ...string) (section, bool) {
	for i, l := range lines {
		level, title := headingLevel(l)
		if level == 0 {
			continue
		}
		for _, t := range titles {
			if strings.EqualFold(title, t) {
				return section{heading: i, end: sectionEnd(lines, i, level), level: level}, true
			}
		}
	}
	return section{}, false
}

func sectionEnd(lines []string, heading, level int) int {
	for j := heading + 1; j < len(lines); j++ {
		if l, _ := headingLevel(lines[j]); l > 0 && l <= level {
			return j
		}
	}
	return len(lines)
}

// lastContent returns the index after the last non-blank body line, or the
// line after the heading for an empty section.
func (s section) lastContent(lines []string) int {
	for j := s.end - 1; j > s.heading; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			return j + 1
		}
	}
	return s.heading + 1
}

func splitDoc(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func joinDoc(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func insertLines(lines []string, at int, add ...string) []string {
	out := make([]string, 0, len(lines)+len(add))
	out = append(out, lines[:at]...)
	out = append(out, add...)
	return append(out, lines[at:]...)
}

// appendToSection adds lines at the end of the named section, dropping
// placeholder lines first. A missing section is created at the end of the
// document under newHeading.
func (d *Document) appendToSection(titles []string, newHeading string, add ...string) {
	lines := splitDoc(d.text)
	s, ok := findSection(lines, titles...)
	if !ok {
		body := strings.TrimRight(d.text, "\n")
		d.text = body + "\n\n" + newHeading + "\n\n" + strings.Join(add, "\n") + "\n"
		return
	}
	kept := lines[:s.heading+1:s.heading+1]
	removed := 0
	for j := s.heading + 1; j < s.end; j++ {
		if isPlaceholder(lines[j]) {
			removed++
			continue
		}
		kept = append(kept, lines[j])
	}
	kept = append(kept, lines[s.end:]...)
	s.end -= removed
	at := s.lastContent(kept)
	d.text = joinDoc(insertLines(kept, at, add...))
}

// sectionBody returns the body lines of the first matching section.
func (d *Document) sectionBody(titles ...string) []string {
	lines := splitDoc(d.text)
	s, ok := findSection(lines, titles...)
	if !ok {
		return nil
	}
	return lines[s.heading+1 : s.end]
}

var (
	decisionTitles = []string{"Decisions", "Decisions Made", "Key Decisions"}
	blockerTitles  = []string{"Blockers", "Blockers/Concerns", "Blockers / Concerns", "Open Blockers"}
	sessionTitles  = []string{"Session Continuity", "Session"}
)

// AddDecision records a decision. Sections holding a table get a new row;
// list sections get a "- [Phase N]: summary" item.
func (d *Document) AddDecision(phase, summary, rationale string) {
	body := d.sectionBody(decisionTitles...)
	if hasTable(body) {
		row := "| " + cell(phase) + " | " + cell(summary) + " | " + cell(rationale) + " |"
		d.appendToSection(decisionTitles, "", row)
		return
	}
	item := "- "
	if phase != "" {
		item += "[Phase " + phase + "]: "
	}
	item += summary
	if rationale != "" {
		item += " - " + rationale
	}
	d.appendToSection(decisionTitles, "### Decisions", item)
}

// AddBlocker appends a blocker item.
func (d *Document) AddBlocker(text string) {
	d.appendToSection(blockerTitles, "### Blockers", "- "+text)
}

// ResolveBlocker removes blocker items containing text, case-insensitively,
// and returns how many were removed. An emptied section gets a "None"
// placeholder.
func (d *Document) ResolveBlocker(text string) int {
	lines := splitDoc(d.text)
	s, ok := findSection(lines, blockerTitles...)
	if !ok {
		return 0
	}
	needle := strings.ToLower(text)
	out := make([]string, 0, len(lines))
	out = append(out, lines[:s.heading+1]...)
	removed, remaining := 0, 0
	for j := s.heading + 1; j < s.end; j++ {
		l := lines[j]
		if isListItem(l) {
			if strings.Contains(strings.ToLower(l), needle) {
				removed++
				continue
			}
			remaining++
		}
		out = append(out, l)
	}
	if removed == 0 {
		return 0
	}
	if remaining == 0 {
		out = append(out, "None")
	}
	out = append(out, lines[s.end:]...)
	d.text = joinDoc(out)
	return removed
}

// AppendRecovery adds lines under a "### Recovery Info" heading inside the
// session continuity section, or at the end of the document when there is
// no such section. An existing Recovery Info block is extended.
func (d *Document) AppendRecovery(add ...string) {
	lines := splitDoc(d.text)
	if s, ok := findSection(lines, "Recovery Info"); ok {
		at := s.lastContent(lines)
		d.text = joinDoc(insertLines(lines, at, add...))
		return
	}
	block := append([]string{"", "### Recovery Info", ""}, add...)
	if s, ok := findSection(lines, sessionTitles...); ok {
		at := s.lastContent(lines)
		d.text = joinDoc(insertLines(lines, at, block...))
		return
	}
	d.text = strings.TrimRight(d.text, "\n") + "\n" + strings.Join(block, "\n") + "\n"
}

func isListItem(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ")
}

func hasTable(body []string) bool {
	for _, l := range body {
		if strings.HasPrefix(strings.TrimSpace(l), "|") {
			return true
		}
	}
	return false
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
