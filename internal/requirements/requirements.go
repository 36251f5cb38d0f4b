// Package requirements edits REQUIREMENTS.md: the requirement checklist
// ("- [ ] **AUTH-01**: ...") and the traceability table
// ("| AUTH-01 | Phase 1 | Pending |"). The two are kept in step.
package requirements

import (
	"regexp"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
)

const FileName = "REQUIREMENTS.md"

var (
	checkboxRe = regexp.MustCompile(`^(\s*[-*]\s+\[)([ xX])(\]\s+\*\*)([^*]+)(\*\*.*)$`)
	phaseRefRe = regexp.MustCompile(`(Phase\s+)(\d+(?:\.\d+)?)`)
)

// Doc is a REQUIREMENTS.md held as lines.
type Doc struct {
	lines []string
}

func Parse(text string) *Doc {
	return &Doc{lines: strings.Split(text, "\n")}
}

func (d *Doc) String() string {
	return strings.Join(d.lines, "\n")
}

// Complete ticks the checklist entries for ids and marks their
// traceability rows Complete. It returns the ids that were found in either
// place.
func (d *Doc) Complete(ids []string) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.ToUpper(id)] = true
	}
	found := map[string]bool{}

	for i, l := range d.lines {
		if m := checkboxRe.FindStringSubmatch(l); m != nil {
			id := strings.TrimSpace(m[4])
			if want[strings.ToUpper(id)] {
				d.lines[i] = m[1] + "x" + m[3] + m[4] + m[5]
				found[id] = true
			}
			continue
		}
		cells, ok := row(l)
		if !ok || len(cells) < 3 {
			continue
		}
		id := strings.TrimSpace(cells[0])
		if !want[strings.ToUpper(id)] {
			continue
		}
		cells[len(cells)-1] = replaceCell(cells[len(cells)-1], "Complete")
		d.lines[i] = "|" + strings.Join(cells, "|") + "|"
		found[id] = true
	}

	var out []string
	for _, id := range ids {
		for f := range found {
			if strings.EqualFold(f, id) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// Renumber rewrites the phase column of traceability rows. Rows mapped to
// a removed phase are marked "Unassigned"; rows whose phase shifted get the
// new number. It returns how many rows changed.
func (d *Doc) Renumber(removed []phase.Number, remap func(phase.Number) (phase.Number, bool)) int {
	changed := 0
	for i, l := range d.lines {
		cells, ok := row(l)
		if !ok || len(cells) < 3 {
			continue
		}
		col := cells[1]
		m := phaseRefRe.FindStringSubmatch(col)
		if m == nil {
			continue
		}
		n, err := phase.ParseNumber(m[2])
		if err != nil {
			continue
		}
		switch {
		case contains(removed, n):
			cells[1] = replaceCell(col, "Unassigned")
		default:
			to, ok := remap(n)
			if !ok {
				continue
			}
			cells[1] = strings.Replace(col, m[0], m[1]+to.Format(m[2]), 1)
		}
		d.lines[i] = "|" + strings.Join(cells, "|") + "|"
		changed++
	}
	return changed
}

// row splits a table row into cells, keeping their padding. Header
// separator rows are rejected.
func row(line string) ([]string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "|") || !strings.HasSuffix(t, "|") || len(t) < 2 {
		return nil, false
	}
	cells := strings.Split(t[1:len(t)-1], "|")
	sep := true
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			sep = false
			break
		}
	}
	if sep {
		return nil, false
	}
	return cells, true
}

// replaceCell swaps a cell's text while keeping its surrounding spaces.
func replaceCell(cell, value string) string {
	lead := cell[:len(cell)-len(strings.TrimLeft(cell, " "))]
	trail := cell[len(strings.TrimRight(cell, " ")):]
	if lead == "" {
		lead = " "
	}
	if trail == "" {
		trail = " "
	}
	return lead + value + trail
}

func contains(list []phase.Number, n phase.Number) bool {
	for _, x := range list {
		if x.Equal(n) {
			return true
		}
	}
	return false
}
