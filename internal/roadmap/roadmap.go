// Package roadmap reads and edits ROADMAP.md: the ordered list of phase
// sections ("### Phase 3: Features"), the phase checklist
// ("- [ ] Phase 3: Features") and the progress table.
//
// Headings are located with a Markdown parser so that phase-like lines in
// fenced code are ignored. Edits are line-based; every edit re-indexes the
// document.
package roadmap

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jorge-barreto/pstate/internal/phase"
)

const FileName = "ROADMAP.md"

// Section is one "Phase N: Name" heading and the lines under it.
type Section struct {
	Number phase.Number
	Token  string // number as written in the heading, e.g. "09.05"
	Name   string
	Level  int // heading depth, 2 to 4
	Line   int // index of the heading line
	End    int // index one past the last line of the section
}

type heading struct {
	line  int
	level int
}

// Roadmap is a parsed ROADMAP.md.
type Roadmap struct {
	lines    []string
	headings []heading
	code     map[int]bool
	sections []Section
}

var (
	phaseHeadingRe = regexp.MustCompile(`^ {0,3}(#{2,4})\s+Phase\s+(\d+(?:\.\d+)?)\s*:\s*(.*?)\s*#*\s*$`)
	atxRe          = regexp.MustCompile(`^ {0,3}(#{1,6})(?:\s|$)`)
	ruleRe         = regexp.MustCompile(`^ {0,3}(?:-{3,}|\*{3,}|_{3,})\s*$`)
)

var md = goldmark.New()

// Parse indexes text. It never fails; a document without phase headings
// simply has no sections.
func Parse(src string) *Roadmap {
	r := &Roadmap{}
	r.reset(strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n"))
	return r
}

// String renders the document.
func (r *Roadmap) String() string {
	return strings.Join(r.lines, "\n")
}

func (r *Roadmap) reset(lines []string) {
	r.lines = lines
	r.headings = nil
	r.code = map[int]bool{}
	r.sections = nil

	src := []byte(strings.Join(lines, "\n"))
	doc := md.Parser().Parse(text.NewReader(src))
	lineOf := func(offset int) int {
		return bytes.Count(src[:offset], []byte("\n"))
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Lines().Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			line := lineOf(node.Lines().At(0).Start)
			// setext headings report their text line, which has no '#'
			if atxRe.MatchString(r.lines[line]) {
				r.headings = append(r.headings, heading{line: line, level: node.Level})
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			segs := n.Lines()
			for i := 0; i < segs.Len(); i++ {
				r.code[lineOf(segs.At(i).Start)] = true
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for i, h := range r.headings {
		m := phaseHeadingRe.FindStringSubmatch(r.lines[h.line])
		if m == nil {
			continue
		}
		n, err := phase.ParseNumber(m[2])
		if err != nil {
			continue
		}
		r.sections = append(r.sections, Section{
			Number: n,
			Token:  m[2],
			Name:   m[3],
			Level:  len(m[1]),
			Line:   h.line,
			End:    r.sectionEnd(i),
		})
	}
}

// sectionEnd finds where the section opened by headings[idx] stops: at the
// next heading of the same or a shallower depth, or at a horizontal rule.
func (r *Roadmap) sectionEnd(idx int) int {
	start := r.headings[idx]
	end := len(r.lines)
	for _, h := range r.headings[idx+1:] {
		if h.level <= start.level {
			end = h.line
			break
		}
	}
	for j := start.line + 1; j < end; j++ {
		if !r.code[j] && ruleRe.MatchString(r.lines[j]) {
			return j
		}
	}
	return end
}

// Sections returns the phase sections in document order.
func (r *Roadmap) Sections() []Section {
	return r.sections
}

// Find returns the section for n. Padding differences ("9.05" vs "09.05")
// do not matter.
func (r *Roadmap) Find(n phase.Number) (Section, bool) {
	for _, s := range r.sections {
		if s.Number.Equal(n) {
			return s, true
		}
	}
	return Section{}, false
}

// SectionText returns the heading and body of s without trailing blank lines.
func (r *Roadmap) SectionText(s Section) string {
	return strings.Join(r.lines[s.Line:r.lastContent(s)], "\n")
}

func (r *Roadmap) lastContent(s Section) int {
	end := s.End
	for end > s.Line+1 && strings.TrimSpace(r.lines[end-1]) == "" {
		end--
	}
	return end
}

// Field returns the value of a "**Name:** value" line inside s.
func (r *Roadmap) Field(s Section, name string) (string, bool) {
	re := fieldRe(name)
	for j := s.Line + 1; j < s.End; j++ {
		if m := re.FindStringSubmatch(r.lines[j]); m != nil {
			return strings.TrimSpace(m[2]), true
		}
	}
	return "", false
}

// SetField replaces the value of a field line inside s. It reports false
// when the field is absent.
func (r *Roadmap) SetField(s Section, name, value string) bool {
	re := fieldRe(name)
	for j := s.Line + 1; j < s.End; j++ {
		if m := re.FindStringSubmatch(r.lines[j]); m != nil {
			lines := append([]string(nil), r.lines...)
			lines[j] = m[1] + value
			r.reset(lines)
			return true
		}
	}
	return false
}

func fieldRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(\s*\*\*` + regexp.QuoteMeta(name) + `(?::\*\*|\*\*:)\s*)(.*)$`)
}

// Requirements returns the requirement IDs listed on the section's
// "**Requirements:**" line. Both "A, B" and "[A, B]" are accepted.
func (r *Roadmap) Requirements(s Section) []string {
	v, ok := r.Field(s, "Requirements")
	if !ok {
		return nil
	}
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(v), "["), "]"))
	var ids []string
	for _, part := range strings.Split(v, ",") {
		id := strings.Trim(strings.TrimSpace(part), "*`")
		if id == "" || strings.EqualFold(id, "none") || strings.EqualFold(id, "tbd") {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
