// Package digest reads the frontmatter of plan and summary documents and
// condenses it: one summary, one phase's plan index, or the history of
// every executed plan.
package digest

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/jorge-barreto/pstate/internal/frontmatter"
)

// Decision is one "key-decisions" item, split at its first colon.
type Decision struct {
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

// Summary is what summary-extract reports for one SUMMARY.md.
type Summary struct {
	Path      string     `json:"path"`
	OneLiner  *string    `json:"one_liner"`
	KeyFiles  []string   `json:"key_files"`
	TechAdded []string   `json:"tech_added"`
	Patterns  []string   `json:"patterns"`
	Decisions []Decision `json:"decisions"`
	Error     string     `json:"error,omitempty"`
}

// SummaryFields are the names accepted by Summary.Select.
var SummaryFields = []string{"one_liner", "key_files", "tech_added", "patterns", "decisions"}

// ExtractSummary reads the summary at path. A missing file is reported in
// the result; display is the path as the caller named it.
func ExtractSummary(path, display string) (Summary, error) {
	out := Summary{Path: display}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		out.Error = "File not found"
		return out, nil
	}
	if err != nil {
		return out, err
	}
	fields, _ := frontmatter.Parse(string(data))
	if fields.Has("one-liner") {
		v := fields.String("one-liner", "")
		out.OneLiner = &v
	}
	out.KeyFiles = nonNil(fields.List("key-files"))
	out.TechAdded = nonNil(fields.List("tech-stack.added"))
	out.Patterns = nonNil(fields.List("patterns-established"))
	out.Decisions = []Decision{}
	for _, item := range fields.List("key-decisions") {
		out.Decisions = append(out.Decisions, splitDecision(item))
	}
	return out, nil
}

// Select returns the path plus the named fields. No names selects all.
func (s Summary) Select(names ...string) map[string]any {
	all := map[string]any{
		"one_liner":  s.OneLiner,
		"key_files":  s.KeyFiles,
		"tech_added": s.TechAdded,
		"patterns":   s.Patterns,
		"decisions":  s.Decisions,
	}
	out := map[string]any{"path": s.Path}
	if s.Error != "" {
		out["error"] = s.Error
		return out
	}
	if len(names) == 0 {
		names = SummaryFields
	}
	for _, n := range names {
		if v, ok := all[strings.TrimSpace(n)]; ok {
			out[strings.TrimSpace(n)] = v
		}
	}
	return out
}

func splitDecision(item string) Decision {
	summary, rationale, _ := strings.Cut(item, ":")
	return Decision{Summary: strings.TrimSpace(summary), Rationale: strings.TrimSpace(rationale)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
