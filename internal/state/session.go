package state

import (
	"strings"
	"time"
)

// RecordSession stamps the session continuity fields and returns the names
// of the fields it set. When the document has none of them, a
// "## Session Continuity" section is appended.
func (d *Document) RecordSession(now time.Time, stoppedAt, resumeFile string) []string {
	if stoppedAt == "" {
		stoppedAt = "None"
	}
	if resumeFile == "" {
		resumeFile = "None"
	}
	stamp := now.UTC().Format(time.RFC3339)
	values := []struct{ name, value string }{
		{"Last session", stamp},
		{"Last Date", stamp},
		{"Stopped At", stoppedAt},
		{"Resume File", resumeFile},
	}

	var updated []string
	for _, v := range values {
		if d.SetField(v.name, v.value) {
			updated = append(updated, v.name)
		}
	}
	if len(updated) > 0 {
		return updated
	}

	block := []string{
		"## Session Continuity",
		"",
		"**Last session:** " + stamp,
		"**Stopped At:** " + stoppedAt,
		"**Resume File:** " + resumeFile,
	}
	d.text = strings.TrimRight(d.text, "\n") + "\n\n" + strings.Join(block, "\n") + "\n"
	return []string{"Last session", "Stopped At", "Resume File"}
}
