package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSON writes v as an indented JSON document followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Line writes a single human-readable line.
func Line(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// Error writes the one-line failure message used for every command.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", Fail("error:"), err)
}

// Table writes rows with the first column padded to the widest entry.
func Table(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s%s  %s\n", Bold(r[0]), strings.Repeat(" ", width-len(r[0])), r[1])
	}
}

// List writes one bulleted line per item, or "(none)".
func List(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", Muted("(none)"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
