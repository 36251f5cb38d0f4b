package state

import (
	"strconv"
	"strings"
)

// Field returns the value of a "**Name:** value" line, or of a plain
// "Name: value" line when no bold form exists. Names match case-insensitively.
func (d *Document) Field(name string) (string, bool) {
	lines := strings.Split(d.text, "\n")
	if i, prefix := findField(lines, name); i >= 0 {
		return strings.TrimSpace(lines[i][len(prefix):]), true
	}
	return "", false
}

// IntField parses a field as an integer, ignoring a trailing "%".
func (d *Document) IntField(name string) (int, bool) {
	v, ok := d.Field(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(v, "%")))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetField replaces the value of an existing field. It reports false, and
// changes nothing, when the field is absent.
func (d *Document) SetField(name, value string) bool {
	lines := strings.Split(d.text, "\n")
	i, prefix := findField(lines, name)
	if i < 0 {
		return false
	}
	lines[i] = strings.TrimRight(prefix, " \t") + " " + value
	d.text = strings.Join(lines, "\n")
	return true
}

// findField returns the index of the line holding name and the prefix up to
// the start of its value.
func findField(lines []string, name string) (int, string) {
	bold := "**" + strings.ToLower(name) + ":**"
	plain := strings.ToLower(name) + ":"
	plainAt := -1
	for i, l := range lines {
		lower := strings.ToLower(l)
		if strings.HasPrefix(lower, bold) {
			return i, l[:len(bold)] + leadingSpace(l[len(bold):])
		}
		if plainAt < 0 && strings.HasPrefix(lower, plain) {
			plainAt = i
		}
	}
	if plainAt >= 0 {
		l := lines[plainAt]
		return plainAt, l[:len(plain)] + leadingSpace(l[len(plain):])
	}
	return -1, ""
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
