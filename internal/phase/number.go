// Package phase holds phase numbers and the phase directories under
// .planning/phases. Whole phases are numbered 1, 2, 3; inserted phases
// take a decimal under the phase they follow (6.1, 6.2). Directory names
// zero-pad the whole part to two digits: "06.1-fix-auth".
package phase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Number is a phase number. Minor is only meaningful when Decimal is set.
type Number struct {
	Major   int
	Minor   int
	Decimal bool
}

var numberRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)

// ParseNumber accepts "6", "06", "6.1" and "06.1".
func ParseNumber(s string) (Number, error) {
	m := numberRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Number{}, fmt.Errorf("invalid phase number %q", s)
	}
	major, _ := strconv.Atoi(m[1])
	n := Number{Major: major}
	if m[2] != "" {
		n.Minor, _ = strconv.Atoi(m[2])
		n.Decimal = true
	}
	return n, nil
}

// Whole returns the number without its decimal part.
func Whole(major int) Number {
	return Number{Major: major}
}

// WithMinor returns the decimal phase major.minor.
func (n Number) WithMinor(minor int) Number {
	return Number{Major: n.Major, Minor: minor, Decimal: true}
}

// String renders the number without padding: "6", "6.1".
func (n Number) String() string {
	if n.Decimal {
		return fmt.Sprintf("%d.%d", n.Major, n.Minor)
	}
	return strconv.Itoa(n.Major)
}

// Padded renders the number as used in directory names: "06", "06.1".
func (n Number) Padded() string {
	if n.Decimal {
		return fmt.Sprintf("%02d.%d", n.Major, n.Minor)
	}
	return fmt.Sprintf("%02d", n.Major)
}

// Format renders n using the padding style of an existing token, so that
// rewritten references keep the document's own convention.
func (n Number) Format(like string) string {
	if strings.HasPrefix(like, "0") && len(like) > 1 {
		return n.Padded()
	}
	return n.String()
}

// NameLike renders n for a directory or file name that currently starts
// with token. A whole part of two or more digits ("03", "10") means the
// name is padded; only a single-digit token ("3") stays unpadded.
func (n Number) NameLike(token string) string {
	whole, _, _ := strings.Cut(token, ".")
	if len(whole) >= 2 {
		return n.Padded()
	}
	return n.String()
}

// Compare orders numbers: 5 < 6 < 6.1 < 6.2 < 6.10 < 7.
func (n Number) Compare(o Number) int {
	switch {
	case n.Major != o.Major:
		return cmpInt(n.Major, o.Major)
	case n.Decimal != o.Decimal:
		if n.Decimal {
			return 1
		}
		return -1
	default:
		return cmpInt(n.Minor, o.Minor)
	}
}

func (n Number) Equal(o Number) bool { return n.Compare(o) == 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a phase description into a directory suffix.
func Slug(description string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(description), "-"), "-")
}

// DirName builds a phase directory name such as "03-user-dashboard".
func DirName(n Number, slug string) string {
	if slug == "" {
		return n.Padded()
	}
	return n.Padded() + "-" + slug
}
