package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Set returns text with the top-level header key set to a scalar value.
// An existing entry, including any indented lines that belong to it, is
// replaced in place; otherwise the key is appended to the header. Text
// without a header gets one.
func Set(text, key, value string) string {
	line := key + ": " + formatScalar(value)
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	header, body, ok := split(norm)
	if !ok {
		return "---\n" + line + "\n---\n" + norm
	}

	var lines []string
	if header != "" {
		lines = strings.Split(header, "\n")
	}
	out := make([]string, 0, len(lines)+1)
	replaced := false
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if !replaced && isKeyLine(l, key) {
			out = append(out, line)
			replaced = true
			for i+1 < len(lines) && isContinuation(lines[i+1]) {
				i++
			}
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append(out, line)
	}
	return "---\n" + strings.Join(out, "\n") + "\n---\n" + body
}

func isKeyLine(line, key string) bool {
	return strings.HasPrefix(line, key+":") && (len(line) == len(key)+1 || line[len(key)+1] == ' ')
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "- ")
}

func formatScalar(v string) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return v
	}
	return strings.TrimSuffix(string(out), "\n")
}
