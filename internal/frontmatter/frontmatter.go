// Package frontmatter reads and edits the YAML header block at the top of
// plan and summary documents:
//
//	---
//	phase: 01-foundation
//	plan: 02
//	key-decisions:
//	  - Use Prisma: Better DX
//	dependency-graph:
//	  provides: [auth-api]
//	---
//	body...
//
// Parsing never fails. A header that does not decode yields no fields and
// the whole text as body.
package frontmatter

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags which member of a Value is set.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindMap
)

// Value is a header value: a string, a list of strings, or a one-level map.
type Value struct {
	Kind  Kind
	Str   string
	Items []string
	Map   map[string]Value
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	case KindMap:
		return json.Marshal(v.Map)
	default:
		return json.Marshal(v.Str)
	}
}

// Fields holds the decoded header. Nested maps are also exposed under
// compound "parent.child" keys.
type Fields map[string]Value

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the string value of key, or def if it is absent or not a string.
func (f Fields) String(key, def string) string {
	v, ok := f[key]
	if !ok || v.Kind != KindString {
		return def
	}
	return v.Str
}

// List returns key as a list. A string value becomes a one-element list;
// an absent key returns nil.
func (f Fields) List(key string) []string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	switch v.Kind {
	case KindList:
		return v.Items
	case KindString:
		if v.Str == "" {
			return nil
		}
		return []string{v.Str}
	}
	return nil
}

// Parse splits text into header fields and body.
func Parse(text string) (Fields, string) {
	header, body, ok := split(text)
	if !ok {
		return Fields{}, text
	}
	if strings.TrimSpace(header) == "" {
		return Fields{}, body
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return Fields{}, text
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return Fields{}, text
	}

	fields := Fields{}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		v := convert(val)
		fields[key] = v
		if v.Kind == KindMap {
			for child, cv := range v.Map {
				fields[key+"."+child] = cv
			}
		}
	}
	return fields, body
}

// split finds the header between an opening "---" on the first line and the
// next line that is exactly "---".
func split(text string) (header, body string, ok bool) {
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(norm, "---\n") {
		return "", "", false
	}
	rest := norm[len("---\n"):]
	if strings.HasPrefix(rest, "---\n") || rest == "---" {
		return "", strings.TrimPrefix(strings.TrimPrefix(rest, "---"), "\n"), true
	}
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n---") {
			return rest[:len(rest)-len("\n---")], "", true
		}
		return "", "", false
	}
	return rest[:idx], rest[idx+len("\n---\n"):], true
}

func convert(n *yaml.Node) Value {
	switch n.Kind {
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, itemString(c))
		}
		return Value{Kind: KindList, Items: items}
	case yaml.MappingNode:
		m := make(map[string]Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = flat(n.Content[i+1])
		}
		return Value{Kind: KindMap, Map: m}
	case yaml.AliasNode:
		if n.Alias != nil {
			return convert(n.Alias)
		}
	}
	return Value{Kind: KindString, Str: scalar(n)}
}

// flat converts a nested value without allowing further map nesting.
func flat(n *yaml.Node) Value {
	if n.Kind == yaml.MappingNode {
		return Value{Kind: KindString, Str: itemString(n)}
	}
	return convert(n)
}

// itemString renders a list element. Single-key maps, which YAML produces
// for items like "- Use Prisma: Better DX", become "Use Prisma: Better DX".
func itemString(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		parts := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			parts = append(parts, n.Content[i].Value+": "+itemString(n.Content[i+1]))
		}
		return strings.Join(parts, ", ")
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			parts = append(parts, itemString(c))
		}
		return strings.Join(parts, ", ")
	}
	return scalar(n)
}

func scalar(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}
