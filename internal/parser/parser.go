// Package parser extracts frontmatter from Markdown text and resolves the
// date a document is filed under.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterRe matches a metadata block at the very start of the text. The
// block body is optional and lazy so the first closing line ends the block.
var frontmatterRe = regexp.MustCompile(`\A\x{FEFF}?---[ \t]*\r?\n(?:((?s:.*?))\r?\n)??---[ \t]*(?:\r?\n|\z)`)

// ErrNotMapping is returned by Decode when the block is valid YAML but not a
// key-value mapping.
var ErrNotMapping = errors.New("frontmatter is not a mapping")

// Status describes the outcome of resolving a document.
type Status int

const (
	StatusOK Status = iota
	StatusNoFrontmatter
	StatusMalformed
	StatusNoDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoFrontmatter:
		return "no_frontmatter"
	case StatusMalformed:
		return "malformed"
	default:
		return "no_date"
	}
}

// Resolution is the date and title found in one document.
type Resolution struct {
	Date   string
	Title  string // frontmatter title, empty when absent
	Status Status
	Err    error // decode error when Status is StatusMalformed
}

// OK reports whether a date was found.
func (r Resolution) OK() bool { return r.Status == StatusOK }

// ExtractFrontmatter returns the text between the leading --- delimiters.
// It reports false when there is no block or the block is blank.
func ExtractFrontmatter(text string) (string, bool) {
	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return m[1], true
}

// StripFrontmatter returns text with any leading metadata block removed.
func StripFrontmatter(text string) string {
	loc := frontmatterRe.FindStringIndex(text)
	if loc == nil {
		return strings.TrimPrefix(text, "\uFEFF")
	}
	return strings.TrimLeft(text[loc[1]:], "\r\n")
}

// maxMergeDepth bounds nested merge keys.
const maxMergeDepth = 16

// Decode parses a metadata block into top-level fields. Duplicate keys are
// rejected. Merge keys (<<) are expanded; keys written directly in a mapping
// take precedence over merged ones, and earlier merge sources over later.
func Decode(block string) (Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNotMapping
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	fm := make(Frontmatter, len(root.Content)/2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		k := root.Content[i]
		if isMergeKey(k) {
			merges = append(merges, root.Content[i+1])
			continue
		}
		if _, dup := fm[k.Value]; dup {
			return nil, fmt.Errorf("parser: duplicate key %q on line %d", k.Value, k.Line)
		}
		fm[k.Value] = valueFromNode(root.Content[i+1])
	}
	for _, m := range merges {
		if err := mergeInto(fm, m, 0); err != nil {
			return nil, err
		}
	}
	return fm, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" &&
		(n.Tag == "" || n.Tag == "!" || n.ShortTag() == "!!merge")
}

// mergeInto adds the keys of the merge source n that fm does not have yet.
// n is a mapping, an alias of one, or a sequence of those.
func mergeInto(fm Frontmatter, n *yaml.Node, depth int) error {
	if depth > maxMergeDepth {
		return errors.New("parser: merge keys nested too deeply")
	}
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		var nested []*yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if isMergeKey(k) {
				nested = append(nested, n.Content[i+1])
				continue
			}
			if _, ok := fm[k.Value]; !ok {
				fm[k.Value] = valueFromNode(n.Content[i+1])
			}
		}
		for _, m := range nested {
			if err := mergeInto(fm, m, depth+1); err != nil {
				return err
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, item := range n.Content {
			for item.Kind == yaml.AliasNode && item.Alias != nil {
				item = item.Alias
			}
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("parser: merge sequence item on line %d is not a mapping", item.Line)
			}
			if err := mergeInto(fm, item, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("parser: merge value on line %d is not a mapping", n.Line)
	}
}

// DateFromFields probes fields in order and returns the first date that
// parses. Fields after the first success are not consulted.
func DateFromFields(fm Frontmatter, fields []string) (string, bool) {
	for _, field := range fields {
		v, ok := fm.Get(field)
		if !ok {
			continue
		}
		if date, ok := ParseDate(v); ok {
			return date, true
		}
	}
	return "", false
}

// Title returns the frontmatter title verbatim, or "" when absent.
func Title(fm Frontmatter) string {
	v, ok := fm.Get("title")
	if !ok || !v.Truthy() {
		return ""
	}
	return v.Raw
}

// ResolveDocument extracts, decodes and dates a single document.
func ResolveDocument(text string, fields []string) Resolution {
	block, ok := ExtractFrontmatter(text)
	if !ok {
		return Resolution{Status: StatusNoFrontmatter}
	}
	fm, err := Decode(block)
	if err != nil {
		return Resolution{Status: StatusMalformed, Err: err}
	}
	date, ok := DateFromFields(fm, fields)
	if !ok {
		return Resolution{Status: StatusNoDate, Title: Title(fm)}
	}
	return Resolution{Date: date, Title: Title(fm), Status: StatusOK}
}
