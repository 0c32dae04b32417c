// Package metrics turns the vault model into per-note feature records and
// assembles them, together with the link graph and duplicate count, into a
// serializable snapshot.
package metrics

import (
	"fmt"
	"strings"

	"github.com/starford/vaultmetrics/internal/apperr"
	"github.com/starford/vaultmetrics/internal/vault"
)

const todoMarker = "#todo"

// TodoTagRule selects how front matter tags contribute to the todos count.
type TodoTagRule string

const (
	// TodoTagsAll counts every entry of the tags sequence.
	TodoTagsAll TodoTagRule = "all"
	// TodoTagsMatching counts only tag entries equal to "todo".
	TodoTagsMatching TodoTagRule = "matching"
)

// NoteMetrics is the flat feature record of one note.
type NoteMetrics struct {
	ID                     int `json:"id"`
	CountWordInContent     int `json:"count_word_in_content"`
	CountSymbolsInContent  int `json:"count_symbols_in_content"`
	CountYAMLField         int `json:"count_yaml_field"`
	CountWordInNoteName    int `json:"count_word_in_note_name"`
	CountSymbolsInNoteName int `json:"count_symbols_in_note_name"`
	PathDepth              int `json:"path_depth"`
	PathLen                int `json:"path_len"`
	Aliases                int `json:"aliases"`
	Todos                  int `json:"todos"`
}

// Extract measures one note. The note path must lie under root, otherwise
// apperr.ErrPathOutsideVault is returned.
func Extract(n *vault.Note, root string, rule TodoTagRule) (NoteMetrics, error) {
	parts, rest, err := RelativePath(root, n.Path())
	if err != nil {
		return NoteMetrics{}, err
	}
	content := n.Content()
	name := n.Name()

	return NoteMetrics{
		ID:                     n.ID(),
		CountWordInContent:     len(strings.Fields(content)),
		CountSymbolsInContent:  len(content),
		CountYAMLField:         len(n.Properties()),
		CountWordInNoteName:    len(strings.Fields(name)),
		CountSymbolsInNoteName: len(name),
		PathDepth:              len(parts),
		PathLen:                len(rest),
		Aliases:                len(n.Properties().Sequence("aliases")),
		Todos:                  strings.Count(content, todoMarker) + countTodoTags(n, rule),
	}, nil
}

func countTodoTags(n *vault.Note, rule TodoTagRule) int {
	tags := n.Properties().Sequence("tags")
	if rule != TodoTagsMatching {
		return len(tags)
	}
	count := 0
	for _, t := range tags {
		if s, ok := t.AsString(); ok && s == "todo" {
			count++
		}
	}
	return count
}

// RelativePath strips root from p component by component. It returns the
// remaining components and the remainder of p exactly as written, minus the
// separators around it. An empty root strips nothing, so an absolute p keeps
// its "/" root component.
func RelativePath(root, p string) ([]string, string, error) {
	rootSegs := segments(root)
	segs := segments(p)

	if len(rootSegs) == 0 {
		return texts(segs), trimSeparators(p, false), nil
	}

	if len(segs) < len(rootSegs) {
		return nil, "", fmt.Errorf("metrics: %q not under %q: %w", p, root, apperr.ErrPathOutsideVault)
	}
	for i, c := range rootSegs {
		if segs[i].text != c.text {
			return nil, "", fmt.Errorf("metrics: %q not under %q: %w", p, root, apperr.ErrPathOutsideVault)
		}
	}
	rest := p[segs[len(rootSegs)-1].end:]
	return texts(segs[len(rootSegs):]), trimSeparators(rest, true), nil
}

// segment is one path component and the byte offset just past it in the
// original string.
type segment struct {
	text string
	end  int
}

// segments splits a path on either slash style, skipping empty and "."
// components. An absolute path starts with a "/" component.
func segments(p string) []segment {
	var out []segment
	i := 0
	if i < len(p) && isSeparator(p[i]) {
		out = append(out, segment{text: "/", end: 1})
		i = 1
	}
	for i < len(p) {
		if isSeparator(p[i]) {
			i++
			continue
		}
		j := i
		for j < len(p) && !isSeparator(p[j]) {
			j++
		}
		if c := p[i:j]; c != "." {
			out = append(out, segment{text: c, end: j})
		}
		i = j
	}
	return out
}

func texts(segs []segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.text
	}
	return out
}

// trimSeparators drops trailing separators and, when leading is set, leading
// separators and "." components.
func trimSeparators(p string, leading bool) string {
	for len(p) > 1 && isSeparator(p[len(p)-1]) {
		p = p[:len(p)-1]
	}
	if !leading {
		return p
	}
	for {
		switch {
		case p != "" && isSeparator(p[0]):
			p = p[1:]
		case p == ".":
			p = ""
		case len(p) > 1 && p[0] == '.' && isSeparator(p[1]):
			p = p[2:]
		default:
			return p
		}
	}
}

func isSeparator(c byte) bool { return c == '/' || c == '\\' }
