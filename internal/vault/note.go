// Package vault holds the in-memory note model built once per invocation: the
// parsed notes, their duplicate-name groups and the link graph between them.
package vault

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/vaultmetrics/internal/parser"
)

// Note is one parsed note. It is immutable once constructed.
type Note struct {
	id         int
	content    string
	properties parser.Properties
	path       string
}

// NewNote parses rawText into a Note. Without front matter the whole text is
// the content and Properties is nil.
func NewNote(rawText, notePath string, id int) (*Note, error) {
	split, err := parser.SplitFrontmatter(rawText)
	if err != nil {
		return nil, fmt.Errorf("vault: note %q: %w", notePath, err)
	}
	if !split.HasProperties {
		return &Note{id: id, content: rawText, path: notePath}, nil
	}

	props, err := parser.Decode(split.RawProperties)
	if err != nil {
		return nil, fmt.Errorf("vault: note %q: %w", notePath, err)
	}
	return &Note{id: id, content: split.Content, properties: props, path: notePath}, nil
}

// ID is the input position the note was built from.
func (n *Note) ID() int { return n.id }

// Content is the body without front matter.
func (n *Note) Content() string { return n.content }

// Properties is the decoded front matter, nil when the note has none.
func (n *Note) Properties() parser.Properties { return n.properties }

// HasProperties reports whether the note carried a front matter block.
func (n *Note) HasProperties() bool { return n.properties != nil }

// Path is the identifying path the note was supplied with.
func (n *Note) Path() string { return n.path }

// Name is the display name: the last path segment without its extension.
func (n *Note) Name() string {
	return DisplayName(n.path)
}

// DisplayName derives a note name from a path or link target. Both slash
// styles are accepted.
func DisplayName(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" {
		return stem
	}
	return base
}
