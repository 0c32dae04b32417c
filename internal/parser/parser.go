// Package parser splits raw note text into front matter and body, decodes the
// front matter, and extracts wikilink targets from the body.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/vaultmetrics/internal/apperr"
)

const delim = "---"

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Split is the outcome of separating a note's front matter from its body.
// When HasProperties is false Content holds the entire raw text.
type Split struct {
	HasProperties bool
	Content       string
	RawProperties string
}

// SplitFrontmatter separates a leading YAML block (between --- lines) from the
// body. The opening line must be the very first line of the text; a block that
// is opened but never closed is an apperr.ErrInvalidFormat.
func SplitFrontmatter(raw string) (Split, error) {
	first, rest, found := strings.Cut(raw, "\n")
	if !found || strings.TrimSuffix(first, "\r") != delim {
		return Split{Content: raw}, nil
	}

	offset := 0
	for offset <= len(rest) {
		line, tail, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimSuffix(line, "\r") == delim {
			body := ""
			if more {
				body = tail
			}
			return Split{
				HasProperties: true,
				Content:       body,
				RawProperties: rest[:offset],
			}, nil
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}

	return Split{}, fmt.Errorf("%w: no closing %q delimiter", apperr.ErrInvalidFormat, delim)
}

// ExtractLinks returns deduplicated wikilink targets in first-seen order.
// Aliases ([[Target|Alias]]) and anchors ([[Target#Heading]], [[Target#^block]])
// are stripped; embeds (![[Target]]) count as links.
func ExtractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}
