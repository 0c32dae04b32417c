package vault

import (
	"path"
	"strings"

	"github.com/starford/vaultmetrics/internal/graph"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/parser"
)

// Skipped records an input that failed to parse and was left out of the model.
type Skipped struct {
	ID   int
	Path string
	Err  error
}

// Vault is the ordered collection of parsed notes for one invocation.
// It is never mutated after Build.
type Vault struct {
	notes   []*Note
	skipped []Skipped
}

// Build parses every input. Ids are input positions assigned before
// filtering, so the ids of the resulting notes need not be contiguous.
func Build(inputs []models.NoteInput) *Vault {
	v := &Vault{notes: make([]*Note, 0, len(inputs))}
	for id, in := range inputs {
		n, err := NewNote(in.FullText, in.Path, id)
		if err != nil {
			v.skipped = append(v.skipped, Skipped{ID: id, Path: in.Path, Err: err})
			continue
		}
		v.notes = append(v.notes, n)
	}
	return v
}

// Notes returns the parsed notes in input order.
func (v *Vault) Notes() []*Note { return append([]*Note(nil), v.notes...) }

// Len is the number of parsed notes.
func (v *Vault) Len() int { return len(v.notes) }

// Skipped returns the inputs dropped during Build.
func (v *Vault) Skipped() []Skipped { return append([]Skipped(nil), v.skipped...) }

// DuplicatesByName groups notes sharing a display name, keeping only groups
// with two or more members. Names compare exactly.
func (v *Vault) DuplicatesByName() map[string][]*Note {
	byName := make(map[string][]*Note, len(v.notes))
	for _, n := range v.notes {
		byName[n.Name()] = append(byName[n.Name()], n)
	}
	for name, group := range byName {
		if len(group) < 2 {
			delete(byName, name)
		}
	}
	return byName
}

// CountDuplicatedByName is the number of display names shared by two or more notes.
func (v *Vault) CountDuplicatedByName() int {
	return len(v.DuplicatesByName())
}

// LinkGraph builds the directed link graph with the default arena builder.
func (v *Vault) LinkGraph() *graph.Directed[*Note] {
	return v.LinkGraphWith(graph.ArenaBuilder[*Note]{})
}

// LinkGraphWith builds the directed link graph: node i is note i, and an edge
// i -> j exists when note i wikilinks to a target whose name is note j's
// display name. When names collide the first note in model order wins;
// unresolved targets add no edge.
func (v *Vault) LinkGraphWith(b graph.Builder[*Note]) *graph.Directed[*Note] {
	index := make(map[string]int, len(v.notes))
	for i, n := range v.notes {
		if _, taken := index[n.Name()]; !taken {
			index[n.Name()] = i
		}
	}

	return b.BuildDirected(v.notes, func(i int) []int {
		var out []int
		for _, target := range parser.ExtractLinks(v.notes[i].Content()) {
			if j, ok := index[linkName(target)]; ok {
				out = append(out, j)
			}
		}
		return out
	})
}

// linkName reduces a wikilink target to the display name it refers to.
func linkName(target string) string {
	base := path.Base(strings.ReplaceAll(target, `\`, "/"))
	return strings.TrimSuffix(base, ".md")
}
