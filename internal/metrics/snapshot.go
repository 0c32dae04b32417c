package metrics

import (
	"context"
	"encoding/json"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultmetrics/internal/graph"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/vault"
)

// EncodeErrorSentinel is returned by Encode in place of a document it could not render.
const EncodeErrorSentinel = "ERROR serde"

// Options parameterises one pipeline run.
type Options struct {
	// Root is the vault root stripped from every note path.
	Root     string
	TodoTags TodoTagRule
	// Undirected adds the "ungraph" field to the snapshot.
	Undirected bool
	// Workers bounds concurrent extraction; 0 means GOMAXPROCS.
	Workers int
	Builder graph.Builder[*vault.Note]
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Snapshot is the complete result of one run.
type Snapshot struct {
	NoteInfo                   []NoteMetrics                  `json:"note_info"`
	Digraph                    *graph.Directed[NoteMetrics]   `json:"digraph"`
	Ungraph                    *graph.Undirected[NoteMetrics] `json:"ungraph,omitempty"`
	CountDuplicatedNotesByName int                            `json:"count_duplicated_notes_by_name"`
}

// Assemble extracts metrics for every note, maps the link graph onto them and
// counts duplicate names. Extraction runs concurrently but note_info keeps
// model order. Any extraction error discards the whole snapshot.
func Assemble(ctx context.Context, v *vault.Vault, opts Options) (*Snapshot, error) {
	notes := v.Notes()
	info := make([]NoteMetrics, len(notes))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, n := range notes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			m, err := Extract(n, opts.Root, opts.TodoTags)
			if err != nil {
				return err
			}
			info[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int]NoteMetrics, len(info))
	for _, m := range info {
		byID[m.ID] = m
	}

	builder := opts.Builder
	if builder == nil {
		builder = graph.ArenaBuilder[*vault.Note]{}
	}
	digraph, err := graph.Map(v.LinkGraphWith(builder), func(_ int, n *vault.Note) (NoteMetrics, error) {
		return byID[n.ID()], nil
	})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		NoteInfo:                   info,
		Digraph:                    digraph,
		CountDuplicatedNotesByName: v.CountDuplicatedByName(),
	}
	if opts.Undirected {
		snap.Ungraph = digraph.Undirected()
	}
	return snap, nil
}

// Encode renders s as JSON. It never fails: an encoding error yields
// EncodeErrorSentinel.
func Encode(s *Snapshot) string {
	return encode(s)
}

func encode(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = EncodeErrorSentinel
		}
	}()
	data, err := json.Marshal(v)
	if err != nil {
		return EncodeErrorSentinel
	}
	return string(data)
}

// Compute runs the whole pipeline over raw inputs and returns the rendered
// snapshot. Only a path outside opts.Root (or a cancelled ctx) is an error;
// notes that fail to parse are dropped.
func Compute(ctx context.Context, inputs []models.NoteInput, opts Options) (string, error) {
	snap, err := Assemble(ctx, vault.Build(inputs), opts)
	if err != nil {
		return "", err
	}
	return Encode(snap), nil
}
