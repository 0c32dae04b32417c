// Package service runs the metrics pipeline over a vault on disk and over
// payloads supplied by an embedding host.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/vaultmetrics/internal/apperr"
	"github.com/starford/vaultmetrics/internal/checksum"
	"github.com/starford/vaultmetrics/internal/metrics"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/storage"
	"github.com/starford/vaultmetrics/internal/vault"
)

// Service coordinates storage reads, the pipeline and output writes.
type Service struct {
	store  storage.Provider
	opts   metrics.Options
	output string
	logger *slog.Logger
}

// WriteResult describes one WriteOutput call.
type WriteResult struct {
	Path    string `json:"path"`
	Notes   int    `json:"notes"`
	Skipped int    `json:"skipped"`
	Changed bool   `json:"changed"`
}

// New creates a service. opts.Root is replaced by the store root.
func New(store storage.Provider, opts metrics.Options, output string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts.Root = filepath.ToSlash(store.Root())
	return &Service{store: store, opts: opts, output: output, logger: logger}
}

// Root returns the vault root notes are measured against.
func (s *Service) Root() string { return s.opts.Root }

// Inputs reads every note in the vault into pipeline inputs. Paths are the
// vault root joined with the relative note path.
func (s *Service) Inputs(ctx context.Context) ([]models.NoteInput, error) {
	var inputs []models.NoteInput
	err := s.store.Walk(ctx, "", func(meta models.NoteMetadata, data []byte) error {
		if meta.Path == s.output {
			return nil
		}
		inputs = append(inputs, models.NoteInput{
			FullText: string(data),
			Path:     s.opts.Root + "/" + meta.Path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

// Vault builds the model of the vault on disk, logging dropped notes.
func (s *Service) Vault(ctx context.Context) (*vault.Vault, error) {
	inputs, err := s.Inputs(ctx)
	if err != nil {
		return nil, err
	}
	return s.build(inputs), nil
}

func (s *Service) build(inputs []models.NoteInput) *vault.Vault {
	v := vault.Build(inputs)
	for _, sk := range v.Skipped() {
		s.logger.Warn("service: note skipped",
			slog.Int("id", sk.ID),
			slog.String("path", sk.Path),
			slog.String("error", sk.Err.Error()))
	}
	return v
}

// Snapshot runs the pipeline over the vault on disk.
func (s *Service) Snapshot(ctx context.Context) (*metrics.Snapshot, *vault.Vault, error) {
	v, err := s.Vault(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := metrics.Assemble(ctx, v, s.opts)
	if err != nil {
		return nil, nil, err
	}
	return snap, v, nil
}

// Generate returns the rendered snapshot of the vault on disk.
func (s *Service) Generate(ctx context.Context) (string, error) {
	snap, v, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	s.logger.Debug("service: snapshot assembled",
		slog.Int("notes", v.Len()),
		slog.Int("skipped", len(v.Skipped())),
		slog.Int("edges", snap.Digraph.EdgeCount()))
	return metrics.Encode(snap), nil
}

// WriteOutput renders the snapshot into the configured output file. The file
// is left untouched when its content would not change.
func (s *Service) WriteOutput(ctx context.Context) (WriteResult, error) {
	snap, v, err := s.Snapshot(ctx)
	if err != nil {
		return WriteResult{}, err
	}
	out := metrics.Encode(snap)
	res := WriteResult{Path: s.output, Notes: v.Len(), Skipped: len(v.Skipped())}

	existing, err := s.store.Read(s.output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, err
	}
	if err == nil && checksum.Sum(existing) == checksum.String(out) {
		return res, nil
	}
	if err := s.store.Write(s.output, []byte(out)); err != nil {
		return res, fmt.Errorf("service: write output: %w", err)
	}
	res.Changed = true
	return res, nil
}

// Compute runs the pipeline over a host-supplied payload, measuring paths
// against req.PathToVault instead of the store root.
func (s *Service) Compute(ctx context.Context, req models.Request) (string, error) {
	opts := s.opts
	opts.Root = req.PathToVault
	snap, err := metrics.Assemble(ctx, s.build(req.Notes), opts)
	if err != nil {
		return "", err
	}
	return metrics.Encode(snap), nil
}

// NoteMetrics measures the single note at rel (relative to the vault root).
func (s *Service) NoteMetrics(ctx context.Context, rel string) (metrics.NoteMetrics, error) {
	v, err := s.Vault(ctx)
	if err != nil {
		return metrics.NoteMetrics{}, err
	}
	want := s.opts.Root + "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
	for _, n := range v.Notes() {
		if n.Path() == want {
			return metrics.Extract(n, s.opts.Root, s.opts.TodoTags)
		}
	}
	return metrics.NoteMetrics{}, fmt.Errorf("service: note %s: %w", rel, apperr.ErrNotFound)
}

// Duplicates lists, per shared display name, the relative paths of the notes
// carrying it. Paths are sorted.
func (s *Service) Duplicates(ctx context.Context) (map[string][]string, error) {
	v, err := s.Vault(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for name, group := range v.DuplicatesByName() {
		paths := make([]string, 0, len(group))
		for _, n := range group {
			paths = append(paths, strings.TrimPrefix(n.Path(), s.opts.Root+"/"))
		}
		sort.Strings(paths)
		out[name] = paths
	}
	return out, nil
}
