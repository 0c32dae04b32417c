// Package models defines the transport types shared by the pipeline and its hosts.
package models

import "time"

// NoteInput is one raw note handed to the pipeline: its full text and its
// identifying path (absolute, i.e. prefixed with the vault root).
type NoteInput struct {
	FullText string `json:"full_text"`
	Path     string `json:"path"`
}

// Request is the payload accepted at the embedding boundary.
type Request struct {
	Notes       []NoteInput `json:"notes"`
	PathToVault string      `json:"path_to_vault"`
}

// NoteMetadata is a lightweight description of a vault file returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
