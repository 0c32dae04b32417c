// Package apperr holds the sentinel errors shared across the pipeline and its hosts.
package apperr

import "errors"

var (
	// ErrInvalidFormat reports a front matter block that opens without closing.
	ErrInvalidFormat = errors.New("invalid frontmatter format")
	// ErrYAMLDecode reports front matter that is not a valid string-keyed YAML mapping.
	ErrYAMLDecode = errors.New("yaml decode error")
	// ErrPathOutsideVault reports a note path that does not start with the vault root.
	ErrPathOutsideVault = errors.New("path outside vault root")
	ErrNotFound         = errors.New("not found")
)
