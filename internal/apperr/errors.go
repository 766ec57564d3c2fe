// Package apperr holds the sentinel errors shared across vaultlink packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedURI reports text that is not a convertible scheme URI.
	ErrMalformedURI = errors.New("malformed uri")
	// ErrNotALink reports text that matches no supported link notation.
	ErrNotALink = errors.New("not a link")
	// ErrCollectionMismatch reports a URI addressed to another vault. It is a
	// policy short-circuit rather than a failure.
	ErrCollectionMismatch = errors.New("collection mismatch")
	// ErrNoConvertibleSpans reports a pass that changed nothing.
	ErrNoConvertibleSpans = errors.New("no convertible spans")
)
