// Package buffer provides the text buffers conversion passes read from and
// write into.
package buffer

import (
	"errors"
	"fmt"

	"github.com/starford/vaultlink/internal/storage"
)

// TextBuffer is a piece of editable text with an optional selection.
type TextBuffer interface {
	ReadSelection() (string, error)
	WriteSelection(s string) error
	ReadAll() (string, error)
	WriteAll(s string) error
}

var (
	// ErrNoSelection is returned by selection operations on a buffer without one.
	ErrNoSelection = errors.New("buffer: no selection")
	// ErrOutOfRange is returned when a range does not fit the buffer's text.
	ErrOutOfRange = errors.New("buffer: range out of bounds")
)

// Range is a byte range [Start, End) within a buffer's text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) check(n int) error {
	if r.Start < 0 || r.End < r.Start || r.End > n {
		return fmt.Errorf("%w: %d:%d for %d bytes", ErrOutOfRange, r.Start, r.End, n)
	}
	return nil
}

// Memory is an in-memory TextBuffer. A nil selection selects nothing.
type Memory struct {
	text string
	sel  *Range
}

// NewMemory returns a buffer holding text with no selection.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

// Select sets the selection.
func (m *Memory) Select(r Range) error {
	if err := r.check(len(m.text)); err != nil {
		return err
	}
	m.sel = &r
	return nil
}

// ReadSelection returns the selected text.
func (m *Memory) ReadSelection() (string, error) {
	if m.sel == nil {
		return "", ErrNoSelection
	}
	return m.text[m.sel.Start:m.sel.End], nil
}

// WriteSelection replaces the selected text; the selection then spans s.
func (m *Memory) WriteSelection(s string) error {
	if m.sel == nil {
		return ErrNoSelection
	}
	m.text = m.text[:m.sel.Start] + s + m.text[m.sel.End:]
	m.sel.End = m.sel.Start + len(s)
	return nil
}

// ReadAll returns the whole text.
func (m *Memory) ReadAll() (string, error) { return m.text, nil }

// WriteAll replaces the whole text and clears the selection.
func (m *Memory) WriteAll(s string) error {
	m.text = s
	m.sel = nil
	return nil
}

// String returns the current text.
func (m *Memory) String() string { return m.text }

// Document is a TextBuffer backed by a note in the vault. Every write goes
// through the storage provider's atomic write.
type Document struct {
	store storage.Provider
	path  string
	sel   *Range
}

// NewDocument returns a buffer for the note at path. sel may be nil.
func NewDocument(store storage.Provider, path string, sel *Range) *Document {
	return &Document{store: store, path: path, sel: sel}
}

func (d *Document) load() (string, error) {
	data, err := d.store.Read(d.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadSelection returns the selected part of the note.
func (d *Document) ReadSelection() (string, error) {
	if d.sel == nil {
		return "", ErrNoSelection
	}
	text, err := d.load()
	if err != nil {
		return "", err
	}
	if err := d.sel.check(len(text)); err != nil {
		return "", err
	}
	return text[d.sel.Start:d.sel.End], nil
}

// WriteSelection splices s into the note in place of the selection.
func (d *Document) WriteSelection(s string) error {
	if d.sel == nil {
		return ErrNoSelection
	}
	text, err := d.load()
	if err != nil {
		return err
	}
	if err := d.sel.check(len(text)); err != nil {
		return err
	}
	if err := d.store.Write(d.path, []byte(text[:d.sel.Start]+s+text[d.sel.End:])); err != nil {
		return err
	}
	d.sel.End = d.sel.Start + len(s)
	return nil
}

// ReadAll returns the whole note.
func (d *Document) ReadAll() (string, error) { return d.load() }

// WriteAll replaces the whole note.
func (d *Document) WriteAll(s string) error {
	return d.store.Write(d.path, []byte(s))
}
