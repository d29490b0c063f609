// Package archive gives access to images stored in zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding"
)

// WalkFunc is called by Walk for every regular file under requested prefix.
// Returning error stops the walk.
type WalkFunc func(archive string, file *zip.File) error

// Walk visits all files in the archive whose names start with prefix, in
// the order they are stored. Archive with absolute names or names containing
// ".." is rejected as a whole.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// ErrNoEntry is returned by OpenEntry when archive does not have requested file.
var ErrNoEntry = errors.New("no such entry in archive")

// OpenEntry opens single file stored in archive under its raw (not decoded)
// name. Closing returned reader closes archive too.
func OpenEntry(archive, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.FileHeader.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			r.Close()
			return nil, err
		}
		return &entry{ReadCloser: rc, arc: r}, nil
	}
	r.Close()
	return nil, fmt.Errorf("%w: %s", ErrNoEntry, name)
}

type entry struct {
	io.ReadCloser
	arc *zip.ReadCloser
}

func (e *entry) Close() error {
	return multierr.Append(e.ReadCloser.Close(), e.arc.Close())
}

// EntryName returns name of the file in archive. Since zip "standard" does
// not define file name encoding names not flagged as UTF-8 may be decoded
// with forced code page, cp could be nil.
func EntryName(f *zip.File, cp encoding.Encoding) (string, error) {
	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name, nil
	}
	n, err := cp.NewDecoder().String(name)
	if err != nil {
		return name, fmt.Errorf("unable to decode entry name %q: %w", name, err)
	}
	return n, nil
}

// isSafePath returns false for absolute paths and paths with ".." elements.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
