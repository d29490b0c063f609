package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/multierr"

	"spritegen/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty report.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	r.file = f
	return r, nil
}

type entry struct {
	path  string
	stamp time.Time
	data  []byte
}

// Report accumulates files and data to be archived when program ends.
// All methods are safe to call on nil Report, which means no report was
// requested. Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Name returns absolute name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be put into the report under requested name. File
// content is read when report is closed.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.path != path {
		panic(fmt.Sprintf("attempt to overwrite report entry [%s]: was %s, now %s", name, old.path, path))
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	r.entries[name] = entry{path: path}
}

// StoreData puts data into the report under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("attempt to overwrite report data [%s]", name))
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// Close writes report archive.
func (r *Report) Close() (err error) {
	if r == nil || r.file == nil {
		return nil
	}
	defer func() {
		err = multierr.Append(err, r.file.Close())
	}()

	arc := zip.NewWriter(r.file)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)

	now := time.Now()
	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(manifest, "%s\t%s\t%s\n", e.stamp.UTC().Format(time.UnixDate), name, e.path)
	}
	if err := saveFile(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.data != nil {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		if err := saveStored(arc, name, e.path); err != nil {
			return err
		}
	}
	return nil
}

// saveStored copies regular file into archive, absent files are ignored.
func saveStored(arc *zip.Writer, name, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(arc, name, info.ModTime(), f)
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
