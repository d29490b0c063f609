// Package source finds image files to be packed in a directory tree or a zip
// archive and puts them in stable order.
package source

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"spritegen/archive"
	"spritegen/sprite"
)

const (
	OrderNatural = "natural"
	OrderLexical = "lexical"
)

// Options controls enumeration.
type Options struct {
	// Extensions to pick up, with leading dot, case is ignored.
	Extensions []string
	// Order is either OrderNatural or OrderLexical, empty means natural.
	Order string
	// CodePage is used to decode non UTF-8 names in archives, may be nil.
	CodePage encoding.Encoding
	// Exclude lists absolute file names which must never be picked up,
	// normally produced artifacts when target is inside source.
	Exclude []string
}

type item struct {
	key string // relative slash separated path, used for ordering
	src sprite.Source
}

// Enumerate returns sources found at src. src could be a directory, a zip
// archive or a path inside zip archive ("icons.zip/set/one").
func Enumerate(ctx context.Context, src string, opts Options, log *zap.Logger) ([]sprite.Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("source")

	if opts.Order != "" && opts.Order != OrderNatural && opts.Order != OrderLexical {
		return nil, &sprite.ConfigurationError{Path: src, Reason: fmt.Sprintf("unknown order %q", opts.Order)}
	}

	e := &enumerator{opts: opts, exts: make(map[string]struct{}, len(opts.Extensions)), log: log}
	for _, ext := range opts.Extensions {
		e.exts[strings.ToLower(ext)] = struct{}{}
	}
	for _, x := range opts.Exclude {
		e.exclude = append(e.exclude, resolve(x))
	}

	items, err := e.enumerate(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: nothing with extensions %v found in (%s)", sprite.ErrEmptyInput, opts.Extensions, src)
	}

	sortItems(items, opts.Order)

	out := make([]sprite.Source, len(items))
	for i, it := range items {
		out[i] = it.src
	}
	log.Debug("Sources enumerated", zap.String("source", src), zap.Int("count", len(out)))
	return out, nil
}

// sortItems orders items by relative path. Natural order compares digit runs
// numerically, ties are broken lexically so order is always total.
func sortItems(items []item, order string) {
	if order == OrderLexical {
		slices.SortFunc(items, func(a, b item) int { return strings.Compare(a.key, b.key) })
		return
	}
	slices.SortFunc(items, func(a, b item) int {
		switch {
		case natural.Less(a.key, b.key):
			return -1
		case natural.Less(b.key, a.key):
			return 1
		}
		return strings.Compare(a.key, b.key)
	})
}

type enumerator struct {
	opts    Options
	exts    map[string]struct{}
	exclude []string
	log     *zap.Logger
}

func (e *enumerator) wanted(name string) bool {
	_, ok := e.exts[strings.ToLower(path.Ext(name))]
	return ok
}

func (e *enumerator) enumerate(ctx context.Context, src string) ([]item, error) {
	src = filepath.Clean(src)

	// find longest existing part of the path, the rest could be path inside
	// archive
	for head := src; ; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fi, err := os.Stat(head)
		if err != nil {
			parent := filepath.Dir(head)
			if parent == head {
				break
			}
			head = parent
			continue
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))

		if fi.IsDir() {
			if len(rest) != 0 {
				break
			}
			if real, err := filepath.EvalSymlinks(head); err == nil {
				head = real
			}
			return e.directory(ctx, head)
		}
		if !fi.Mode().IsRegular() || !isArchive(head) {
			if len(rest) != 0 {
				return nil, &sprite.ConfigurationError{Path: src, Reason: "path inside a file which is not a zip archive"}
			}
			return nil, &sprite.ConfigurationError{Path: src, Reason: "source is not a directory or zip archive"}
		}
		return e.archive(ctx, head, filepath.ToSlash(rest))
	}
	return nil, &sprite.ConfigurationError{Path: src, Reason: "source does not exist", Err: fs.ErrNotExist}
}

func (e *enumerator) directory(ctx context.Context, root string) ([]item, error) {
	var items []item
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return &sprite.ConfigurationError{Path: root, Reason: "unable to read source directory", Err: err}
			}
			e.log.Warn("Skipping unreadable entry", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			e.log.Debug("Skipping symbolic link", zap.String("path", p))
			return nil
		}
		if !d.Type().IsRegular() || !e.wanted(p) {
			return nil
		}
		if slices.Contains(e.exclude, resolve(p)) {
			e.log.Debug("Skipping produced artifact", zap.String("path", p))
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		items = append(items, item{key: filepath.ToSlash(rel), src: sprite.Files(p)[0]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (e *enumerator) archive(ctx context.Context, arc, prefix string) ([]item, error) {
	if len(prefix) != 0 && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var items []item
	err := archive.Walk(arc, prefix, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := archive.EntryName(f, e.opts.CodePage)
		if err != nil {
			n, _ := ianaindex.IANA.Name(e.opts.CodePage)
			e.log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", name), zap.Error(err))
		}
		if !e.wanted(name) {
			return nil
		}
		items = append(items, item{
			key: strings.TrimPrefix(name, prefix),
			src: &entry{archive: arc, raw: f.FileHeader.Name, name: name},
		})
		return nil
	})
	if err != nil {
		var cerr *sprite.ConfigurationError
		if errors.As(err, &cerr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &sprite.ConfigurationError{Path: arc, Reason: "unable to read source archive", Err: err}
	}
	return items, nil
}

// resolve returns absolute name with symbolic links in directory part
// evaluated, file itself does not have to exist.
func resolve(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return name
	}
	dir, base := filepath.Split(abs)
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(real, base)
	}
	return abs
}

// isArchive checks file signature rather than extension.
func isArchive(name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	return filetype.Is(head[:n], "zip")
}

// entry is a file inside zip archive. Archive is opened for every Open.
type entry struct {
	archive string
	raw     string
	name    string
}

func (e *entry) Name() string {
	return filepath.ToSlash(e.archive) + "/" + e.name
}

func (e *entry) Open() (io.ReadCloser, error) {
	return archive.OpenEntry(e.archive, e.raw)
}
