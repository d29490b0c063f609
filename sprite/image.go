package sprite

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Source is a single named image input.
type Source interface {
	// Name identifies the source, it is used in placements and errors.
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource string

func (f fileSource) Name() string { return filepath.ToSlash(string(f)) }

func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// Files returns sources for plain file paths keeping their order.
func Files(paths ...string) []Source {
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, fileSource(p))
	}
	return out
}

// Allocator hands out pixel buffers. Alloc must return fully transparent
// image with bounds starting at (0, 0).
type Allocator interface {
	Alloc(width, height int) *image.NRGBA
	Free(img *image.NRGBA)
}

// Pool is an Allocator which keeps freed buffers for reuse.
type Pool struct {
	buffers sync.Pool
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Alloc(width, height int) *image.NRGBA {
	n := 4 * width * height

	var pix []byte
	if bp, ok := p.buffers.Get().(*[]byte); ok {
		if cap(*bp) >= n {
			pix = (*bp)[:n]
			clear(pix)
		} else {
			p.buffers.Put(bp)
		}
	}
	if pix == nil {
		pix = make([]byte, n)
	}
	return &image.NRGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
}

func (p *Pool) Free(img *image.NRGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	pix := img.Pix[:0]
	p.buffers.Put(&pix)
	img.Pix = nil
}

// Image is a decoded source image.
type Image struct {
	Name   string
	Width  int
	Height int
	Pixels *image.NRGBA

	alloc Allocator
}

// NewImage wraps pixels acquired from alloc. Ownership of pixels passes to
// returned Image.
func NewImage(name string, pixels *image.NRGBA, alloc Allocator) *Image {
	b := pixels.Bounds()
	return &Image{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: pixels,
		alloc:  alloc,
	}
}

// Release returns pixel buffer to its allocator. Safe to call more than once.
func (img *Image) Release() {
	if img == nil || img.Pixels == nil {
		return
	}
	if img.alloc != nil {
		img.alloc.Free(img.Pixels)
	}
	img.Pixels = nil
}

// Images is an ordered set of decoded images.
type Images []*Image

// Release releases every image in the set.
func (images Images) Release() {
	for _, img := range images {
		img.Release()
	}
}
