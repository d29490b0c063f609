package sprite

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// trackingAllocator records every buffer it hands out and fails the test on
// double free.
type trackingAllocator struct {
	t      *testing.T
	mu     sync.Mutex
	live   map[*image.NRGBA]struct{}
	allocs int
	frees  int
}

func newTrackingAllocator(t *testing.T) *trackingAllocator {
	return &trackingAllocator{t: t, live: make(map[*image.NRGBA]struct{})}
}

func (a *trackingAllocator) Alloc(width, height int) *image.NRGBA {
	a.mu.Lock()
	defer a.mu.Unlock()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	a.live[img] = struct{}{}
	a.allocs++
	return img
}

func (a *trackingAllocator) Free(img *image.NRGBA) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[img]; !ok {
		a.t.Errorf("free of unknown or already released buffer %p", img)
		return
	}
	delete(a.live, img)
	a.frees++
}

func (a *trackingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

type memSource struct {
	name string
	data []byte
}

func (m memSource) Name() string { return m.name }

func (m memSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

// solid returns opaque image of given size filled with c.
func solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "gif":
		err = gif.Encode(buf, img, nil)
	case "jpg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	case "bmp":
		err = bmp.Encode(buf, img)
	default:
		t.Fatalf("unsupported test format %s", format)
	}
	if err != nil {
		t.Fatalf("unable to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("unable to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("unable to write %s: %v", path, err)
	}
	return path
}

// testImages builds decoded images of requested sizes directly, bypassing
// loader.
func testImages(alloc Allocator, sizes ...[2]int) Images {
	out := make(Images, 0, len(sizes))
	for i, sz := range sizes {
		px := alloc.Alloc(sz[0], sz[1])
		c := color.NRGBA{R: uint8(40 * (i + 1)), G: uint8(i), B: 0xAA, A: 0xFF}
		for j := 0; j < len(px.Pix); j += 4 {
			px.Pix[j], px.Pix[j+1], px.Pix[j+2], px.Pix[j+3] = c.R, c.G, c.B, c.A
		}
		out = append(out, NewImage(string(rune('A'+i)), px, alloc))
	}
	return out
}
