package sprite

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"spritegen/utils/images"
)

// Loader decodes sources into images.
type Loader struct {
	alloc      Allocator
	autoOrient bool
	svgWidth   int
	svgHeight  int
	log        *zap.Logger
}

type LoaderOption func(*Loader)

// WithAllocator sets allocator for pixel buffers of decoded images.
func WithAllocator(alloc Allocator) LoaderOption {
	return func(l *Loader) {
		l.alloc = alloc
	}
}

// WithAutoOrientation requests EXIF orientation to be applied to JPEG images.
func WithAutoOrientation(enable bool) LoaderOption {
	return func(l *Loader) {
		l.autoOrient = enable
	}
}

// WithSVGSize sets raster size for SVG sources, 0 means intrinsic size.
func WithSVGSize(width, height int) LoaderOption {
	return func(l *Loader) {
		l.svgWidth, l.svgHeight = width, height
	}
}

func WithLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.alloc == nil {
		l.alloc = NewPool()
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	l.log = l.log.Named("loader")
	return l
}

// Load decodes all sources in order. Any failure aborts loading: images
// decoded so far are released and error is returned.
func (l *Loader) Load(ctx context.Context, sources []Source) (_ Images, err error) {
	out := make(Images, 0, len(sources))
	defer func() {
		if err != nil {
			out.Release()
		}
	}()

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := l.load(src)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	l.log.Debug("Images loaded", zap.Int("count", len(out)))
	return out, nil
}

func (l *Loader) load(src Source) (*Image, error) {
	name := src.Name()

	rc, err := src.Open()
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}

	decoded, format, err := l.decode(name, data)
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}
	return l.newImage(name, format, decoded)
}

// newImage copies decoded pixels into buffer from allocator.
func (l *Loader) newImage(name, format string, decoded image.Image) (*Image, error) {
	b := decoded.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Path: name, Err: ErrZeroSize}
	}

	pixels := l.alloc.Alloc(b.Dx(), b.Dy())
	copyPixels(pixels, decoded)

	l.log.Debug("Adding image", zap.String("name", name), zap.String("format", format),
		zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return NewImage(name, pixels, l.alloc), nil
}

func (l *Loader) decode(name string, data []byte) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		img, err := images.RasterizeSVG(data, l.svgWidth, l.svgHeight)
		return img, "svg", err
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, "", err
	}
	if kind == filetype.Unknown {
		return nil, "", ErrUnknownFormat
	}
	if kind.MIME.Type != "image" {
		return nil, "", fmt.Errorf("%w: detected %s", ErrNotImage, kind.MIME.Value)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(l.autoOrient))
	if err != nil {
		return nil, "", err
	}
	return img, kind.Extension, nil
}

// copyPixels copies src into dst of the same size. Non-premultiplied sources
// are copied as is, everything else goes through color conversion.
func copyPixels(dst *image.NRGBA, src image.Image) {
	if nrgba, ok := src.(*image.NRGBA); ok {
		blit(dst, nrgba, 0)
		return
	}
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
}
