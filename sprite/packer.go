package sprite

import (
	"fmt"
	"image"
)

// MaxSheetPixels limits the area of a sheet.
const MaxSheetPixels = 1 << 28

// Placement is the position of a single image in the sheet. Images are always
// placed at the top edge of the sheet.
type Placement struct {
	Name   string
	Left   int
	Width  int
	Height int
}

// Sheet is the composite image.
type Sheet struct {
	Width  int
	Height int
	Pixels *image.NRGBA

	alloc Allocator
}

// Release returns sheet pixels to its allocator. Safe to call more than once.
func (s *Sheet) Release() {
	if s == nil || s.Pixels == nil {
		return
	}
	if s.alloc != nil {
		s.alloc.Free(s.Pixels)
	}
	s.Pixels = nil
}

// Pack draws images left to right into a single transparent canvas taken from
// alloc and returns it together with placements in input order. Images are
// not modified.
func Pack(images Images, alloc Allocator) (*Sheet, []Placement, error) {
	if len(images) == 0 {
		return nil, nil, ErrEmptyInput
	}
	if alloc == nil {
		alloc = NewPool()
	}

	var width, height int
	for _, img := range images {
		if img.Pixels == nil {
			return nil, nil, fmt.Errorf("image (%s) has been released", img.Name)
		}
		if b := img.Pixels.Bounds(); b.Dx() != img.Width || b.Dy() != img.Height {
			return nil, nil, fmt.Errorf("image (%s) is %dx%d, pixels are %dx%d", img.Name, img.Width, img.Height, b.Dx(), b.Dy())
		}
		width += img.Width
		height = max(height, img.Height)
	}
	if width > 0 && height > MaxSheetPixels/width {
		return nil, nil, fmt.Errorf("%w: %dx%d", ErrSheetTooLarge, width, height)
	}

	canvas := alloc.Alloc(width, height)
	placements := make([]Placement, len(images))

	cursor := 0
	for i, img := range images {
		blit(canvas, img.Pixels, cursor)
		placements[i] = Placement{
			Name:   img.Name,
			Left:   cursor,
			Width:  img.Width,
			Height: img.Height,
		}
		cursor += img.Width
	}

	return &Sheet{Width: width, Height: height, Pixels: canvas, alloc: alloc}, placements, nil
}

// blit copies src rows into dst with top left corner at (left, 0).
func blit(dst, src *image.NRGBA, left int) {
	b := src.Bounds()
	rowLen := 4 * b.Dx()
	for y := 0; y < b.Dy(); y++ {
		s := src.PixOffset(b.Min.X, b.Min.Y+y)
		d := dst.PixOffset(left, y)
		copy(dst.Pix[d:d+rowLen], src.Pix[s:s+rowLen])
	}
}
