package sprite

import (
	"bytes"
	"errors"
	"image"
	"math/rand"
	"testing"
)

func TestPack_Example(t *testing.T) {
	alloc := newTrackingAllocator(t)
	imgs := testImages(alloc, [2]int{10, 50}, [2]int{20, 40}, [2]int{30, 60})
	defer imgs.Release()

	sheet, placements, err := Pack(imgs, alloc)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	defer sheet.Release()

	if sheet.Width != 60 || sheet.Height != 60 {
		t.Fatalf("sheet = %dx%d, want 60x60", sheet.Width, sheet.Height)
	}
	if sheet.Pixels.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("canvas bounds = %v", sheet.Pixels.Bounds())
	}

	want := []Placement{
		{Name: "A", Left: 0, Width: 10, Height: 50},
		{Name: "B", Left: 10, Width: 20, Height: 40},
		{Name: "C", Left: 30, Width: 30, Height: 60},
	}
	if len(placements) != len(want) {
		t.Fatalf("got %d placements, want %d", len(placements), len(want))
	}
	for i := range want {
		if placements[i] != want[i] {
			t.Errorf("placement[%d] = %+v, want %+v", i, placements[i], want[i])
		}
	}

	// every pixel either belongs to exactly one image footprint and matches
	// its source, or is fully transparent
	for y := 0; y < sheet.Height; y++ {
		for x := 0; x < sheet.Width; x++ {
			got := sheet.Pixels.NRGBAAt(x, y)
			covered := false
			for i, p := range placements {
				if x >= p.Left && x < p.Left+p.Width && y < p.Height {
					covered = true
					if src := imgs[i].Pixels.NRGBAAt(x-p.Left, y); got != src {
						t.Fatalf("pixel (%d,%d) = %v, want %v from %s", x, y, got, src, p.Name)
					}
				}
			}
			if !covered && got.A != 0 {
				t.Fatalf("pixel (%d,%d) outside footprints has alpha %d", x, y, got.A)
			}
		}
	}
}

func TestPack_SingleImage(t *testing.T) {
	alloc := NewPool()
	imgs := testImages(alloc, [2]int{17, 9})
	defer imgs.Release()

	sheet, placements, err := Pack(imgs, alloc)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	defer sheet.Release()

	if sheet.Width != 17 || sheet.Height != 9 {
		t.Errorf("sheet = %dx%d, want 17x9", sheet.Width, sheet.Height)
	}
	if len(placements) != 1 || placements[0].Left != 0 {
		t.Errorf("placements = %+v", placements)
	}
	if !bytes.Equal(sheet.Pixels.Pix, imgs[0].Pixels.Pix) {
		t.Error("single image sheet must match the image")
	}
}

func TestPack_Empty(t *testing.T) {
	alloc := newTrackingAllocator(t)
	_, _, err := Pack(nil, alloc)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Pack(nil) error = %v, want ErrEmptyInput", err)
	}
	if alloc.allocs != 0 {
		t.Errorf("expected no allocations, got %d", alloc.allocs)
	}
}

func TestPack_DoesNotMutateInput(t *testing.T) {
	alloc := NewPool()
	imgs := testImages(alloc, [2]int{3, 4}, [2]int{5, 2})
	defer imgs.Release()

	before := make([][]byte, len(imgs))
	for i, img := range imgs {
		before[i] = bytes.Clone(img.Pixels.Pix)
	}

	sheet, _, err := Pack(imgs, alloc)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	sheet.Release()

	for i, img := range imgs {
		if !bytes.Equal(before[i], img.Pixels.Pix) {
			t.Errorf("image %d was modified", i)
		}
	}
}

func TestPack_ReleasedImage(t *testing.T) {
	alloc := newTrackingAllocator(t)
	imgs := testImages(alloc, [2]int{3, 4}, [2]int{5, 2})
	imgs[1].Release()
	defer imgs.Release()

	if _, _, err := Pack(imgs, alloc); err == nil {
		t.Fatal("expected error for released image")
	}
	imgs.Release()
	if alloc.Live() != 0 {
		t.Errorf("%d buffers leaked", alloc.Live())
	}
}

func TestPack_TooLarge(t *testing.T) {
	alloc := newTrackingAllocator(t)
	imgs := Images{
		{Name: "wide", Width: 1 << 15, Height: 1, Pixels: &image.NRGBA{Rect: image.Rect(0, 0, 1<<15, 1)}},
		{Name: "tall", Width: 1, Height: 1 << 14, Pixels: &image.NRGBA{Rect: image.Rect(0, 0, 1, 1<<14)}},
	}
	_, _, err := Pack(imgs, alloc)
	if !errors.Is(err, ErrSheetTooLarge) {
		t.Fatalf("Pack() error = %v, want ErrSheetTooLarge", err)
	}
	if alloc.allocs != 0 {
		t.Errorf("expected no allocations, got %d", alloc.allocs)
	}
}

func TestPack_ZeroWidthImage(t *testing.T) {
	alloc := NewPool()
	imgs := testImages(alloc, [2]int{4, 4}, [2]int{0, 6}, [2]int{2, 2})
	defer imgs.Release()

	sheet, placements, err := Pack(imgs, alloc)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	defer sheet.Release()

	if sheet.Width != 6 || sheet.Height != 6 {
		t.Errorf("sheet = %dx%d, want 6x6", sheet.Width, sheet.Height)
	}
	if placements[1].Left != 4 || placements[1].Width != 0 || placements[2].Left != 4 {
		t.Errorf("placements = %+v", placements)
	}
}

func TestPack_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alloc := newTrackingAllocator(t)

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(8)
		sizes := make([][2]int, n)
		for i := range sizes {
			sizes[i] = [2]int{1 + rng.Intn(20), 1 + rng.Intn(20)}
		}
		imgs := testImages(alloc, sizes...)

		sheet, placements, err := Pack(imgs, alloc)
		if err != nil {
			t.Fatalf("run %d: Pack() error = %v", run, err)
		}

		sumW, maxH := 0, 0
		for i, sz := range sizes {
			if placements[i].Left != sumW {
				t.Errorf("run %d: placement[%d].Left = %d, want %d", run, i, placements[i].Left, sumW)
			}
			if placements[i].Left+placements[i].Width > sheet.Width && sheet.Width > 0 {
				t.Errorf("run %d: placement[%d] exceeds sheet width", run, i)
			}
			if placements[i].Width != sz[0] || placements[i].Height != sz[1] {
				t.Errorf("run %d: placement[%d] size = %dx%d, want %dx%d", run, i, placements[i].Width, placements[i].Height, sz[0], sz[1])
			}
			sumW += sz[0]
			maxH = max(maxH, sz[1])
		}
		if sheet.Width != sumW || sheet.Height != maxH {
			t.Errorf("run %d: sheet = %dx%d, want %dx%d", run, sheet.Width, sheet.Height, sumW, maxH)
		}

		sheet.Release()
		imgs.Release()
	}
	if alloc.Live() != 0 {
		t.Errorf("%d buffers leaked", alloc.Live())
	}
}

func TestPool_ReusedBuffersAreTransparent(t *testing.T) {
	p := NewPool()
	img := p.Alloc(8, 8)
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	p.Free(img)
	if img.Pix != nil {
		t.Error("Free must detach pixels")
	}
	p.Free(img)

	for _, sz := range [][2]int{{4, 4}, {8, 8}, {16, 16}} {
		next := p.Alloc(sz[0], sz[1])
		if len(next.Pix) != 4*sz[0]*sz[1] || next.Stride != 4*sz[0] {
			t.Fatalf("Alloc(%d,%d) returned %d bytes stride %d", sz[0], sz[1], len(next.Pix), next.Stride)
		}
		for i, b := range next.Pix {
			if b != 0 {
				t.Fatalf("Alloc(%d,%d) byte %d = %#x, want 0", sz[0], sz[1], i, b)
			}
		}
		p.Free(next)
	}
}
