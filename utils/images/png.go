package images

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// PNGCompression converts configuration name to compression level.
func PNGCompression(name string) (png.CompressionLevel, error) {
	switch name {
	case "default", "":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}
	return 0, fmt.Errorf("unknown PNG compression level %q", name)
}

// EncodePNG writes img as PNG preserving transparency. Encoding is
// deterministic: the same pixels always produce the same bytes.
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(level))
}
