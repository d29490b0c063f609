// Package sprite decodes independent images and packs them into a single
// horizontal strip.
//
// Layout is fixed: images are placed left to right in input order, top
// aligned, without padding. Sheet width is the sum of image widths, height is
// the maximum image height, and every pixel not covered by an image is fully
// transparent.
//
// Pixel buffers of decoded images and of the sheet are owned by the caller
// and must be returned with Release once they are no longer needed. Loader
// releases everything it decoded when it fails.
package sprite
