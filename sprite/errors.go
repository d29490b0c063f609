package sprite

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when there is nothing to pack.
	ErrEmptyInput = errors.New("no images to process")
	// ErrZeroSize is wrapped in DecodeError for images without pixels.
	ErrZeroSize = errors.New("image has zero width or height")
	// ErrNotImage is wrapped in DecodeError when content is recognized as
	// something other than an image.
	ErrNotImage = errors.New("not an image")
	// ErrUnknownFormat is wrapped in DecodeError when content type cannot
	// be recognized.
	ErrUnknownFormat = errors.New("unrecognized image format")
	// ErrSheetTooLarge is returned when resulting sheet exceeds MaxSheetPixels.
	ErrSheetTooLarge = errors.New("sprite sheet is too large")
)

// ConfigurationError reports missing or invalid source or target location.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Reason, e.Path)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DecodeError reports source which could not be turned into an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode image (%s): %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports failure to encode or write an output artifact.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("unable to write output (%s): %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
