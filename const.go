package pdfresample

import "errors"

const (
	// DefaultScale is the scale factor applied on both axes when none is given.
	DefaultScale = 0.5

	outputBitsPerComponent = 8
	maxColorSpaceDepth     = 8
	maxPageTreeDepth       = 32
)

// Sentinel errors, match with errors.Is.
var (
	ErrInvalidMethod    = errors.New("invalid resampling method")
	ErrInvalidScale     = errors.New("invalid scale factor")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrNoSuchImage      = errors.New("no such image")
	ErrNoSuchPage       = errors.New("no such page")
)
