package pdfresample

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Samples holds 8-bit interleaved image samples.
// Rows are Width*Components bytes long without padding.
type Samples struct {
	Width      int
	Height     int
	Components int
	Pix        []uint8
}

// Image is an image XObject of a Document.
type Image struct {
	// Name is the resource name the image is bound to on its page.
	Name             string
	Width            int
	Height           int
	BitsPerComponent int
	// ColorSpace is the color space family, e.g. DeviceRGB or ICCBased.
	ColorSpace string
	Components int
	// Filters lists the stream filters in decoding order.
	Filters   []string
	ImageMask bool
	SMask     *Image

	doc     *Document
	ref     *types.IndirectRef
	sd      *types.StreamDict
	cs      *colorSpace
	csObj   types.Object
	content []byte
}

// colorSpace is a resolved PDF color space.
type colorSpace struct {
	Family     string
	Components int
	// Base, HiVal and Lookup are set for Indexed color spaces.
	Base   *colorSpace
	HiVal  int
	Lookup []byte
}
