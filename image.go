package pdfresample

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// loadImage reads the XObject bound to name. It returns nil for XObjects that
// are not images.
func (d *Document) loadImage(name string, obj types.Object, res types.Dict) (*Image, error) {
	var ref *types.IndirectRef
	if ir, ok := obj.(types.IndirectRef); ok {
		ref = &ir
	}

	sd, _, err := d.ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, errors.Wrap(err, "dereference XObject")
	}
	if sd == nil {
		return nil, errors.New("XObject is not a stream")
	}
	if st := sd.NameEntry("Subtype"); st == nil || *st != "Image" {
		return nil, nil
	}

	return d.newImage(name, ref, sd, res)
}

func (d *Document) newImage(name string, ref *types.IndirectRef, sd *types.StreamDict, res types.Dict) (*Image, error) {
	img := &Image{
		Name: name,
		doc:  d,
		ref:  ref,
		sd:   sd,
	}

	if w := sd.IntEntry("Width"); w != nil {
		img.Width = *w
	}
	if h := sd.IntEntry("Height"); h != nil {
		img.Height = *h
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, errors.Errorf("invalid image dimensions %dx%d", img.Width, img.Height)
	}

	filters, err := d.filterNames(sd)
	if err != nil {
		return nil, err
	}
	img.Filters = filters

	if im := sd.BooleanEntry("ImageMask"); im != nil && *im {
		img.ImageMask = true
		img.BitsPerComponent = 1
		img.Components = 1
		return img, nil
	}

	if bpc := sd.IntEntry("BitsPerComponent"); bpc != nil {
		img.BitsPerComponent = *bpc
	}

	csObj, ok := sd.Find("ColorSpace")
	if !ok {
		if img.hasFilter(filter.JPX) {
			// The JPEG 2000 codestream carries its own color space.
			return img, nil
		}
		return nil, errors.New("image without /ColorSpace")
	}
	cs, err := d.resolveColorSpace(csObj, res, 0)
	if err != nil {
		return nil, errors.Wrap(err, "color space")
	}
	img.cs = cs
	img.csObj = csObj
	img.ColorSpace = cs.Family
	img.Components = cs.Components

	if smObj, ok := sd.Find("SMask"); ok {
		smask, err := d.loadSoftMask(name, smObj)
		if err != nil {
			return nil, errors.Wrap(err, "soft mask")
		}
		img.SMask = smask
	}

	return img, nil
}

func (d *Document) loadSoftMask(parent string, obj types.Object) (*Image, error) {
	o, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	// /SMask /None is not an error.
	if _, ok := o.(types.Name); ok || o == nil {
		return nil, nil
	}

	var ref *types.IndirectRef
	if ir, ok := obj.(types.IndirectRef); ok {
		ref = &ir
	}
	sd, _, err := d.ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, errors.New("soft mask is not a stream")
	}

	smask, err := d.newImage(parent+"/SMask", ref, sd, nil)
	if err != nil {
		return nil, err
	}
	if smask.Components != 1 {
		return nil, errors.Errorf("soft mask with %d components", smask.Components)
	}

	return smask, nil
}

// filterNames lists the /Filter entry of a stream in decoding order.
func (d *Document) filterNames(sd *types.StreamDict) ([]string, error) {
	obj, ok := sd.Find("Filter")
	if !ok {
		return nil, nil
	}
	o, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, errors.Wrap(err, "dereference /Filter")
	}

	switch v := o.(type) {
	case types.Name:
		return []string{string(v)}, nil
	case types.Array:
		names := make([]string, 0, len(v))
		for _, f := range v {
			fo, err := d.ctx.Dereference(f)
			if err != nil {
				return nil, errors.Wrap(err, "dereference filter name")
			}
			n, ok := fo.(types.Name)
			if !ok {
				return nil, errors.Errorf("filter name is %T", fo)
			}
			names = append(names, string(n))
		}
		return names, nil
	case nil:
		return nil, nil
	}

	return nil, errors.Errorf("unexpected /Filter %T", o)
}

func (img *Image) hasFilter(name string) bool {
	for _, f := range img.Filters {
		if f == name {
			return true
		}
	}
	return false
}

// ObjectNumber returns the object number of the image stream, or 0 for direct objects.
func (img *Image) ObjectNumber() int {
	if img.ref == nil {
		return 0
	}
	return img.ref.ObjectNumber.Value()
}

func (img *Image) rowBytes() int {
	return (img.Width*img.Components*img.BitsPerComponent + 7) / 8
}

// Content returns the decoded image stream.
//
// A stream with a sole /DCTDecode filter is decoded to interleaved samples.
func (img *Image) Content() ([]byte, error) {
	if img.content != nil {
		return img.content, nil
	}
	if img.hasFilter(filter.JPX) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, filter.JPX)
	}

	var content []byte
	if img.hasFilter(filter.DCT) {
		if len(img.Filters) != 1 {
			return nil, fmt.Errorf("%w: %s in a filter chain", ErrUnsupportedImage, filter.DCT)
		}
		if err := img.checkDCT(img.sd.Raw); err != nil {
			return nil, err
		}
		pix, err := decodeJPEG(img.sd.Raw, img.Components)
		if err != nil {
			return nil, err
		}
		content = pix
	} else {
		if err := img.sd.Decode(); err != nil {
			return nil, errors.Wrapf(err, "decode %s", img.Name)
		}
		content = img.sd.Content
	}

	if need := img.rowBytes() * img.Height; len(content) < need {
		return nil, fmt.Errorf("short image data: have %d bytes, need %d", len(content), need)
	}
	img.content = content

	return content, nil
}

// Samples returns the image samples normalised to 8 bits per component.
// Indexed images keep their palette indices.
func (img *Image) Samples() (Samples, error) {
	if img.ImageMask {
		return Samples{}, fmt.Errorf("%w: stencil mask", ErrUnsupportedImage)
	}
	if img.cs == nil {
		return Samples{}, fmt.Errorf("%w: no color space", ErrUnsupportedImage)
	}

	content, err := img.Content()
	if err != nil {
		return Samples{}, err
	}

	bpc := img.BitsPerComponent
	if img.hasFilter(filter.DCT) {
		bpc = 8
	}

	pix, err := unpackSamples(content, img.Width, img.Height, img.Components, bpc, img.cs.Family != csIndexed)
	if err != nil {
		return Samples{}, err
	}

	return Samples{Width: img.Width, Height: img.Height, Components: img.Components, Pix: pix}, nil
}

func decodeJPEG(data []byte, comps int) ([]byte, error) {
	m, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filter.DCT, err)
	}

	return jpegSamples(m, comps)
}

// jpegSamples interleaves the decoded JPEG into comps samples per pixel.
//
// 4-component frames are returned in the Adobe inverted form, as DCTDecode
// yields them, so that the image's /Decode array keeps its meaning.
func jpegSamples(m image.Image, comps int) ([]byte, error) {
	b := m.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*comps)

	switch comps {
	case 1:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = append(out, color.GrayModel.Convert(m.At(x, y)).(color.Gray).Y)
			}
		}
	case 3:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
				out = append(out, c.R, c.G, c.B)
			}
		}
	case 4:
		cm, ok := m.(*image.CMYK)
		if !ok {
			return nil, fmt.Errorf("%w: %s with 4 components is not CMYK", ErrUnsupportedImage, filter.DCT)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := cm.PixOffset(b.Min.X, y)
			for _, v := range cm.Pix[off : off+4*b.Dx()] {
				out = append(out, 255-v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s with %d components", ErrUnsupportedImage, filter.DCT, comps)
	}

	return out, nil
}
