package pdfresample

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	pkgerrors "github.com/pkg/errors"
)

// ResampleOptions controls how a resampled image is stored.
type ResampleOptions struct {
	// Compression is the single filter of the new image stream,
	// FlateDecode (default) or LZWDecode. Soft masks always use FlateDecode.
	Compression string
}

// Compressions lists the supported values of ResampleOptions.Compression.
var Compressions = []string{filter.Flate, filter.LZW}

func checkCompression(name string) error {
	for _, c := range Compressions {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("unsupported compression %q", name)
}

// ResampleImage creates a new image XObject holding img scaled by scaleX and
// scaleY with method m. The result has 8 bits per component and keeps the
// color space of img. A soft mask is resampled to the same size.
//
// The new objects are added to the document, but no page refers to them
// until ReplaceImage is called.
func (d *Document) ResampleImage(img *Image, scaleX, scaleY float64, m Method, opts ...func(o *ResampleOptions)) (*Image, error) {
	if img == nil || img.doc != d {
		return nil, errors.New("image does not belong to this document")
	}
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(m))
	}
	if err := checkScale(scaleX, scaleY); err != nil {
		return nil, err
	}

	opt := ResampleOptions{
		Compression: filter.Flate,
	}

	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	if err := checkCompression(opt.Compression); err != nil {
		return nil, err
	}

	if img.cs != nil && img.cs.Family == csIndexed && m != MethodNearestNeighbor {
		return nil, fmt.Errorf("%w: %s image %s with %s", ErrUnsupportedImage, csIndexed, img.Name, m)
	}

	src, err := img.Samples()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}

	dstW, dstH := ScaledSize(img.Width, img.Height, scaleX, scaleY)

	dst, err := ResampleSamples(src, dstW, dstH, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}

	sd, err := newImageStream(dst, img.csObj, opt.Compression)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}

	for _, key := range []string{"Intent", "Interpolate"} {
		if v, ok := img.sd.Find(key); ok {
			sd.Dict[key] = v
		}
	}
	// Indexed /Decode ranges depend on the bit depth.
	if v, ok := img.sd.Find("Decode"); ok && (img.cs.Family != csIndexed || img.BitsPerComponent == outputBitsPerComponent) {
		sd.Dict["Decode"] = v
	}

	var smask *Image
	if img.SMask != nil {
		if smask, err = d.resampleSoftMask(img.SMask, dstW, dstH, m); err != nil {
			return nil, fmt.Errorf("%s: %w", img.Name, err)
		}
		sd.Dict["SMask"] = *smask.ref
	}

	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "%s: add image object", img.Name)
	}

	return &Image{
		Name:             img.Name,
		Width:            dstW,
		Height:           dstH,
		BitsPerComponent: outputBitsPerComponent,
		ColorSpace:       img.ColorSpace,
		Components:       img.Components,
		Filters:          []string{opt.Compression},
		SMask:            smask,
		doc:              d,
		ref:              ref,
		sd:               sd,
		cs:               img.cs,
		csObj:            img.csObj,
		content:          dst.Pix,
	}, nil
}

func (d *Document) resampleSoftMask(mask *Image, dstW, dstH int, m Method) (*Image, error) {
	src, err := mask.Samples()
	if err != nil {
		return nil, fmt.Errorf("soft mask: %w", err)
	}

	dst, err := ResampleSamples(src, dstW, dstH, m)
	if err != nil {
		return nil, fmt.Errorf("soft mask: %w", err)
	}

	sd, err := newImageStream(dst, types.Name(csDeviceGray), filter.Flate)
	if err != nil {
		return nil, fmt.Errorf("soft mask: %w", err)
	}
	for _, key := range []string{"Matte", "Decode"} {
		if v, ok := mask.sd.Find(key); ok {
			sd.Dict[key] = v
		}
	}

	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "add soft mask object")
	}

	return &Image{
		Name:             mask.Name,
		Width:            dstW,
		Height:           dstH,
		BitsPerComponent: outputBitsPerComponent,
		ColorSpace:       csDeviceGray,
		Components:       1,
		Filters:          []string{filter.Flate},
		doc:              d,
		ref:              ref,
		sd:               sd,
		cs:               &colorSpace{Family: csDeviceGray, Components: 1},
		csObj:            types.Name(csDeviceGray),
		content:          dst.Pix,
	}, nil
}

// newImageStream builds an encoded image XObject stream with a single filter.
func newImageStream(s Samples, cs types.Object, compression string) (*types.StreamDict, error) {
	sd := &types.StreamDict{
		Dict: types.Dict(map[string]types.Object{
			"Type":             types.Name("XObject"),
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(s.Width),
			"Height":           types.Integer(s.Height),
			"BitsPerComponent": types.Integer(outputBitsPerComponent),
			"ColorSpace":       cs,
			"Filter":           types.Name(compression),
		}),
		Content:        s.Pix,
		FilterPipeline: []types.PDFFilter{{Name: compression, DecodeParms: nil}},
	}

	if err := sd.Encode(); err != nil {
		return nil, pkgerrors.Wrapf(err, "encode %s", compression)
	}

	return sd, nil
}
