package pdfresample

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/tiff"
)

// Export formats.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
)

// FormatFromPath derives the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("unknown image format for %s", path)
}

// ExportImage writes the decoded image to w as PNG or TIFF.
// A soft mask becomes the alpha channel.
func ExportImage(img *Image, w io.Writer, format string) error {
	m, err := ToImage(img)
	if err != nil {
		return err
	}

	switch format {
	case FormatPNG:
		return png.Encode(w, m)
	case FormatTIFF:
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}

	return fmt.Errorf("unsupported export format %q", format)
}

// ToImage converts img to an image.Image with 8-bit channels.
// Indexed images are expanded through their palette.
func ToImage(img *Image) (image.Image, error) {
	s, err := img.Samples()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}

	comps := s.Components
	pix := s.Pix
	if img.cs.Family == csIndexed {
		pix, comps = expandIndexed(s, img.cs)
	} else {
		applyDecode(img.sd, pix, comps)
	}

	var alpha []uint8
	if img.SMask != nil {
		ms, err := img.SMask.Samples()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", img.SMask.Name, err)
		}
		if ms.Width != s.Width || ms.Height != s.Height {
			if ms, err = ResampleSamples(ms, s.Width, s.Height, MethodNearestNeighbor); err != nil {
				return nil, fmt.Errorf("%s: %w", img.SMask.Name, err)
			}
		}
		alpha = ms.Pix
	}

	r := image.Rect(0, 0, s.Width, s.Height)
	n := s.Width * s.Height

	switch {
	case comps == 1 && alpha == nil:
		return &image.Gray{Pix: pix[:n], Stride: s.Width, Rect: r}, nil
	case comps == 4 && alpha == nil:
		return &image.CMYK{Pix: pix[:4*n], Stride: 4 * s.Width, Rect: r}, nil
	case comps != 1 && comps != 3 && comps != 4:
		return nil, fmt.Errorf("%w: %d components", ErrUnsupportedImage, comps)
	}

	out := image.NewNRGBA(r)
	for i := 0; i < n; i++ {
		p := pix[i*comps:]
		o := out.Pix[4*i:]
		switch comps {
		case 1:
			o[0], o[1], o[2] = p[0], p[0], p[0]
		case 3:
			o[0], o[1], o[2] = p[0], p[1], p[2]
		case 4:
			o[0], o[1], o[2] = color.CMYKToRGB(p[0], p[1], p[2], p[3])
		}
		o[3] = 0xff
		if alpha != nil {
			o[3] = alpha[i]
		}
	}

	return out, nil
}

// expandIndexed maps palette indices to base color space samples.
func expandIndexed(s Samples, cs *colorSpace) ([]uint8, int) {
	comps := cs.Base.Components
	out := make([]uint8, 0, s.Width*s.Height*comps)
	for _, idx := range s.Pix[:s.Width*s.Height] {
		i := int(idx)
		if i > cs.HiVal {
			i = cs.HiVal
		}
		out = append(out, cs.Lookup[i*comps:(i+1)*comps]...)
	}

	return out, comps
}

// applyDecode maps samples through the /Decode array of sd in place.
// Ranges are clamped to [0, 1].
func applyDecode(sd *types.StreamDict, pix []uint8, comps int) {
	if sd == nil {
		return
	}
	arr := sd.ArrayEntry("Decode")
	if len(arr) != 2*comps {
		return
	}

	luts := make([]*[256]uint8, comps)
	identity := true
	for c := range luts {
		dmin, ok1 := number(arr[2*c])
		dmax, ok2 := number(arr[2*c+1])
		if !ok1 || !ok2 || (dmin == 0 && dmax == 1) {
			continue
		}
		identity = false

		lut := new([256]uint8)
		for i := range lut {
			lut[i] = clampToByte(float32((dmin + float64(i)/255*(dmax-dmin)) * 255))
		}
		luts[c] = lut
	}
	if identity {
		return
	}

	for i := range pix {
		if lut := luts[i%comps]; lut != nil {
			pix[i] = lut[pix[i]]
		}
	}
}

func number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Float:
		return v.Value(), true
	case types.Integer:
		return float64(v.Value()), true
	}
	return 0, false
}
