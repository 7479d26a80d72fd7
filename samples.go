package pdfresample

import (
	"errors"
	"fmt"
	"math"
)

// ScaledSize returns the target size for scaling w x h by scaleX and scaleY.
// Each side is rounded to the nearest integer, halves away from zero, and is
// at least 1.
func ScaledSize(w, h int, scaleX, scaleY float64) (int, int) {
	return scaledSide(w, scaleX), scaledSide(h, scaleY)
}

func scaledSide(n int, scale float64) int {
	v := int(math.Round(float64(n) * scale))
	if v < 1 {
		return 1
	}
	return v
}

func checkScale(scaleX, scaleY float64) error {
	for _, s := range [2]float64{scaleX, scaleY} {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidScale, s)
		}
	}
	return nil
}

func (s Samples) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid sample dimensions %dx%d", s.Width, s.Height)
	}
	if s.Components <= 0 {
		return fmt.Errorf("invalid component count %d", s.Components)
	}
	if need := s.Width * s.Height * s.Components; len(s.Pix) < need {
		return fmt.Errorf("short sample buffer: have %d bytes, need %d", len(s.Pix), need)
	}
	return nil
}

// ResampleSamples scales src to dstW x dstH with method m.
func ResampleSamples(src Samples, dstW, dstH int, m Method) (Samples, error) {
	if !m.Valid() {
		return Samples{}, fmt.Errorf("%w: %d", ErrInvalidMethod, int(m))
	}
	if err := src.validate(); err != nil {
		return Samples{}, err
	}
	if dstW <= 0 || dstH <= 0 {
		return Samples{}, errors.New("invalid target dimensions")
	}

	out := Samples{Width: dstW, Height: dstH, Components: src.Components}
	stride := src.Width * src.Components
	if m == MethodNearestNeighbor {
		out.Pix = resampleNearest8(src.Pix, src.Width, src.Height, stride, src.Components, dstW, dstH)
		return out, nil
	}

	def, ok := kernelForMethod(m)
	if !ok {
		return Samples{}, fmt.Errorf("%w: no kernel for %s", ErrInvalidMethod, m)
	}
	out.Pix = resampleInterleaved8(src.Pix, src.Width, src.Height, stride, src.Components, dstW, dstH, def)
	return out, nil
}

// unpackSamples converts packed sample rows of depth bpc to one byte per
// sample. Rows of packed input start on a byte boundary. When scale is set,
// values below 8 bits are stretched to 0..255; 16-bit values keep the high
// byte either way.
func unpackSamples(data []byte, w, h, comps, bpc int, scale bool) ([]uint8, error) {
	n := w * comps
	rowBytes := (n*bpc + 7) / 8
	if need := rowBytes * h; len(data) < need {
		return nil, fmt.Errorf("short image data: have %d bytes, need %d", len(data), need)
	}

	out := make([]uint8, n*h)
	switch bpc {
	case 8:
		for y := 0; y < h; y++ {
			copy(out[y*n:(y+1)*n], data[y*rowBytes:])
		}
	case 16:
		for y := 0; y < h; y++ {
			row := data[y*rowBytes:]
			for i := 0; i < n; i++ {
				out[y*n+i] = row[2*i]
			}
		}
	case 1, 2, 4:
		maxVal := 1<<bpc - 1
		perByte := 8 / bpc
		for y := 0; y < h; y++ {
			row := data[y*rowBytes:]
			for i := 0; i < n; i++ {
				shift := 8 - bpc*(i%perByte+1)
				v := int(row[i/perByte]>>shift) & maxVal
				if scale {
					v = v * 255 / maxVal
				}
				out[y*n+i] = uint8(v)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %d bits per component", ErrUnsupportedImage, bpc)
	}
	return out, nil
}
