package pdfresample

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP14 = 0xEE
)

var adobePrefix = []byte("Adobe")

// dctHeader is the frame header of a JPEG stream.
type dctHeader struct {
	Width      int
	Height     int
	Components int
	Precision  int
	// Adobe is set when an Adobe APP14 segment is present, Transform holds its color transform.
	Adobe     bool
	Transform byte
}

// readDCTHeader scans JPEG markers up to the first frame header without decoding the scan data.
func readDCTHeader(r io.Reader) (dctHeader, error) {
	br := bufio.NewReader(r)

	var h dctHeader
	if err := expectSOI(br); err != nil {
		return h, err
	}

	for {
		marker, err := readMarker(br)
		if err != nil {
			return h, fmt.Errorf("read marker: %w", err)
		}
		switch {
		case marker == markerEOI, marker == markerSOS:
			return h, errors.New("no frame header before scan data")
		case isSOF(marker):
			if err := readFrameHeader(br, &h); err != nil {
				return h, err
			}
			return h, nil
		case marker == markerAPP14:
			if err := readAdobeSegment(br, &h); err != nil {
				return h, err
			}
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			// Standalone markers carry no length.
		default:
			if err := discardSegment(br); err != nil {
				return h, err
			}
		}
	}
}

func expectSOI(br *bufio.Reader) error {
	b0, err := br.ReadByte()
	if err != nil {
		return err
	}
	b1, err := br.ReadByte()
	if err != nil {
		return err
	}
	if b0 != markerStart || b1 != markerSOI {
		return errors.New("missing JPEG SOI marker")
	}
	return nil
}

// isSOF reports frame markers, excluding DHT (C4), JPG (C8) and DAC (CC).
func isSOF(m byte) bool {
	return m >= 0xC0 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC
}

func readFrameHeader(br *bufio.Reader, h *dctHeader) error {
	length, err := readU16(br)
	if err != nil {
		return err
	}
	if length < 8 {
		return errors.New("invalid frame header length")
	}
	buf := make([]byte, length-2)
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}

	h.Precision = int(buf[0])
	h.Height = int(buf[1])<<8 | int(buf[2])
	h.Width = int(buf[3])<<8 | int(buf[4])
	h.Components = int(buf[5])

	return nil
}

func readAdobeSegment(br *bufio.Reader, h *dctHeader) error {
	length, err := readU16(br)
	if err != nil {
		return err
	}
	if length < 2 {
		return errors.New("invalid segment length")
	}
	buf := make([]byte, length-2)
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}
	if len(buf) >= 12 && bytes.HasPrefix(buf, adobePrefix) {
		h.Adobe = true
		h.Transform = buf[11]
	}
	return nil
}

func readMarker(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != markerStart {
			continue
		}
		for {
			m, err := br.ReadByte()
			if err != nil {
				return 0, err
			}
			if m != markerStart {
				return m, nil
			}
		}
	}
}

func discardSegment(br *bufio.Reader) error {
	length, err := readU16(br)
	if err != nil {
		return err
	}
	if length < 2 {
		return errors.New("invalid segment length")
	}
	_, err = io.CopyN(io.Discard, br, int64(length-2))
	return err
}

func readU16(br *bufio.Reader) (uint16, error) {
	hi, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// checkDCT verifies that the JPEG frame matches the image dictionary.
func (img *Image) checkDCT(data []byte) error {
	h, err := readDCTHeader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("DCTDecode header: %w", err)
	}
	if h.Precision != 8 {
		return fmt.Errorf("%w: %d-bit JPEG", ErrUnsupportedImage, h.Precision)
	}
	if h.Width != img.Width || h.Height != img.Height {
		return fmt.Errorf("JPEG frame is %dx%d, image is %dx%d", h.Width, h.Height, img.Width, img.Height)
	}
	if h.Components != img.Components {
		return fmt.Errorf("JPEG frame has %d components, color space has %d", h.Components, img.Components)
	}
	if h.Components == 4 && !h.Adobe {
		return fmt.Errorf("%w: 4-component JPEG without Adobe segment", ErrUnsupportedImage)
	}
	return nil
}
