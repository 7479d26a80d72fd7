package pdfresample

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hhrutter/lzw"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func duckyImage(t *testing.T) (*Document, *Image) {
	t.Helper()

	doc, err := Open(duckyPath)
	if err != nil {
		t.Fatal(err)
	}
	img, err := doc.PageImage(1, "Im0")
	if err != nil {
		t.Fatal(err)
	}
	return doc, img
}

// reopen writes doc and reads it back.
func reopen(t *testing.T, doc *Document) *Document {
	t.Helper()

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return out
}

func TestResampleImageNearest(t *testing.T) {
	doc, img := duckyImage(t)

	res, err := doc.ResampleImage(img, 0.5, 0.5, MethodNearestNeighbor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 51 || res.Height != 38 || res.BitsPerComponent != 8 {
		t.Fatalf("unexpected result: %+v", info(res))
	}
	if res.SMask == nil || res.SMask.Width != 51 || res.SMask.Height != 38 {
		t.Fatalf("unexpected soft mask: %+v", info(res.SMask))
	}
	if res.ObjectNumber() == 0 || res.ObjectNumber() == img.ObjectNumber() {
		t.Fatalf("expected a new object, got %d", res.ObjectNumber())
	}

	if err := doc.ReplaceImage(1, "Im0", res); err != nil {
		t.Fatal(err)
	}

	got, err := reopen(t, doc).PageImage(1, "Im0")
	if err != nil {
		t.Fatal(err)
	}
	if sum := mustChecksum(t, got); sum != "a979496dd27fc2609ee6ba95c23b87aa" {
		t.Fatalf("unexpected image checksum %s", sum)
	}
	if sum := mustChecksum(t, got.SMask); sum != "5d3a921e5875d2d99bb2e903f3318b38" {
		t.Fatalf("unexpected soft mask checksum %s", sum)
	}
	if got.ColorSpace != csICCBased || got.SMask.ColorSpace != csDeviceGray {
		t.Fatalf("unexpected color spaces %s, %s", got.ColorSpace, got.SMask.ColorSpace)
	}
}

func TestResampleImageLZW(t *testing.T) {
	doc, img := duckyImage(t)

	res, err := doc.ResampleImage(img, 0.25, 0.5, MethodLinear, func(o *ResampleOptions) {
		o.Compression = filter.LZW
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 25 || res.Height != 38 {
		t.Fatalf("unexpected size %dx%d", res.Width, res.Height)
	}
	if err := doc.ReplaceImage(1, "Im0", res); err != nil {
		t.Fatal(err)
	}

	got, err := reopen(t, doc).PageImage(1, "Im0")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Filters) != 1 || got.Filters[0] != filter.LZW {
		t.Fatalf("unexpected filters %v", got.Filters)
	}
	if len(got.SMask.Filters) != 1 || got.SMask.Filters[0] != filter.Flate {
		t.Fatalf("unexpected soft mask filters %v", got.SMask.Filters)
	}

	r := lzw.NewReader(bytes.NewReader(got.sd.Raw), true)
	decoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("lzw: %v", err)
	}
	_ = r.Close()

	if len(decoded) < len(res.content) || !bytes.Equal(decoded[:len(res.content)], res.content) {
		t.Fatal("LZW stream does not decode to the resampled samples")
	}
	content, err := got.Content()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, res.content) {
		t.Fatal("decoded content differs from the resampled samples")
	}
}

func TestResampleImageErrors(t *testing.T) {
	doc, img := duckyImage(t)

	if _, err := doc.ResampleImage(img, 0.5, 0.5, MethodInvalid); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	if _, err := doc.ResampleImage(img, 0, 0.5, MethodLinear); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
	if _, err := doc.ResampleImage(img, 0.5, 0.5, MethodLinear, func(o *ResampleOptions) {
		o.Compression = filter.DCT
	}); err == nil {
		t.Fatal("expected error for unsupported compression")
	}

	other, _ := duckyImage(t)
	if _, err := other.ResampleImage(img, 0.5, 0.5, MethodLinear); err == nil {
		t.Fatal("expected error for image of another document")
	}

	idx := openTestdata(t, "indexed.pdf")
	im, err := idx.PageImage(1, "Idx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := idx.ResampleImage(im, 0.5, 0.5, MethodBicubic); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestResampleImageIndexed(t *testing.T) {
	doc := openTestdata(t, "indexed.pdf")
	img, err := doc.PageImage(1, "Idx")
	if err != nil {
		t.Fatal(err)
	}

	res, err := doc.ResampleImage(img, 0.5, 0.5, MethodNearestNeighbor)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.ReplaceImage(1, "Idx", res); err != nil {
		t.Fatal(err)
	}

	got, err := reopen(t, doc).PageImage(1, "Idx")
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 5 || got.Height != 4 || got.BitsPerComponent != 8 || got.ColorSpace != csIndexed {
		t.Fatalf("unexpected image: %+v", info(got))
	}

	content, err := got.Content()
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			sx, sy := x*9/5, y*7/4
			if got, want := content[y*5+x], uint8((sx+sy)%3); got != want {
				t.Fatalf("index (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func decodeValues(t *testing.T, img *Image) []float64 {
	t.Helper()

	var vals []float64
	for _, o := range img.sd.ArrayEntry("Decode") {
		v, ok := number(o)
		if !ok {
			t.Fatalf("%s: /Decode entry %v is not a number", img.Name, o)
		}
		vals = append(vals, v)
	}
	return vals
}

func TestResampleImageKeepsDecode(t *testing.T) {
	doc, img := duckyImage(t)
	img.sd.Dict["Decode"] = types.NewNumberArray(1, 0, 1, 0, 1, 0)

	res, err := doc.ResampleImage(img, 0.5, 0.5, MethodLinear)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 0, 1, 0, 1, 0}
	if got := decodeValues(t, res); !cmp.Equal(want, got) {
		t.Fatalf("unexpected /Decode: %s", cmp.Diff(want, got))
	}

	if err := doc.ReplaceImage(1, "Im0", res); err != nil {
		t.Fatal(err)
	}
	got, err := reopen(t, doc).PageImage(1, "Im0")
	if err != nil {
		t.Fatal(err)
	}
	if vals := decodeValues(t, got); !cmp.Equal(want, vals) {
		t.Fatalf("unexpected /Decode after write: %s", cmp.Diff(want, vals))
	}
	if vals := decodeValues(t, got.SMask); len(vals) != 0 {
		t.Fatalf("unexpected soft mask /Decode %v", vals)
	}
}

func mustChecksum(t *testing.T, img *Image) string {
	t.Helper()

	sum, err := Checksum(img)
	if err != nil {
		t.Fatal(err)
	}
	return sum
}
