package pdfresample

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/tiff"
)

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"a.png":      FormatPNG,
		"b/c.TIF":    FormatTIFF,
		"d.tiff":     FormatTIFF,
		"duck.final": "",
	} {
		got, err := FormatFromPath(path)
		if want == "" {
			if err == nil {
				t.Fatalf("%s: expected error", path)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v, want %q", path, got, err, want)
		}
	}
}

func TestExportImageDucky(t *testing.T) {
	_, img := duckyImage(t)

	s, err := img.Samples()
	if err != nil {
		t.Fatal(err)
	}
	mask, err := img.SMask.Samples()
	if err != nil {
		t.Fatal(err)
	}

	outDir := filepath.FromSlash("testdata/generated")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir out dir: %v", err)
	}

	for _, format := range []string{FormatPNG, FormatTIFF} {
		var buf bytes.Buffer
		if err := ExportImage(img, &buf, format); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, "ducky."+format), buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write %s: %v", format, err)
		}

		var m image.Image
		if format == FormatPNG {
			m, err = png.Decode(&buf)
		} else {
			m, err = tiff.Decode(&buf)
		}
		if err != nil {
			t.Fatalf("decode %s: %v", format, err)
		}
		if b := m.Bounds(); b.Dx() != 101 || b.Dy() != 75 {
			t.Fatalf("%s: unexpected bounds %v", format, b)
		}

		for _, p := range [][2]int{{0, 0}, {50, 37}, {100, 74}, {23, 61}} {
			i := p[1]*101 + p[0]
			want := color.NRGBA{R: s.Pix[3*i], G: s.Pix[3*i+1], B: s.Pix[3*i+2], A: mask.Pix[i]}
			got := color.NRGBAModel.Convert(m.At(p[0], p[1])).(color.NRGBA)
			if want.A == 0 {
				if got.A != 0 {
					t.Fatalf("%s: pixel %v should be transparent, got %v", format, p, got)
				}
				continue
			}
			if want.A == 0xff && got != want {
				t.Fatalf("%s: pixel %v = %v, want %v", format, p, got, want)
			}
			if got.A != want.A {
				t.Fatalf("%s: pixel %v alpha = %d, want %d", format, p, got.A, want.A)
			}
		}
	}
}

func TestToImageIndexed(t *testing.T) {
	doc := openTestdata(t, "indexed.pdf")
	img, err := doc.PageImage(1, "Idx")
	if err != nil {
		t.Fatal(err)
	}

	m, err := ToImage(img)
	if err != nil {
		t.Fatal(err)
	}
	palette := []color.NRGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			if got, want := m.At(x, y).(color.NRGBA), palette[(x+y)%3]; got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestToImageGray(t *testing.T) {
	doc := openTestdata(t, "inherited.pdf")
	img, err := doc.PageImage(1, "Inh")
	if err != nil {
		t.Fatal(err)
	}

	m, err := ToImage(img)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := m.(*image.Gray)
	if !ok {
		t.Fatalf("unexpected image type %T", m)
	}
	if g.GrayAt(5, 3).Y != 230 {
		t.Fatalf("unexpected gray value %d", g.GrayAt(5, 3).Y)
	}

	if err := ExportImage(img, &bytes.Buffer{}, "gif"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestToImageDecode(t *testing.T) {
	img := &Image{
		Name:             "Inverted",
		Width:            2,
		Height:           1,
		BitsPerComponent: 8,
		ColorSpace:       csDeviceCMYK,
		Components:       4,
		cs:               &colorSpace{Family: csDeviceCMYK, Components: 4},
		sd: &types.StreamDict{
			Dict: types.Dict(map[string]types.Object{"Decode": types.NewNumberArray(1, 0, 1, 0, 1, 0, 1, 0)}),
		},
		content: []byte{255, 191, 127, 0, 245, 235, 225, 215},
	}

	m, err := ToImage(img)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := m.(*image.CMYK)
	if !ok {
		t.Fatalf("unexpected image type %T", m)
	}
	want := []uint8{0, 64, 128, 255, 10, 20, 30, 40}
	if !bytes.Equal(c.Pix, want) {
		t.Fatalf("got %v, want %v", c.Pix, want)
	}
	if content, _ := img.Content(); content[0] != 255 {
		t.Fatal("decoded content was modified")
	}
}
