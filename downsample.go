package pdfresample

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Options controls whole-document downsampling.
type Options struct {
	ScaleX float64
	ScaleY float64
	Method Method
	// Compression is passed to ResampleOptions.
	Compression string
	// Pages limits processing to the listed page numbers, all pages when empty.
	Pages []int
	// OnImage is called after an image has been replaced on a page.
	OnImage func(pageNr int, src, dst *Image)
}

// DownsampleDocument resamples every image on the selected pages of doc and
// returns the number of resampled images. Images shared by several pages are
// resampled once. Stencil masks, JPEG 2000 images and other unsupported images
// are left untouched.
func DownsampleDocument(doc *Document, opts ...func(o *Options)) (int, error) {
	opt := Options{
		ScaleX:      DefaultScale,
		ScaleY:      DefaultScale,
		Method:      MethodBicubic,
		Compression: filter.Flate,
	}

	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	if !opt.Method.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMethod, int(opt.Method))
	}
	if err := checkScale(opt.ScaleX, opt.ScaleY); err != nil {
		return 0, err
	}
	if err := checkCompression(opt.Compression); err != nil {
		return 0, err
	}

	pages := opt.Pages
	if len(pages) == 0 {
		pages = make([]int, doc.PageCount())
		for i := range pages {
			pages[i] = i + 1
		}
	}

	var (
		// resampled maps source object numbers to their replacement.
		resampled = map[int]*Image{}
		created   = map[int]bool{}
		count     int
	)

	for _, pageNr := range pages {
		images, err := doc.PageImages(pageNr)
		if err != nil {
			return count, err
		}

		for _, img := range images {
			objNr := img.ObjectNumber()
			if created[objNr] {
				continue
			}

			dst, ok := resampled[objNr]
			if !ok {
				dst, err = doc.ResampleImage(img, opt.ScaleX, opt.ScaleY, opt.Method, func(o *ResampleOptions) {
					o.Compression = opt.Compression
				})
				if errors.Is(err, ErrUnsupportedImage) {
					log.CLI.Printf("page %d: skipping %s: %v\n", pageNr, img.Name, err)
					continue
				}
				if err != nil {
					return count, fmt.Errorf("page %d: %w", pageNr, err)
				}

				count++
				if objNr != 0 {
					resampled[objNr] = dst
				}
				created[dst.ObjectNumber()] = true

				log.CLI.Printf("page %d: %s %dx%d -> %dx%d (%s)\n",
					pageNr, img.Name, img.Width, img.Height, dst.Width, dst.Height, opt.Method)
			}

			if err := doc.ReplaceImage(pageNr, img.Name, dst); err != nil {
				return count, err
			}

			if opt.OnImage != nil {
				opt.OnImage(pageNr, img, dst)
			}
		}
	}

	return count, nil
}

// Downsample reads a PDF document from rs, downsamples its images and writes
// the result to w.
func Downsample(rs io.ReadSeeker, w io.Writer, opts ...func(o *Options)) (int, error) {
	doc, err := OpenReader(rs)
	if err != nil {
		return 0, err
	}

	n, err := DownsampleDocument(doc, opts...)
	if err != nil {
		return n, err
	}

	return n, doc.Write(w)
}

// DownsampleFile downsamples the images of the PDF file at inPath and writes
// the result to outPath.
func DownsampleFile(inPath, outPath string, opts ...func(o *Options)) (int, error) {
	f, err := os.Open(filepath.Clean(inPath))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	doc, err := OpenReader(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", inPath, err)
	}

	n, err := DownsampleDocument(doc, opts...)
	if err != nil {
		return n, fmt.Errorf("%s: %w", inPath, err)
	}

	return n, doc.WriteFile(outPath)
}
