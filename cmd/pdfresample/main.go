package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/vearutop/pdfresample"
	"github.com/vearutop/pdfresample/internal/sample"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	api.DisableConfigDir()

	switch os.Args[1] {
	case "sample":
		if err := runSample(os.Args[2:]); err != nil {
			fail(err)
		}
	case "downsample":
		if err := runDownsample(os.Args[2:]); err != nil {
			fail(err)
		}
	case "inspect":
		if err := runInspect(os.Args[2:]); err != nil {
			fail(err)
		}
	case "extract":
		if err := runExtract(os.Args[2:]); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: pdfresample <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  sample     [-v] output/prefix_")
	fmt.Fprintln(os.Stderr, "  downsample -in input.pdf -out output.pdf [-scale 0.5 | -sx 0.5 -sy 0.25] [-method Bicubic] [-compression FlateDecode] [-pages 1,3] [-v]")
	fmt.Fprintln(os.Stderr, "  inspect    -in input.pdf [-page 1]")
	fmt.Fprintln(os.Stderr, "  extract    -in input.pdf -out image.png [-page 1] [-name Im0]")
}

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "print progress")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("missing output prefix")
	}
	if *verbose {
		log.SetDefaultCLILogger()
	}

	prefix := fs.Arg(0)
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return sample.Run(prefix)
}

func runDownsample(args []string) error {
	fs := flag.NewFlagSet("downsample", flag.ContinueOnError)
	inPath := fs.String("in", "", "input PDF")
	outPath := fs.String("out", "", "output PDF")
	scale := fs.Float64("scale", pdfresample.DefaultScale, "scale factor for both axes")
	sx := fs.Float64("sx", 0, "horizontal scale factor, overrides -scale")
	sy := fs.Float64("sy", 0, "vertical scale factor, overrides -scale")
	method := fs.String("method", pdfresample.MethodBicubic.String(), "NearestNeighbor, Bicubic or Linear")
	compression := fs.String("compression", filter.Flate, "image filter: "+strings.Join(pdfresample.Compressions, ", "))
	pages := fs.String("pages", "", "comma separated page numbers, all pages when empty")
	verbose := fs.Bool("v", false, "print progress")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}

	m, err := pdfresample.ParseMethod(*method)
	if err != nil {
		return err
	}
	pageNrs, err := parsePages(*pages)
	if err != nil {
		return err
	}
	if *sx == 0 {
		*sx = *scale
	}
	if *sy == 0 {
		*sy = *scale
	}
	if *verbose {
		log.SetDefaultCLILogger()
	}

	n, err := pdfresample.DownsampleFile(*inPath, *outPath, func(o *pdfresample.Options) {
		o.ScaleX = *sx
		o.ScaleY = *sy
		o.Method = m
		o.Compression = *compression
		o.Pages = pageNrs
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%d images resampled\n", n)
	return nil
}

func parsePages(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var pages []int
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page number %q", p)
		}
		pages = append(pages, n)
	}
	return pages, nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	inPath := fs.String("in", "", "input PDF")
	page := fs.Int("page", 0, "page number, all pages when 0")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}

	doc, err := pdfresample.Open(*inPath)
	if err != nil {
		return err
	}

	first, last := 1, doc.PageCount()
	if *page != 0 {
		first, last = *page, *page
	}

	for p := first; p <= last; p++ {
		images, err := doc.PageImages(p)
		if err != nil {
			return err
		}
		for _, img := range images {
			line, err := describe(img)
			if err != nil {
				return err
			}
			if img.SMask != nil {
				mask, err := describe(img.SMask)
				if err != nil {
					return err
				}
				line += " smask=[" + mask + "]"
			}
			fmt.Fprintf(os.Stdout, "page %d %s\n", p, line)
		}
	}
	return nil
}

func describe(img *pdfresample.Image) (string, error) {
	sum, err := pdfresample.Checksum(img)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %dx%d bpc=%d cs=%s filters=%s md5=%s",
		img.Name, img.Width, img.Height, img.BitsPerComponent, img.ColorSpace,
		strings.Join(img.Filters, ","), sum), nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	inPath := fs.String("in", "", "input PDF")
	outPath := fs.String("out", "", "output image, .png or .tif")
	page := fs.Int("page", 1, "page number")
	name := fs.String("name", "", "image resource name, first image when empty")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}

	format, err := pdfresample.FormatFromPath(*outPath)
	if err != nil {
		return err
	}

	doc, err := pdfresample.Open(*inPath)
	if err != nil {
		return err
	}

	var img *pdfresample.Image
	if *name != "" {
		if img, err = doc.PageImage(*page, *name); err != nil {
			return err
		}
	} else {
		images, err := doc.PageImages(*page)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return fmt.Errorf("%w on page %d", pdfresample.ErrNoSuchImage, *page)
		}
		img = images[0]
	}

	f, err := os.Create(filepath.Clean(*outPath))
	if err != nil {
		return err
	}
	if err := pdfresample.ExportImage(img, f, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
