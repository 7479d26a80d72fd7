// Package sample downsamples the bundled ducky.pdf image once per resampling method.
package sample

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/vearutop/pdfresample"
)

// ScaleFactor is applied on both axes.
const ScaleFactor = 0.5

// ImageName is the resource name of the only image in ducky.pdf.
const ImageName = "Im0"

//go:embed ducky.pdf
var ducky []byte

// Input returns the bundled input document.
func Input() []byte {
	return append([]byte(nil), ducky...)
}

// OutputPath returns the output file name for method m.
func OutputPath(prefix string, m pdfresample.Method) string {
	return prefix + m.String() + ".pdf"
}

// Run writes OutputPath(prefix, m) for every method in pdfresample.Methods.
func Run(prefix string) error {
	for _, m := range pdfresample.Methods {
		if err := runMethod(prefix, m); err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
	}

	return nil
}

func runMethod(prefix string, m pdfresample.Method) error {
	doc, err := pdfresample.OpenReader(bytes.NewReader(ducky))
	if err != nil {
		return err
	}

	img, err := doc.PageImage(1, ImageName)
	if err != nil {
		return err
	}

	res, err := doc.ResampleImage(img, ScaleFactor, ScaleFactor, m)
	if err != nil {
		return err
	}

	if err := doc.ReplaceImage(1, ImageName, res); err != nil {
		return err
	}

	out := OutputPath(prefix, m)
	if err := doc.WriteFile(out); err != nil {
		return err
	}

	log.CLI.Printf("%s: %dx%d -> %dx%d\n", out, img.Width, img.Height, res.Width, res.Height)

	return nil
}
