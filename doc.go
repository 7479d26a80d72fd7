// Package pdfresample downsamples raster images embedded in PDF documents.
//
// Documents are read and written with pdfcpu. Image samples are normalised to
// 8 bits per component and resampled with a separable filter (linear, bicubic)
// or by nearest-neighbor selection. Soft masks follow their parent image, so a
// resampled image and its alpha channel always share the same size.
package pdfresample
