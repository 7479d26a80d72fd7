package pdfresample

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// Document is a PDF document opened for image access and rewriting.
type Document struct {
	ctx *model.Context
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return conf
}

// Open reads and validates the PDF file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// OpenReader reads and validates a PDF document from rs.
func OpenReader(rs io.ReadSeeker) (*Document, error) {
	ctx, err := api.ReadContext(rs, newConfiguration())
	if err != nil {
		return nil, errors.Wrap(err, "read PDF")
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, errors.Wrap(err, "validate PDF")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.Wrap(err, "count pages")
	}

	return &Document{ctx: ctx}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

func (d *Document) pageDict(pageNr int) (types.Dict, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoSuchPage, pageNr, d.ctx.PageCount)
	}
	pd, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, errors.Wrapf(err, "page %d", pageNr)
	}
	if pd == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchPage, pageNr)
	}

	return pd, nil
}

// pageResources returns the resource dictionary in effect for a page,
// following /Parent links when the page does not carry its own.
func (d *Document) pageResources(pageNr int) (types.Dict, error) {
	node, err := d.pageDict(pageNr)
	if err != nil {
		return nil, err
	}

	for depth := 0; node != nil; depth++ {
		if depth > maxPageTreeDepth {
			return nil, errors.Errorf("page %d: page tree too deep", pageNr)
		}
		if obj, ok := node.Find("Resources"); ok {
			res, err := d.ctx.DereferenceDict(obj)
			if err != nil {
				return nil, errors.Wrapf(err, "page %d: resources", pageNr)
			}
			return res, nil
		}
		parent, ok := node.Find("Parent")
		if !ok {
			break
		}
		if node, err = d.ctx.DereferenceDict(parent); err != nil {
			return nil, errors.Wrapf(err, "page %d: parent", pageNr)
		}
	}

	return nil, nil
}

// resourceDict returns the named sub-dictionary of res, e.g. /XObject.
func (d *Document) resourceDict(res types.Dict, key string) (types.Dict, error) {
	if res == nil {
		return nil, nil
	}
	obj, ok := res.Find(key)
	if !ok {
		return nil, nil
	}
	sub, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "resources /%s", key)
	}

	return sub, nil
}

// PageImages returns the image XObjects bound in the resources of a page,
// sorted by resource name. Form XObjects are skipped.
func (d *Document) PageImages(pageNr int) ([]*Image, error) {
	res, err := d.pageResources(pageNr)
	if err != nil {
		return nil, err
	}
	xobjects, err := d.resourceDict(res, "XObject")
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNr, err)
	}

	names := make([]string, 0, len(xobjects))
	for name := range xobjects {
		names = append(names, name)
	}
	sort.Strings(names)

	images := make([]*Image, 0, len(names))
	for _, name := range names {
		img, err := d.loadImage(name, xobjects[name], res)
		if err != nil {
			return nil, fmt.Errorf("page %d: image %s: %w", pageNr, name, err)
		}
		if img != nil {
			images = append(images, img)
		}
	}

	return images, nil
}

// PageImage returns the image bound to name on a page.
func (d *Document) PageImage(pageNr int, name string) (*Image, error) {
	images, err := d.PageImages(pageNr)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if img.Name == name {
			return img, nil
		}
	}

	return nil, fmt.Errorf("%w: %s on page %d", ErrNoSuchImage, name, pageNr)
}

// ReplaceImage binds name in the XObject resources of a page to img.
// Other pages sharing the same resource dictionary see the change as well.
func (d *Document) ReplaceImage(pageNr int, name string, img *Image) error {
	if img == nil || img.ref == nil || img.doc != d {
		return errors.New("replacement image does not belong to this document")
	}

	res, err := d.pageResources(pageNr)
	if err != nil {
		return err
	}
	xobjects, err := d.resourceDict(res, "XObject")
	if err != nil {
		return fmt.Errorf("page %d: %w", pageNr, err)
	}
	if _, ok := xobjects[name]; !ok {
		return fmt.Errorf("%w: %s on page %d", ErrNoSuchImage, name, pageNr)
	}

	xobjects[name] = *img.ref
	img.Name = name

	return nil
}

// Write serializes the document to w.
func (d *Document) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return errors.Wrap(err, "write PDF")
	}

	return nil
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}

	if err := d.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}
