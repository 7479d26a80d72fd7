package pdfresample

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

const (
	csDeviceGray = "DeviceGray"
	csDeviceRGB  = "DeviceRGB"
	csDeviceCMYK = "DeviceCMYK"
	csICCBased   = "ICCBased"
	csIndexed    = "Indexed"
	csPattern    = "Pattern"
)

// deviceComponents maps device and CIE-based family names to their component count.
var deviceComponents = map[string]int{
	csDeviceGray: 1,
	"G":          1,
	"CalGray":    1,
	csDeviceRGB:  3,
	"RGB":        3,
	"CalRGB":     3,
	"Lab":        3,
	csDeviceCMYK: 4,
	"CMYK":       4,
	"CalCMYK":    4,
}

// canonicalFamily expands inline image abbreviations.
func canonicalFamily(name string) string {
	switch name {
	case "G":
		return csDeviceGray
	case "RGB":
		return csDeviceRGB
	case "CMYK":
		return csDeviceCMYK
	case "I":
		return csIndexed
	}
	return name
}

// resolveColorSpace resolves a /ColorSpace value. Names that are not color space
// families are looked up in the /ColorSpace entry of res.
func (d *Document) resolveColorSpace(obj types.Object, res types.Dict, depth int) (*colorSpace, error) {
	if depth > maxColorSpaceDepth {
		return nil, errors.New("color space nesting too deep")
	}

	o, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, errors.Wrap(err, "dereference color space")
	}

	switch v := o.(type) {
	case types.Name:
		return d.resolveColorSpaceName(string(v), res, depth)
	case types.Array:
		return d.resolveColorSpaceArray(v, res, depth)
	case nil:
		return nil, errors.New("missing color space")
	default:
		return nil, errors.Errorf("unexpected color space object %T", o)
	}
}

func (d *Document) resolveColorSpaceName(name string, res types.Dict, depth int) (*colorSpace, error) {
	if n, ok := deviceComponents[name]; ok {
		return &colorSpace{Family: canonicalFamily(name), Components: n}, nil
	}
	if name == csPattern {
		return nil, fmt.Errorf("%w: %s color space", ErrUnsupportedImage, csPattern)
	}

	if res != nil {
		if csRes, err := d.ctx.DereferenceDict(res["ColorSpace"]); err == nil && csRes != nil {
			if def, ok := csRes.Find(name); ok {
				return d.resolveColorSpace(def, res, depth+1)
			}
		}
	}

	return nil, errors.Errorf("unknown color space %s", name)
}

func (d *Document) resolveColorSpaceArray(arr types.Array, res types.Dict, depth int) (*colorSpace, error) {
	if len(arr) == 0 {
		return nil, errors.New("empty color space array")
	}

	first, err := d.ctx.Dereference(arr[0])
	if err != nil {
		return nil, errors.Wrap(err, "dereference color space family")
	}
	fam, ok := first.(types.Name)
	if !ok {
		return nil, errors.Errorf("color space family is %T, want name", first)
	}
	family := canonicalFamily(string(fam))

	switch family {
	case csICCBased:
		if len(arr) < 2 {
			return nil, errors.New("ICCBased color space without profile")
		}
		sd, _, err := d.ctx.DereferenceStreamDict(arr[1])
		if err != nil {
			return nil, errors.Wrap(err, "dereference ICC profile")
		}
		if sd == nil {
			return nil, errors.New("missing ICC profile stream")
		}
		n := sd.IntEntry("N")
		if n == nil || (*n != 1 && *n != 3 && *n != 4) {
			return nil, errors.New("ICC profile with invalid /N")
		}
		return &colorSpace{Family: csICCBased, Components: *n}, nil

	case csIndexed:
		return d.resolveIndexed(arr, res, depth)

	case "Separation":
		return &colorSpace{Family: family, Components: 1}, nil

	case "DeviceN":
		if len(arr) < 2 {
			return nil, errors.New("DeviceN color space without colorants")
		}
		names, err := d.ctx.DereferenceArray(arr[1])
		if err != nil {
			return nil, errors.Wrap(err, "dereference DeviceN colorants")
		}
		if len(names) == 0 {
			return nil, errors.New("DeviceN color space without colorants")
		}
		return &colorSpace{Family: family, Components: len(names)}, nil

	case csPattern:
		return nil, fmt.Errorf("%w: %s color space", ErrUnsupportedImage, csPattern)
	}

	if n, ok := deviceComponents[family]; ok {
		return &colorSpace{Family: family, Components: n}, nil
	}

	return nil, errors.Errorf("unknown color space family %s", family)
}

func (d *Document) resolveIndexed(arr types.Array, res types.Dict, depth int) (*colorSpace, error) {
	if len(arr) < 4 {
		return nil, errors.New("malformed Indexed color space")
	}

	base, err := d.resolveColorSpace(arr[1], res, depth+1)
	if err != nil {
		return nil, errors.Wrap(err, "Indexed base")
	}
	if base.Family == csIndexed {
		return nil, errors.New("Indexed base must not be Indexed")
	}

	hv, err := d.ctx.Dereference(arr[2])
	if err != nil {
		return nil, errors.Wrap(err, "dereference hival")
	}
	hival, ok := hv.(types.Integer)
	if !ok || hival < 0 || hival > 255 {
		return nil, errors.Errorf("invalid Indexed hival %v", hv)
	}

	lookup, err := d.lookupBytes(arr[3])
	if err != nil {
		return nil, err
	}
	if need := (int(hival) + 1) * base.Components; len(lookup) < need {
		return nil, errors.Errorf("short Indexed lookup table: have %d bytes, need %d", len(lookup), need)
	}

	return &colorSpace{
		Family:     csIndexed,
		Components: 1,
		Base:       base,
		HiVal:      int(hival),
		Lookup:     lookup,
	}, nil
}

// lookupBytes returns the palette of an Indexed color space, stored as a
// string or a stream.
func (d *Document) lookupBytes(obj types.Object) ([]byte, error) {
	o, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, errors.Wrap(err, "dereference lookup")
	}

	switch v := o.(type) {
	case types.HexLiteral:
		return v.Bytes()
	case types.StringLiteral:
		return types.Unescape(v.Value())
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, errors.Wrap(err, "decode lookup stream")
		}
		return v.Content, nil
	}

	return nil, errors.Errorf("unexpected lookup table %T", o)
}
