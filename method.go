package pdfresample

import (
	"fmt"
	"strings"
)

// Method selects the resampling algorithm.
type Method int

const (
	// MethodInvalid is the zero value and is rejected by all resampling calls.
	MethodInvalid Method = iota
	// MethodNearestNeighbor picks the closest source sample.
	MethodNearestNeighbor
	// MethodBicubic is cubic convolution sampling (a = -0.5).
	MethodBicubic
	// MethodLinear is triangle filter sampling.
	MethodLinear
)

// methodNames is indexed by Method.
var methodNames = [...]string{"**invalid**", "NearestNeighbor", "Bicubic", "Linear"}

// Methods lists the valid methods in table order.
var Methods = []Method{MethodNearestNeighbor, MethodBicubic, MethodLinear}

func (m Method) String() string {
	if !m.Valid() {
		return methodNames[MethodInvalid]
	}
	return methodNames[m]
}

// Valid reports whether m names one of the resampling algorithms.
func (m Method) Valid() bool {
	return m > MethodInvalid && int(m) < len(methodNames)
}

// ParseMethod resolves a method by its table name (case-insensitive) or a
// common alias.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearestneighbor", "nearest":
		return MethodNearestNeighbor, nil
	case "bicubic", "cubic":
		return MethodBicubic, nil
	case "linear", "bilinear":
		return MethodLinear, nil
	}
	return MethodInvalid, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}
