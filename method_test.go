package pdfresample

import (
	"errors"
	"testing"
)

func TestMethodString(t *testing.T) {
	for m, want := range map[Method]string{
		MethodInvalid:         "**invalid**",
		MethodNearestNeighbor: "NearestNeighbor",
		MethodBicubic:         "Bicubic",
		MethodLinear:          "Linear",
		Method(42):            "**invalid**",
		Method(-1):            "**invalid**",
	} {
		if got := m.String(); got != want {
			t.Fatalf("Method(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}

func TestMethodsOrder(t *testing.T) {
	if len(Methods) != 3 {
		t.Fatalf("unexpected methods: %v", Methods)
	}
	for i, m := range Methods {
		if !m.Valid() {
			t.Fatalf("method %d is not valid", i)
		}
		if m.String() != methodNames[i+1] {
			t.Fatalf("method %d is %s, want %s", i, m, methodNames[i+1])
		}
	}
}

func TestParseMethod(t *testing.T) {
	for s, want := range map[string]Method{
		"NearestNeighbor": MethodNearestNeighbor,
		"nearest":         MethodNearestNeighbor,
		"BICUBIC":         MethodBicubic,
		"cubic":           MethodBicubic,
		" Linear ":        MethodLinear,
		"bilinear":        MethodLinear,
	} {
		got, err := ParseMethod(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", s, got, want)
		}
	}

	for _, s := range []string{"", "**invalid**", "lanczos"} {
		if _, err := ParseMethod(s); !errors.Is(err, ErrInvalidMethod) {
			t.Fatalf("parse %q: expected ErrInvalidMethod, got %v", s, err)
		}
	}
}
