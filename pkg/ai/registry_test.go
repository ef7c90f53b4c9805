package ai

import (
	"context"
	"reflect"
	"testing"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

type stubGenerator struct {
	name string
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(_ context.Context, _, _ string, _ domain.VerbosityLevel) (Result, error) {
	return Result{Text: s.name}, nil
}

func TestRegistryOrderAndDefault(t *testing.T) {
	reg, err := NewRegistry("gemini", &stubGenerator{name: "openai"}, &stubGenerator{name: "gemini"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"openai", "gemini"}) {
		t.Fatalf("unexpected names: %v", got)
	}
	if reg.DefaultName() != "gemini" {
		t.Fatalf("unexpected default: %q", reg.DefaultName())
	}
	if _, ok := reg.Get("OPENAI"); !ok {
		t.Fatalf("expected case-insensitive get")
	}
}

func TestRegistryDefaultFallsBackToFirst(t *testing.T) {
	reg, err := NewRegistry("missing", &stubGenerator{name: "openai"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if reg.DefaultName() != "openai" {
		t.Fatalf("expected fallback default, got %q", reg.DefaultName())
	}
}

func TestRegistryEmpty(t *testing.T) {
	reg, err := NewRegistry("openai")
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if !reg.Empty() {
		t.Fatalf("expected empty registry")
	}
	if reg.DefaultName() != "" {
		t.Fatalf("expected no default, got %q", reg.DefaultName())
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry("", &stubGenerator{name: "openai"}, &stubGenerator{name: "openai"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
