package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGeneratorProducesDistinctV7(t *testing.T) {
	t.Parallel()

	gen := NewUUIDGenerator()
	a, err := gen.NewID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := gen.NewID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if a.Version() != 7 {
		t.Fatalf("expected version 7, got %d", a.Version())
	}
}

func TestFixed(t *testing.T) {
	t.Parallel()

	want := uuid.MustParse("0190c8a4-3c1e-7b3a-9f00-000000000001")
	got, err := Fixed(want).NewID()
	if err != nil || got != want {
		t.Fatalf("unexpected fixed id: %s %v", got, err)
	}
}
