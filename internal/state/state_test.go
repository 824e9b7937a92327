package state

import (
	"testing"

	"github.com/hostguard/compliance/internal/attribute"
)

func TestBuilderPreservesDeclarationOrder(t *testing.T) {
	es := NewBuilder().
		With(attribute.Attribute{Detail: attribute.Debug{Message: "first"}}).
		With(attribute.Attribute{Detail: attribute.Debug{Message: "second"}}).
		With(attribute.Attribute{Detail: attribute.Debug{Message: "third"}}).
		Build()

	if len(es.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(es.Attributes))
	}
	for i, want := range []string{"first", "second", "third"} {
		d := es.Attributes[i].Detail.(attribute.Debug)
		if d.Message != want {
			t.Fatalf("attribute %d: expected %q, got %q", i, want, d.Message)
		}
	}
}

func TestBuilderBuildIsIndependentOfFurtherMutation(t *testing.T) {
	b := NewBuilder().With(attribute.Attribute{Detail: attribute.Debug{Message: "a"}})
	first := b.Build()
	b.With(attribute.Attribute{Detail: attribute.Debug{Message: "b"}})
	if len(first.Attributes) != 1 {
		t.Fatalf("expected earlier Build() result to stay at 1 attribute, got %d", len(first.Attributes))
	}
}
