// Package state holds the ordered collection of attributes a host is
// expected to satisfy.
package state

import "github.com/hostguard/compliance/internal/attribute"

// ExpectedState is an ordered list of attributes. Order matters: both
// assessment display order and sequential remediation order follow it.
type ExpectedState struct {
	Attributes []attribute.Attribute `json:"attributes" yaml:"attributes"`
}

// New returns an empty expected state.
func New() ExpectedState {
	return ExpectedState{}
}

// Builder fluently accumulates attributes into an ExpectedState.
type Builder struct {
	attributes []attribute.Attribute
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) With(attr attribute.Attribute) *Builder {
	b.attributes = append(b.attributes, attr)
	return b
}

func (b *Builder) Build() ExpectedState {
	out := make([]attribute.Attribute, len(b.attributes))
	copy(out, b.attributes)
	return ExpectedState{Attributes: out}
}
