// Package managedhost binds a host handler to an endpoint and runs
// expected-state assessment and remediation against it.
package managedhost

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/attribute"
	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/state"
)

// ManagedHost pairs a connection endpoint with the handler used to reach it
// and a bag of host-scoped variables carried alongside the connection.
type ManagedHost struct {
	Endpoint string
	Handler  hosthandler.HostHandler
	Vars     map[string]string

	// MaxConcurrency caps how many attributes AssessComplianceInParallel
	// evaluates at once. Zero (the default) leaves it unbounded, spawning
	// one goroutine per attribute as before.
	MaxConcurrency int
}

func New(endpoint string, handler hosthandler.HostHandler, vars map[string]string) *ManagedHost {
	if vars == nil {
		vars = make(map[string]string)
	}
	return &ManagedHost{Endpoint: endpoint, Handler: handler, Vars: vars}
}

// WithMaxConcurrency sets the semaphore cap used by AssessComplianceInParallel
// and returns the same ManagedHost for chaining.
func (m *ManagedHost) WithMaxConcurrency(n int) *ManagedHost {
	m.MaxConcurrency = n
	return m
}

func (m *ManagedHost) Connect(ctx context.Context) error {
	return m.Handler.Connect(ctx, m.Endpoint)
}

func (m *ManagedHost) IsConnected() bool { return m.Handler.IsConnected() }

func (m *ManagedHost) Disconnect() error { return m.Handler.Disconnect() }

// ComplianceStatus is the terminal state of a full-host assessment.
type ComplianceStatus int

const (
	AlreadyCompliant ComplianceStatus = iota
	NonCompliant
)

// HostComplianceAssessment is the outcome of assessing every attribute in
// an ExpectedState, in declaration order, against this host.
type HostComplianceAssessment struct {
	Status       ComplianceStatus
	Remediations []attribute.Remediation
}

// AssessCompliance assesses every attribute sequentially, in declaration
// order, short-circuiting on the first error encountered.
func (m *ManagedHost) AssessCompliance(ctx context.Context, es state.ExpectedState) (HostComplianceAssessment, error) {
	if !m.IsConnected() {
		return HostComplianceAssessment{}, hosterr.ErrNotConnectedToHost
	}

	compliant := true
	var remediations []attribute.Remediation

	for _, attr := range es.Attributes {
		assessment, err := attr.Assess(ctx, m.Handler)
		if err != nil {
			return HostComplianceAssessment{}, err
		}
		if !assessment.Compliant {
			compliant = false
			remediations = append(remediations, assessment.Remediations...)
		}
	}

	if compliant {
		return HostComplianceAssessment{Status: AlreadyCompliant}, nil
	}
	return HostComplianceAssessment{Status: NonCompliant, Remediations: remediations}, nil
}

type indexedAssessResult struct {
	index      int
	assessment attribute.ComplianceAssessment
	err        error
}

// AssessComplianceInParallel assesses every attribute concurrently, one
// goroutine per attribute against a freshly cloned and separately connected
// handler, and restores
// declaration order in the returned remediation list before returning. The
// first error observed (in declaration order, not arrival order) is
// returned; a per-goroutine failure does not cancel the others.
func (m *ManagedHost) AssessComplianceInParallel(ctx context.Context, es state.ExpectedState) (HostComplianceAssessment, error) {
	if !m.IsConnected() {
		return HostComplianceAssessment{}, hosterr.ErrNotConnectedToHost
	}

	n := len(es.Attributes)
	results := make(chan indexedAssessResult, n)

	var sem chan struct{}
	if m.MaxConcurrency > 0 {
		sem = make(chan struct{}, m.MaxConcurrency)
	}

	for i, attr := range es.Attributes {
		go func(i int, attr attribute.Attribute) {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			handler := m.Handler.Clone()
			if err := handler.Connect(ctx, m.Endpoint); err != nil {
				results <- indexedAssessResult{index: i, err: err}
				return
			}
			defer handler.Disconnect()
			assessment, err := attr.Assess(ctx, handler)
			results <- indexedAssessResult{index: i, assessment: assessment, err: err}
		}(i, attr)
	}

	ordered := make([]indexedAssessResult, n)
	for i := 0; i < n; i++ {
		r := <-results
		ordered[r.index] = r
	}

	compliant := true
	var remediations []attribute.Remediation
	for _, r := range ordered {
		if r.err != nil {
			return HostComplianceAssessment{}, r.err
		}
		if !r.assessment.Compliant {
			compliant = false
			remediations = append(remediations, r.assessment.Remediations...)
		}
	}

	if compliant {
		return HostComplianceAssessment{Status: AlreadyCompliant}, nil
	}
	return HostComplianceAssessment{Status: NonCompliant, Remediations: remediations}, nil
}

// HostReachStatus is the terminal state of a full-host remediation pass.
type HostReachStatus int

const (
	HostAlreadyCompliant HostReachStatus = iota
	HostReachedCompliance
	HostFailedReachedCompliance
)

// HostReachResult is the outcome of driving every attribute in an
// ExpectedState to compliance.
type HostReachResult struct {
	Status  HostReachStatus
	Actions []attribute.AppliedRemediation
}

// ReachCompliance drives every attribute to compliance sequentially, in
// declaration order, stopping at the first attribute whose remediation
// fails to reach compliance. Earlier successful attributes' actions remain
// in the returned result.
func (m *ManagedHost) ReachCompliance(ctx context.Context, es state.ExpectedState) (HostReachResult, error) {
	if !m.IsConnected() {
		return HostReachResult{}, hosterr.ErrNotConnectedToHost
	}

	var actions []attribute.AppliedRemediation

	for _, attr := range es.Attributes {
		result, err := attr.ReachCompliance(ctx, m.Handler)
		if err != nil {
			return HostReachResult{}, fmt.Errorf("reach compliance: %w", err)
		}

		actions = append(actions, result.Actions...)

		if result.Status == attribute.FailedReachedCompliance {
			return HostReachResult{Status: HostFailedReachedCompliance, Actions: actions}, nil
		}
	}

	if len(actions) == 0 {
		return HostReachResult{Status: HostAlreadyCompliant}, nil
	}
	return HostReachResult{Status: HostReachedCompliance, Actions: actions}, nil
}
