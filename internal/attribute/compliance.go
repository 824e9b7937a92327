// Package attribute implements the declarative catalog of expected-state
// descriptors (apt, yum/dnf, pacman, service, lineinfile, command, ping,
// debug) and the Assess/ReachCompliance protocol every kind satisfies.
package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// CallStatus is the outcome of a single ApiCall invocation.
type CallStatus int

const (
	Success CallStatus = iota
	Failure
	AllowedFailure
)

func (s CallStatus) String() string {
	switch s {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case AllowedFailure:
		return "AllowedFailure"
	default:
		return "Unknown"
	}
}

// InternalApiCallOutcome carries the result of one ApiCall.Call.
type InternalApiCallOutcome struct {
	Status CallStatus
	Detail string
}

// ApiCall is the executable counterpart of a Remediation: it owns the
// exact shell command to run and the privilege under which to run it.
type ApiCall interface {
	Display() string
	Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error)
}

// Remediation is either an already-satisfied sub-goal retained for
// reporting (None) or a concrete ApiCall. Constructing a Remediation with
// neither a reason nor a call is a programmer error in this package, never
// surfaced to callers.
type Remediation struct {
	reason string
	call   ApiCall
}

// None builds a Remediation reporting an already-satisfied sub-goal.
func None(reason string) Remediation { return Remediation{reason: reason} }

// Concrete builds a Remediation carrying an executable ApiCall.
func Concrete(call ApiCall) Remediation { return Remediation{call: call} }

// IsNone reports whether this remediation is a no-op placeholder.
func (r Remediation) IsNone() bool { return r.call == nil }

// Reason returns the human-readable note for a None remediation, or the
// call's Display() text otherwise.
func (r Remediation) Reason() string {
	if r.IsNone() {
		return r.reason
	}
	return r.call.Display()
}

// Call returns the underlying ApiCall, or nil for a None remediation.
func (r Remediation) Call() ApiCall { return r.call }

// ComplianceAssessment is the outcome of Assess: either every sub-goal is
// already satisfied, or NonCompliant carries one Remediation per sub-goal
// (including None entries for sub-goals that were already satisfied).
type ComplianceAssessment struct {
	Compliant    bool
	Remediations []Remediation
}

// CompliantAssessment reports full compliance.
func CompliantAssessment() ComplianceAssessment {
	return ComplianceAssessment{Compliant: true}
}

// NonCompliantAssessment builds a non-compliant assessment. An empty
// remediation list is a programmer error; callers in this package never
// construct one (every kind emits at least one Remediation per sub-goal).
func NonCompliantAssessment(remediations []Remediation) ComplianceAssessment {
	if len(remediations) == 0 {
		panic("attribute: NonCompliantAssessment called with no remediations")
	}
	return ComplianceAssessment{Compliant: false, Remediations: remediations}
}

// HasConcreteChange reports whether any remediation in the set is a real
// ApiCall rather than a None placeholder — used by each kind's Assess to
// decide between returning Compliant and NonCompliant.
func HasConcreteChange(remediations []Remediation) bool {
	for _, r := range remediations {
		if !r.IsNone() {
			return true
		}
	}
	return false
}

// Detail is the per-kind declarative state: it knows how to assess itself
// against a live host under a given privilege.
type Detail interface {
	Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error)
}

// Attribute pairs a Detail with the privilege under which it is assessed
// and remediated.
type Attribute struct {
	Privilege privilege.Privilege
	Detail    Detail
}

// AppliedRemediation records one concrete remediation and the outcome of
// invoking its ApiCall. None placeholders are never recorded.
type AppliedRemediation struct {
	Remediation Remediation
	Outcome     InternalApiCallOutcome
}

// ReachStatus is the terminal status of one Attribute's reach_compliance.
type ReachStatus int

const (
	AlreadyCompliant ReachStatus = iota
	ReachedCompliance
	FailedReachedCompliance
)

// ReachResult is the outcome of Attribute.ReachCompliance.
type ReachResult struct {
	Status  ReachStatus
	Actions []AppliedRemediation
}

// Assess evaluates the attribute against the live host. It never invokes a
// remediation's Call — assessment is read-only.
func (a Attribute) Assess(ctx context.Context, h hosthandler.HostHandler) (ComplianceAssessment, error) {
	return a.Detail.Assess(ctx, h, a.Privilege)
}

// ReachCompliance runs Assess; if already compliant it records that with no
// remediation attempted. Otherwise it invokes each concrete remediation's
// Call in declaration order, stopping at the first Failure — prior
// successes and the failing call are retained in Actions.
func (a Attribute) ReachCompliance(ctx context.Context, h hosthandler.HostHandler) (ReachResult, error) {
	assessment, err := a.Assess(ctx, h)
	if err != nil {
		return ReachResult{}, err
	}

	if assessment.Compliant {
		return ReachResult{Status: AlreadyCompliant}, nil
	}

	var actions []AppliedRemediation
	for _, remediation := range assessment.Remediations {
		if remediation.IsNone() {
			continue
		}

		outcome, err := remediation.Call().Call(ctx, h)
		if err != nil {
			return ReachResult{}, fmt.Errorf("apply remediation %q: %w", remediation.Reason(), err)
		}

		actions = append(actions, AppliedRemediation{Remediation: remediation, Outcome: outcome})

		if outcome.Status == Failure {
			return ReachResult{Status: FailedReachedCompliance, Actions: actions}, nil
		}
	}

	return ReachResult{Status: ReachedCompliance, Actions: actions}, nil
}
