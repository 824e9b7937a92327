package managedhost

import (
	"context"
	"testing"

	"github.com/hostguard/compliance/internal/attribute"
	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/state"
)

func TestAssessComplianceAggregatesAcrossAttributes(t *testing.T) {
	h := newFakeHandler()
	mh := New("host-1", h, nil)

	es := state.NewBuilder().
		With(attribute.Attribute{Detail: attribute.Debug{}}).
		With(attribute.Attribute{Detail: attribute.Debug{ForceNonCompliant: true, Message: "fix me"}}).
		Build()

	result, err := mh.AssessCompliance(context.Background(), es)
	if err != nil {
		t.Fatalf("AssessCompliance: %v", err)
	}
	if result.Status != NonCompliant {
		t.Fatalf("expected NonCompliant, got %v", result.Status)
	}
	if len(result.Remediations) != 1 {
		t.Fatalf("expected 1 remediation, got %d", len(result.Remediations))
	}
}

func TestAssessComplianceRequiresConnection(t *testing.T) {
	h := newFakeHandler()
	h.connected = false
	mh := New("host-1", h, nil)

	_, err := mh.AssessCompliance(context.Background(), state.New())
	if err != hosterr.ErrNotConnectedToHost {
		t.Fatalf("expected ErrNotConnectedToHost, got %v", err)
	}
}

func TestAssessComplianceInParallelRestoresDeclarationOrder(t *testing.T) {
	h := newFakeHandler()
	mh := New("host-1", h, nil)

	var builder *state.Builder = state.NewBuilder()
	for i := 0; i < 20; i++ {
		builder = builder.With(attribute.Attribute{
			Detail: attribute.Debug{ForceNonCompliant: true, Message: string(rune('a' + i))},
		})
	}
	es := builder.Build()

	result, err := mh.AssessComplianceInParallel(context.Background(), es)
	if err != nil {
		t.Fatalf("AssessComplianceInParallel: %v", err)
	}
	if result.Status != NonCompliant {
		t.Fatalf("expected NonCompliant, got %v", result.Status)
	}
	if len(result.Remediations) != 20 {
		t.Fatalf("expected 20 remediations, got %d", len(result.Remediations))
	}
	for i, r := range result.Remediations {
		call := r.Call().(attribute.DebugApiCall)
		if call.Display() != "Debug - "+string(rune('a'+i)) {
			t.Fatalf("attribute %d out of order: %s", i, call.Display())
		}
	}
}

func TestAssessComplianceInParallelWithMaxConcurrencyKeepsOrder(t *testing.T) {
	h := newFakeHandler()
	mh := New("host-1", h, nil).WithMaxConcurrency(3)

	var builder *state.Builder = state.NewBuilder()
	for i := 0; i < 20; i++ {
		builder = builder.With(attribute.Attribute{
			Detail: attribute.Debug{ForceNonCompliant: true, Message: string(rune('a' + i))},
		})
	}
	es := builder.Build()

	result, err := mh.AssessComplianceInParallel(context.Background(), es)
	if err != nil {
		t.Fatalf("AssessComplianceInParallel: %v", err)
	}
	if len(result.Remediations) != 20 {
		t.Fatalf("expected 20 remediations, got %d", len(result.Remediations))
	}
	for i, r := range result.Remediations {
		call := r.Call().(attribute.DebugApiCall)
		if call.Display() != "Debug - "+string(rune('a'+i)) {
			t.Fatalf("attribute %d out of order: %s", i, call.Display())
		}
	}
}

func TestReachComplianceStopsAtFirstFailingAttribute(t *testing.T) {
	h := newFakeHandler().
		withResponse("false", command.Result{ReturnCode: 1}).
		withResponse("exit 9", command.Result{ReturnCode: 9})

	mh := New("host-1", h, nil)

	failingCmd, err := attribute.NewCommandBuilder("false").WithFix("exit 9").Build()
	if err != nil {
		t.Fatalf("build command attribute: %v", err)
	}

	es := state.NewBuilder().
		With(attribute.Attribute{Detail: failingCmd}).
		With(attribute.Attribute{Detail: attribute.Debug{ForceNonCompliant: true, Message: "never reached"}}).
		Build()

	result, err := mh.ReachCompliance(context.Background(), es)
	if err != nil {
		t.Fatalf("ReachCompliance: %v", err)
	}
	if result.Status != HostFailedReachedCompliance {
		t.Fatalf("expected HostFailedReachedCompliance, got %v", result.Status)
	}
	if len(result.Actions) != 1 {
		t.Fatalf("expected exactly 1 action recorded, got %d", len(result.Actions))
	}
}

func TestReachComplianceAllAlreadyCompliant(t *testing.T) {
	h := newFakeHandler()
	mh := New("host-1", h, nil)

	es := state.NewBuilder().
		With(attribute.Attribute{Detail: attribute.Debug{}}).
		With(attribute.Attribute{Detail: attribute.Debug{}}).
		Build()

	result, err := mh.ReachCompliance(context.Background(), es)
	if err != nil {
		t.Fatalf("ReachCompliance: %v", err)
	}
	if result.Status != HostAlreadyCompliant {
		t.Fatalf("expected HostAlreadyCompliant, got %v", result.Status)
	}
}
