package attribute

import (
	"context"
	"testing"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

type scriptedCall struct {
	display string
	outcome InternalApiCallOutcome
	called  *bool
}

func (c scriptedCall) Display() string { return c.display }
func (c scriptedCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	if c.called != nil {
		*c.called = true
	}
	return c.outcome, nil
}

type scriptedDetail struct {
	assessment ComplianceAssessment
}

func (d scriptedDetail) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	return d.assessment, nil
}

func TestReachComplianceAlreadyCompliantSkipsRemediation(t *testing.T) {
	attr := Attribute{Detail: scriptedDetail{assessment: CompliantAssessment()}}
	result, err := attr.ReachCompliance(context.Background(), newFakeHandler())
	if err != nil {
		t.Fatalf("ReachCompliance: %v", err)
	}
	if result.Status != AlreadyCompliant {
		t.Fatalf("expected AlreadyCompliant, got %v", result.Status)
	}
	if len(result.Actions) != 0 {
		t.Fatalf("expected no actions, got %d", len(result.Actions))
	}
}

func TestReachComplianceShortCircuitsOnFirstFailure(t *testing.T) {
	var secondCalled bool
	assessment := NonCompliantAssessment([]Remediation{
		Concrete(scriptedCall{display: "first", outcome: InternalApiCallOutcome{Status: Failure, Detail: "boom"}}),
		Concrete(scriptedCall{display: "second", outcome: InternalApiCallOutcome{Status: Success}, called: &secondCalled}),
	})
	attr := Attribute{Detail: scriptedDetail{assessment: assessment}}

	result, err := attr.ReachCompliance(context.Background(), newFakeHandler())
	if err != nil {
		t.Fatalf("ReachCompliance: %v", err)
	}
	if result.Status != FailedReachedCompliance {
		t.Fatalf("expected FailedReachedCompliance, got %v", result.Status)
	}
	if len(result.Actions) != 1 {
		t.Fatalf("expected exactly 1 recorded action, got %d", len(result.Actions))
	}
	if secondCalled {
		t.Fatal("expected second remediation to never be called after first failure")
	}
}

func TestReachComplianceSkipsNoneRemediations(t *testing.T) {
	assessment := NonCompliantAssessment([]Remediation{
		None("already satisfied"),
		Concrete(scriptedCall{display: "apply", outcome: InternalApiCallOutcome{Status: Success}}),
	})
	attr := Attribute{Detail: scriptedDetail{assessment: assessment}}

	result, err := attr.ReachCompliance(context.Background(), newFakeHandler())
	if err != nil {
		t.Fatalf("ReachCompliance: %v", err)
	}
	if result.Status != ReachedCompliance {
		t.Fatalf("expected ReachedCompliance, got %v", result.Status)
	}
	if len(result.Actions) != 1 {
		t.Fatalf("expected only the concrete remediation recorded, got %d", len(result.Actions))
	}
}

func TestNonCompliantAssessmentPanicsOnEmptyRemediations(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty remediation list")
		}
	}()
	NonCompliantAssessment(nil)
}
