package attribute

import (
	"context"
	"testing"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/privilege"
)

func TestServiceIsActiveExitCodes(t *testing.T) {
	tests := []struct {
		name           string
		returnCode     int
		existsExpected bool
		wantActive     bool
		wantErr        bool
	}{
		{"active", 0, true, true, false},
		{"inactive", 3, true, false, false},
		{"no such unit, existence expected", 4, true, false, true},
		{"no such unit, absence expected", 4, false, false, false},
		{"error", 1, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHandler().withResponse("systemctl is-active nginx", command.Result{ReturnCode: tt.returnCode})
			active, err := serviceIsActive(context.Background(), h, privilege.None, "nginx", tt.existsExpected)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("serviceIsActive: %v", err)
			}
			if active != tt.wantActive {
				t.Fatalf("expected active=%v, got %v", tt.wantActive, active)
			}
		})
	}
}

func TestServiceAssessStartsInactiveService(t *testing.T) {
	h := newFakeHandler().
		withResponse("systemctl is-active nginx", command.Result{ReturnCode: 3})

	active := true
	svc := Service{Name: "nginx", Active: &active}

	assessment, err := svc.Assess(context.Background(), h, privilege.None)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if assessment.Compliant {
		t.Fatal("expected non-compliant")
	}
	call := assessment.Remediations[0].Call().(ServiceApiCall)
	if call.Display() != "Start - nginx" {
		t.Fatalf("unexpected display: %s", call.Display())
	}
}

func TestServiceAssessBothActiveAndEnabled(t *testing.T) {
	h := newFakeHandler().
		withResponse("systemctl is-active nginx", command.Result{ReturnCode: 0}).
		withResponse("systemctl is-enabled nginx", command.Result{ReturnCode: 1})

	active, enabled := true, true
	svc := Service{Name: "nginx", Active: &active, Enabled: &enabled}

	assessment, err := svc.Assess(context.Background(), h, privilege.None)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if assessment.Compliant {
		t.Fatal("expected non-compliant due to disabled unit")
	}
	if len(assessment.Remediations) != 2 {
		t.Fatalf("expected 2 remediations (active + enabled), got %d", len(assessment.Remediations))
	}
	if !assessment.Remediations[0].IsNone() {
		t.Fatal("expected active sub-goal to already be satisfied")
	}
	call := assessment.Remediations[1].Call().(ServiceApiCall)
	if call.Display() != "Enable - nginx" {
		t.Fatalf("unexpected display: %s", call.Display())
	}
}

func TestServiceBuilderRequiresNameAndGoal(t *testing.T) {
	if _, err := NewServiceBuilder("").WithActive(true).Build(); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := NewServiceBuilder("nginx").Build(); err == nil {
		t.Fatal("expected error when neither active, enabled, nor exists is set")
	}
}

func TestServiceBuilderRejectsExistsFalseWithActiveOrEnabledTrue(t *testing.T) {
	if _, err := NewServiceBuilder("nginx").WithExists(false).WithActive(true).Build(); err == nil {
		t.Fatal("expected error: exists=false with active=true")
	}
	if _, err := NewServiceBuilder("nginx").WithExists(false).WithEnabled(true).Build(); err == nil {
		t.Fatal("expected error: exists=false with enabled=true")
	}
	if _, err := NewServiceBuilder("nginx").WithExists(false).WithActive(false).Build(); err != nil {
		t.Fatalf("expected exists=false with active=false to be valid, got %v", err)
	}
}

func TestServiceAssessAbsentUnitWithExistsFalseIsCompliant(t *testing.T) {
	h := newFakeHandler().
		withResponse("systemctl is-active nginx", command.Result{ReturnCode: 4})

	active, exists := false, false
	svc := Service{Name: "nginx", Active: &active, Exists: &exists}

	assessment, err := svc.Assess(context.Background(), h, privilege.None)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !assessment.Compliant {
		t.Fatalf("expected compliant, got %+v", assessment)
	}
}

func TestServiceAssessNoSuchUnitIsFatalByDefault(t *testing.T) {
	h := newFakeHandler().
		withResponse("systemctl is-active nginx", command.Result{ReturnCode: 4})

	active := true
	svc := Service{Name: "nginx", Active: &active}

	_, err := svc.Assess(context.Background(), h, privilege.None)
	if err == nil {
		t.Fatal("expected error: no such unit without exists=false")
	}
}

func TestServiceAssessExistenceOnly(t *testing.T) {
	exists := true
	svc := Service{Name: "nginx", Exists: &exists}

	h := newFakeHandler().withResponse("systemctl is-active nginx", command.Result{ReturnCode: 0})
	assessment, err := svc.Assess(context.Background(), h, privilege.None)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !assessment.Compliant {
		t.Fatalf("expected compliant: unit exists as expected, got %+v", assessment)
	}

	h2 := newFakeHandler().withResponse("systemctl is-active nginx", command.Result{ReturnCode: 4})
	assessment2, err := svc.Assess(context.Background(), h2, privilege.None)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if assessment2.Compliant {
		t.Fatal("expected non-compliant: unit missing but expected to exist")
	}
}
