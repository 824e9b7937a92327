package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Debug is a synthetic attribute used to exercise the engine itself: it
// reports a fixed compliance verdict and, when forced non-compliant, a
// remediation that simply echoes Message.
type Debug struct {
	ForceNonCompliant bool   `json:"force_non_compliant,omitempty" yaml:"force_non_compliant,omitempty"`
	Message           string `json:"message,omitempty" yaml:"message,omitempty"`
}

// DebugApiCall is the executable counterpart of a Debug remediation.
type DebugApiCall struct {
	message   string
	privilege privilege.Privilege
}

func (c DebugApiCall) Display() string {
	return fmt.Sprintf("Debug - %s", c.message)
}

func (c DebugApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	return runAndClassify(ctx, h, fmt.Sprintf("echo %s", shQuote(c.message)), c.privilege, "echo debug message")
}

// Assess implements Detail.
func (d Debug) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	if !d.ForceNonCompliant {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment([]Remediation{
		Concrete(DebugApiCall{message: d.Message, privilege: priv}),
	}), nil
}
