package attribute

import (
	"context"

	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Ping is a connectivity-only attribute: it is compliant whenever the host
// handler can run a trivial command. It never remediates — there is no
// command that can fix unreachability, so a failed probe surfaces as a
// non-compliant assessment with no concrete remediation.
type Ping struct{}

// Assess implements Detail.
func (Ping) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	res, err := h.RunCommand(ctx, "true", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if res.Success() {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment([]Remediation{
		None("host unreachable; no remediation available for connectivity"),
	}), nil
}
