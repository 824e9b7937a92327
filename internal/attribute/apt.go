package attribute

import (
	"context"
	"fmt"
	"strings"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Apt is the expected-state record for Debian-family package management.
// Invariant: either Upgrade is true, or both State and Package are set.
type Apt struct {
	State   *PackageState `json:"state,omitempty" yaml:"state,omitempty"`
	Package string        `json:"package,omitempty" yaml:"package,omitempty"`
	Upgrade bool          `json:"upgrade,omitempty" yaml:"upgrade,omitempty"`
}

// AptBuilder fluently builds an Apt detail, validating on Build.
type AptBuilder struct {
	apt Apt
}

func NewAptBuilder() *AptBuilder { return &AptBuilder{} }

func (b *AptBuilder) WithPackageState(pkg string, state PackageState) *AptBuilder {
	b.apt.Package = pkg
	b.apt.State = &state
	return b
}

func (b *AptBuilder) WithUpgrade(upgrade bool) *AptBuilder {
	b.apt.Upgrade = upgrade
	return b
}

func (b *AptBuilder) Build() (Apt, error) {
	if err := validatePackageFields(b.apt.State, b.apt.Package, b.apt.Upgrade); err != nil {
		return Apt{}, err
	}
	return b.apt, nil
}

type aptInternalCall int

const (
	aptInstall aptInternalCall = iota
	aptRemove
	aptUpgrade
)

// AptApiCall is the executable counterpart of an Apt remediation.
type AptApiCall struct {
	call      aptInternalCall
	pkg       string
	privilege privilege.Privilege
}

func (c AptApiCall) Display() string {
	switch c.call {
	case aptInstall:
		return fmt.Sprintf("Install - %s", c.pkg)
	case aptRemove:
		return fmt.Sprintf("Remove - %s", c.pkg)
	default:
		return "Upgrade"
	}
}

func (c AptApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	switch c.call {
	case aptInstall:
		if _, err := h.RunCommand(ctx, "apt-get update", c.privilege); err != nil {
			return InternalApiCallOutcome{}, err
		}
		cmd := fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get install -y %s", c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "install "+c.pkg)
	case aptRemove:
		cmd := fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get remove --purge -y %s", c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "remove "+c.pkg)
	default:
		cmd := "apt-get update && DEBIAN_FRONTEND=noninteractive apt-get upgrade -y"
		return runAndClassify(ctx, h, cmd, c.privilege, "upgrade")
	}
}

func runAndClassify(ctx context.Context, h hosthandler.HostHandler, cmd string, priv privilege.Privilege, what string) (InternalApiCallOutcome, error) {
	res, err := h.RunCommand(ctx, cmd, priv)
	if err != nil {
		return InternalApiCallOutcome{}, err
	}
	if res.Success() {
		return InternalApiCallOutcome{Status: Success}, nil
	}
	return InternalApiCallOutcome{
		Status: Failure,
		Detail: fmt.Sprintf("failed to %s. RC: %d, STDOUT: %s, STDERR: %s", what, res.ReturnCode, res.Stdout, res.Stderr),
	}, nil
}

// Assess implements Detail.
func (a Apt) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	aptAvailable, err := h.IsCommandAvailable(ctx, "apt-get", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	dpkgAvailable, err := h.IsCommandAvailable(ctx, "dpkg", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if !aptAvailable || !dpkgAvailable {
		return ComplianceAssessment{}, hosterr.New(hosterr.KindFailedDryRunEvaluation, "APT not working on this host")
	}

	var remediations []Remediation

	if a.State != nil {
		installed, err := aptPackageInstalled(ctx, h, priv, a.Package)
		if err != nil {
			return ComplianceAssessment{}, err
		}

		switch *a.State {
		case PackagePresent:
			if installed {
				remediations = append(remediations, None(fmt.Sprintf("%s already present", a.Package)))
			} else {
				remediations = append(remediations, Concrete(AptApiCall{call: aptInstall, pkg: a.Package, privilege: priv}))
			}
		case PackageAbsent:
			if installed {
				remediations = append(remediations, Concrete(AptApiCall{call: aptRemove, pkg: a.Package, privilege: priv}))
			} else {
				remediations = append(remediations, None(fmt.Sprintf("%s already absent", a.Package)))
			}
		}
	}

	if a.Upgrade {
		remediations = append(remediations, Concrete(AptApiCall{call: aptUpgrade, privilege: priv}))
	}

	if !HasConcreteChange(remediations) {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment(remediations), nil
}

// aptPackageInstalled reports whether pkg is installed via dpkg -s: exit 0
// and stdout containing "Status: install".
func aptPackageInstalled(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, pkg string) (bool, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("dpkg -s %s", pkg), priv)
	if err != nil {
		return false, err
	}
	return res.Success() && strings.Contains(res.Stdout, "Status: install"), nil
}
