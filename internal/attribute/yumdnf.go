package attribute

import (
	"context"
	"fmt"
	"strings"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// YumDnfManager names which RPM front-end drives a YumDnf attribute.
type YumDnfManager string

const (
	ManagerYum YumDnfManager = "yum"
	ManagerDnf YumDnfManager = "dnf"
)

// YumDnf is the expected-state record for RPM-family package management.
type YumDnf struct {
	Manager YumDnfManager `json:"manager" yaml:"manager"`
	State   *PackageState `json:"state,omitempty" yaml:"state,omitempty"`
	Package string        `json:"package,omitempty" yaml:"package,omitempty"`
	Upgrade bool          `json:"upgrade,omitempty" yaml:"upgrade,omitempty"`
}

type YumDnfBuilder struct {
	yd YumDnf
}

func NewYumDnfBuilder(manager YumDnfManager) *YumDnfBuilder {
	return &YumDnfBuilder{yd: YumDnf{Manager: manager}}
}

func (b *YumDnfBuilder) WithPackageState(pkg string, state PackageState) *YumDnfBuilder {
	b.yd.Package = pkg
	b.yd.State = &state
	return b
}

func (b *YumDnfBuilder) WithUpgrade(upgrade bool) *YumDnfBuilder {
	b.yd.Upgrade = upgrade
	return b
}

func (b *YumDnfBuilder) Build() (YumDnf, error) {
	if b.yd.Manager != ManagerYum && b.yd.Manager != ManagerDnf {
		return YumDnf{}, hosterr.New(hosterr.KindIncoherentExpectedState, "yum/dnf attribute has no manager set")
	}
	if err := validatePackageFields(b.yd.State, b.yd.Package, b.yd.Upgrade); err != nil {
		return YumDnf{}, err
	}
	return b.yd, nil
}

type yumDnfInternalCall int

const (
	yumDnfInstall yumDnfInternalCall = iota
	yumDnfRemove
	yumDnfUpgrade
)

// YumDnfApiCall is the executable counterpart of a YumDnf remediation.
type YumDnfApiCall struct {
	manager   YumDnfManager
	call      yumDnfInternalCall
	pkg       string
	privilege privilege.Privilege
}

func (c YumDnfApiCall) Display() string {
	switch c.call {
	case yumDnfInstall:
		return fmt.Sprintf("Install - %s", c.pkg)
	case yumDnfRemove:
		return fmt.Sprintf("Remove - %s", c.pkg)
	default:
		return "Upgrade"
	}
}

func (c YumDnfApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	mgr := string(c.manager)
	switch c.call {
	case yumDnfInstall:
		cmd := fmt.Sprintf("%s install -y %s", mgr, c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "install "+c.pkg)
	case yumDnfRemove:
		cmd := fmt.Sprintf("%s remove -y %s", mgr, c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "remove "+c.pkg)
	default:
		cmd := fmt.Sprintf("%s upgrade -y", mgr)
		return runAndClassify(ctx, h, cmd, c.privilege, "upgrade")
	}
}

// Assess implements Detail.
func (a YumDnf) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	mgrAvailable, err := h.IsCommandAvailable(ctx, string(a.Manager), priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if !mgrAvailable {
		return ComplianceAssessment{}, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("%s not working on this host", a.Manager))
	}

	var remediations []Remediation

	if a.State != nil {
		installed, err := yumDnfPackageInstalled(ctx, h, priv, string(a.Manager), a.Package)
		if err != nil {
			return ComplianceAssessment{}, err
		}

		switch *a.State {
		case PackagePresent:
			if installed {
				remediations = append(remediations, None(fmt.Sprintf("%s already present", a.Package)))
			} else {
				remediations = append(remediations, Concrete(YumDnfApiCall{manager: a.Manager, call: yumDnfInstall, pkg: a.Package, privilege: priv}))
			}
		case PackageAbsent:
			if installed {
				remediations = append(remediations, Concrete(YumDnfApiCall{manager: a.Manager, call: yumDnfRemove, pkg: a.Package, privilege: priv}))
			} else {
				remediations = append(remediations, None(fmt.Sprintf("%s already absent", a.Package)))
			}
		}
	}

	if a.Upgrade {
		remediations = append(remediations, Concrete(YumDnfApiCall{manager: a.Manager, call: yumDnfUpgrade, privilege: priv}))
	}

	if !HasConcreteChange(remediations) {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment(remediations), nil
}

// yumDnfPackageInstalled reports whether pkg is installed via
// "<manager> list installed <pkg>": installed iff exit 0 and the package
// name appears in stdout.
func yumDnfPackageInstalled(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, manager, pkg string) (bool, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("%s list installed %s", manager, pkg), priv)
	if err != nil {
		return false, err
	}
	return res.Success() && strings.Contains(res.Stdout, pkg), nil
}
