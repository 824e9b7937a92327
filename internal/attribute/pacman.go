package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Pacman is the expected-state record for Arch-family package management.
type Pacman struct {
	State   *PackageState `json:"state,omitempty" yaml:"state,omitempty"`
	Package string        `json:"package,omitempty" yaml:"package,omitempty"`
	Upgrade bool          `json:"upgrade,omitempty" yaml:"upgrade,omitempty"`
}

type PacmanBuilder struct {
	pac Pacman
}

func NewPacmanBuilder() *PacmanBuilder { return &PacmanBuilder{} }

func (b *PacmanBuilder) WithPackageState(pkg string, state PackageState) *PacmanBuilder {
	b.pac.Package = pkg
	b.pac.State = &state
	return b
}

func (b *PacmanBuilder) WithUpgrade(upgrade bool) *PacmanBuilder {
	b.pac.Upgrade = upgrade
	return b
}

func (b *PacmanBuilder) Build() (Pacman, error) {
	if err := validatePackageFields(b.pac.State, b.pac.Package, b.pac.Upgrade); err != nil {
		return Pacman{}, err
	}
	return b.pac, nil
}

type pacmanInternalCall int

const (
	pacmanInstall pacmanInternalCall = iota
	pacmanRemove
	pacmanUpgrade
)

// PacmanApiCall is the executable counterpart of a Pacman remediation.
type PacmanApiCall struct {
	call      pacmanInternalCall
	pkg       string
	privilege privilege.Privilege
}

func (c PacmanApiCall) Display() string {
	switch c.call {
	case pacmanInstall:
		return fmt.Sprintf("Install - %s", c.pkg)
	case pacmanRemove:
		return fmt.Sprintf("Remove - %s", c.pkg)
	default:
		return "Upgrade"
	}
}

func (c PacmanApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	switch c.call {
	case pacmanInstall:
		cmd := fmt.Sprintf("pacman -S --noconfirm %s", c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "install "+c.pkg)
	case pacmanRemove:
		cmd := fmt.Sprintf("pacman -R --noconfirm %s", c.pkg)
		return runAndClassify(ctx, h, cmd, c.privilege, "remove "+c.pkg)
	default:
		cmd := "pacman -Syu --noconfirm"
		return runAndClassify(ctx, h, cmd, c.privilege, "upgrade")
	}
}

// Assess implements Detail.
func (a Pacman) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	pacmanAvailable, err := h.IsCommandAvailable(ctx, "pacman", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if !pacmanAvailable {
		return ComplianceAssessment{}, hosterr.New(hosterr.KindFailedDryRunEvaluation, "pacman not working on this host")
	}

	var remediations []Remediation

	if a.State != nil {
		installed, err := pacmanPackageInstalled(ctx, h, priv, a.Package)
		if err != nil {
			return ComplianceAssessment{}, err
		}

		switch *a.State {
		case PackagePresent:
			if installed {
				remediations = append(remediations, None(fmt.Sprintf("%s already present", a.Package)))
			} else {
				remediations = append(remediations, Concrete(PacmanApiCall{call: pacmanInstall, pkg: a.Package, privilege: priv}))
			}
		case PackageAbsent:
			if installed {
				remediations = append(remediations, Concrete(PacmanApiCall{call: pacmanRemove, pkg: a.Package, privilege: priv}))
			} else {
				remediations = append(remediations, None(fmt.Sprintf("%s already absent", a.Package)))
			}
		}
	}

	if a.Upgrade {
		remediations = append(remediations, Concrete(PacmanApiCall{call: pacmanUpgrade, privilege: priv}))
	}

	if !HasConcreteChange(remediations) {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment(remediations), nil
}

// pacmanPackageInstalled reports whether pkg is installed via
// "LC_ALL=en_US.UTF-8 pacman -Q -i <pkg>": installed iff exit 0.
func pacmanPackageInstalled(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, pkg string) (bool, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("LC_ALL=en_US.UTF-8 pacman -Q -i %s", pkg), priv)
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}
