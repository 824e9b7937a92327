package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Service is the expected-state record for a systemd unit. Active and
// Enabled are independent knobs; either, both, or neither may be set, but
// at least one of Active, Enabled, or Exists must be for the attribute to
// mean anything. Exists being explicitly false means the unit is not
// expected to exist at all; it is invalid alongside an Active or Enabled
// goal of true.
type Service struct {
	Name    string `json:"name" yaml:"name"`
	Active  *bool  `json:"active,omitempty" yaml:"active,omitempty"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Exists  *bool  `json:"exists,omitempty" yaml:"exists,omitempty"`
}

type ServiceBuilder struct {
	svc Service
}

func NewServiceBuilder(name string) *ServiceBuilder {
	return &ServiceBuilder{svc: Service{Name: name}}
}

func (b *ServiceBuilder) WithActive(active bool) *ServiceBuilder {
	b.svc.Active = &active
	return b
}

func (b *ServiceBuilder) WithEnabled(enabled bool) *ServiceBuilder {
	b.svc.Enabled = &enabled
	return b
}

func (b *ServiceBuilder) WithExists(exists bool) *ServiceBuilder {
	b.svc.Exists = &exists
	return b
}

func (b *ServiceBuilder) Build() (Service, error) {
	if b.svc.Name == "" {
		return Service{}, hosterr.New(hosterr.KindIncoherentExpectedState, "service attribute has no name set")
	}
	if b.svc.Active == nil && b.svc.Enabled == nil && b.svc.Exists == nil {
		return Service{}, hosterr.New(hosterr.KindIncoherentExpectedState, "service attribute has neither active, enabled, nor exists set")
	}
	if b.svc.Exists != nil && !*b.svc.Exists {
		if b.svc.Active != nil && *b.svc.Active {
			return Service{}, hosterr.New(hosterr.KindIncoherentExpectedState, "service attribute sets exists=false but active=true")
		}
		if b.svc.Enabled != nil && *b.svc.Enabled {
			return Service{}, hosterr.New(hosterr.KindIncoherentExpectedState, "service attribute sets exists=false but enabled=true")
		}
	}
	return b.svc, nil
}

type serviceInternalCall int

const (
	serviceStart serviceInternalCall = iota
	serviceStop
	serviceEnable
	serviceDisable
)

// ServiceApiCall is the executable counterpart of a Service remediation.
type ServiceApiCall struct {
	call      serviceInternalCall
	name      string
	privilege privilege.Privilege
}

func (c ServiceApiCall) Display() string {
	switch c.call {
	case serviceStart:
		return fmt.Sprintf("Start - %s", c.name)
	case serviceStop:
		return fmt.Sprintf("Stop - %s", c.name)
	case serviceEnable:
		return fmt.Sprintf("Enable - %s", c.name)
	default:
		return fmt.Sprintf("Disable - %s", c.name)
	}
}

func (c ServiceApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	var cmd, what string
	switch c.call {
	case serviceStart:
		cmd, what = fmt.Sprintf("systemctl start %s", c.name), "start "+c.name
	case serviceStop:
		cmd, what = fmt.Sprintf("systemctl stop %s", c.name), "stop "+c.name
	case serviceEnable:
		cmd, what = fmt.Sprintf("systemctl enable %s", c.name), "enable "+c.name
	default:
		cmd, what = fmt.Sprintf("systemctl disable %s", c.name), "disable "+c.name
	}
	return runAndClassify(ctx, h, cmd, c.privilege, what)
}

// Assess implements Detail.
func (a Service) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	systemctlAvailable, err := h.IsCommandAvailable(ctx, "systemctl", priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if !systemctlAvailable {
		return ComplianceAssessment{}, hosterr.New(hosterr.KindFailedDryRunEvaluation, "systemctl not working on this host")
	}

	// existsExpected governs whether exit code 4 ("no such unit") from
	// is-active/is-enabled is a fatal evaluation failure or simply confirms
	// an explicitly expected absence.
	existsExpected := a.Exists == nil || *a.Exists

	if a.Active == nil && a.Enabled == nil && a.Exists != nil {
		return a.assessExistenceOnly(ctx, h, priv)
	}

	var remediations []Remediation

	if a.Active != nil {
		active, err := serviceIsActive(ctx, h, priv, a.Name, existsExpected)
		if err != nil {
			return ComplianceAssessment{}, err
		}
		switch {
		case *a.Active && active:
			remediations = append(remediations, None(fmt.Sprintf("%s already active", a.Name)))
		case *a.Active && !active:
			remediations = append(remediations, Concrete(ServiceApiCall{call: serviceStart, name: a.Name, privilege: priv}))
		case !*a.Active && !active:
			remediations = append(remediations, None(fmt.Sprintf("%s already inactive", a.Name)))
		default:
			remediations = append(remediations, Concrete(ServiceApiCall{call: serviceStop, name: a.Name, privilege: priv}))
		}
	}

	if a.Enabled != nil {
		enabled, err := serviceIsEnabled(ctx, h, priv, a.Name, existsExpected)
		if err != nil {
			return ComplianceAssessment{}, err
		}
		switch {
		case *a.Enabled && enabled:
			remediations = append(remediations, None(fmt.Sprintf("%s already enabled", a.Name)))
		case *a.Enabled && !enabled:
			remediations = append(remediations, Concrete(ServiceApiCall{call: serviceEnable, name: a.Name, privilege: priv}))
		case !*a.Enabled && !enabled:
			remediations = append(remediations, None(fmt.Sprintf("%s already disabled", a.Name)))
		default:
			remediations = append(remediations, Concrete(ServiceApiCall{call: serviceDisable, name: a.Name, privilege: priv}))
		}
	}

	if !HasConcreteChange(remediations) {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment(remediations), nil
}

// assessExistenceOnly handles a Service attribute whose only goal is Exists
// (no Active/Enabled sub-goal). There is no remediation to create or delete
// a systemd unit, so a mismatch is reported via a None remediation forcing
// NonCompliant, mirroring Ping's "no remediation available" pattern.
func (a Service) assessExistenceOnly(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("systemctl is-active %s", a.Name), priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	unitExists := res.ReturnCode != 4

	if unitExists == *a.Exists {
		return CompliantAssessment(), nil
	}
	if *a.Exists {
		return NonCompliantAssessment([]Remediation{None(fmt.Sprintf("unit %s does not exist; no remediation available to create a systemd unit", a.Name))}), nil
	}
	return NonCompliantAssessment([]Remediation{None(fmt.Sprintf("unit %s exists but is expected absent; no remediation available to remove a unit", a.Name))}), nil
}

// serviceIsActive runs "systemctl is-active <name>" and classifies its exit
// code: 0 active, 3 inactive, 4 no-such-unit — fatal unless existsExpected
// is false, in which case it is treated as inactive — any other code is a
// failed evaluation.
func serviceIsActive(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, name string, existsExpected bool) (bool, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("systemctl is-active %s", name), priv)
	if err != nil {
		return false, err
	}
	switch res.ReturnCode {
	case 0:
		return true, nil
	case 3:
		return false, nil
	case 4:
		if !existsExpected {
			return false, nil
		}
		return false, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("systemctl is-active %s: no such unit", name))
	default:
		return false, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("systemctl is-active %s: unexpected exit code %d", name, res.ReturnCode))
	}
}

// serviceIsEnabled runs "systemctl is-enabled <name>" and classifies its
// exit code: 0 enabled, 1 disabled, 4 no-such-unit — fatal unless
// existsExpected is false, in which case it is treated as disabled — any
// other code is a failed evaluation.
func serviceIsEnabled(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege, name string, existsExpected bool) (bool, error) {
	res, err := h.RunCommand(ctx, fmt.Sprintf("systemctl is-enabled %s", name), priv)
	if err != nil {
		return false, err
	}
	switch res.ReturnCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	case 4:
		if !existsExpected {
			return false, nil
		}
		return false, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("systemctl is-enabled %s: no such unit", name))
	default:
		return false, hosterr.New(hosterr.KindFailedDryRunEvaluation, fmt.Sprintf("systemctl is-enabled %s: unexpected exit code %d", name, res.ReturnCode))
	}
}
