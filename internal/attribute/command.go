package attribute

import (
	"context"
	"fmt"

	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/hosthandler"
	"github.com/hostguard/compliance/internal/privilege"
)

// Command is the expected-state record for an arbitrary probe/fix pair: the
// host is compliant when Probe exits zero; Fix is run to remediate when it
// does not.
type Command struct {
	Probe string `json:"probe" yaml:"probe"`
	Fix   string `json:"fix" yaml:"fix"`
}

type CommandBuilder struct {
	cmd Command
}

func NewCommandBuilder(probe string) *CommandBuilder {
	return &CommandBuilder{cmd: Command{Probe: probe}}
}

func (b *CommandBuilder) WithFix(fix string) *CommandBuilder {
	b.cmd.Fix = fix
	return b
}

func (b *CommandBuilder) Build() (Command, error) {
	if b.cmd.Probe == "" {
		return Command{}, hosterr.New(hosterr.KindIncoherentExpectedState, "command attribute has no probe set")
	}
	if b.cmd.Fix == "" {
		return Command{}, hosterr.New(hosterr.KindIncoherentExpectedState, "command attribute has no fix set")
	}
	return b.cmd, nil
}

// CommandApiCall is the executable counterpart of a Command remediation: it
// runs Fix verbatim.
type CommandApiCall struct {
	fix       string
	privilege privilege.Privilege
}

func (c CommandApiCall) Display() string {
	return fmt.Sprintf("Run - %s", c.fix)
}

func (c CommandApiCall) Call(ctx context.Context, h hosthandler.HostHandler) (InternalApiCallOutcome, error) {
	return runAndClassify(ctx, h, c.fix, c.privilege, "run "+c.fix)
}

// Assess implements Detail. Compliance is exit-code-only: Probe's stdout and
// stderr are not consulted.
func (a Command) Assess(ctx context.Context, h hosthandler.HostHandler, priv privilege.Privilege) (ComplianceAssessment, error) {
	res, err := h.RunCommand(ctx, a.Probe, priv)
	if err != nil {
		return ComplianceAssessment{}, err
	}
	if res.Success() {
		return CompliantAssessment(), nil
	}
	return NonCompliantAssessment([]Remediation{
		Concrete(CommandApiCall{fix: a.Fix, privilege: priv}),
	}), nil
}
