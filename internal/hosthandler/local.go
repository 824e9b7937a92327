package hosthandler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/privilege"
)

// Local runs commands via a subprocess shell ("sh -c"), optionally wrapped
// in "su - U -c" to switch identity.
type Local struct {
	Identity privilege.Identity
}

// NewLocal returns a Local handler running as the current user.
func NewLocal() *Local {
	return &Local{Identity: privilege.CurrentUser{}}
}

// NewLocalAs returns a Local handler that switches to identity via su
// before running the composed command.
func NewLocalAs(identity privilege.Identity) *Local {
	return &Local{Identity: identity}
}

func (l *Local) Connect(_ context.Context, _ string) error { return nil }

func (l *Local) IsConnected() bool { return true }

func (l *Local) Disconnect() error { return nil }

func (l *Local) Clone() HostHandler {
	return &Local{Identity: l.Identity}
}

func (l *Local) IsCommandAvailable(ctx context.Context, cmd string, priv privilege.Privilege) (bool, error) {
	res, err := l.RunCommand(ctx, fmt.Sprintf("command -v %s", cmd), priv)
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

func (l *Local) RunCommand(ctx context.Context, cmd string, priv privilege.Privilege) (command.Result, error) {
	final := privilege.Compose(cmd, priv, l.Identity)

	var shellCmd *exec.Cmd
	switch id := l.Identity.(type) {
	case privilege.PasswordlessUser:
		shellCmd = exec.CommandContext(ctx, "su", "-", id.Username, "-c", "sh", "-c", final)
	case privilege.UsernamePassword:
		wrapped := fmt.Sprintf("echo %q | su - %s -c %q", id.Credentials.Password, id.Credentials.Username, final)
		shellCmd = exec.CommandContext(ctx, "sh", "-c", wrapped)
	default:
		shellCmd = exec.CommandContext(ctx, "sh", "-c", final)
	}

	var stdout, stderr bytes.Buffer
	shellCmd.Stdout = &stdout
	shellCmd.Stderr = &stderr

	runErr := shellCmd.Run()
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return command.Result{}, hosterr.Wrap(hosterr.KindFailureToRunCommand, final, runErr)
		}
	}

	return command.Result{
		ReturnCode: shellCmd.ProcessState.ExitCode(),
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}, nil
}
