// Package hosthandler provides the uniform command-execution interface
// every Attribute assesses and remediates through, with a local-subprocess
// implementation and an SSHv2 implementation.
package hosthandler

import (
	"context"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/privilege"
)

// HostHandler is the capability set every Attribute assesses/remediates
// through. Implementations: Local (subprocess shell) and SSH (golang.org/x/crypto/ssh).
type HostHandler interface {
	// Connect establishes whatever session the implementation needs.
	// Local is a no-op; SSH opens TCP + performs the handshake + auth.
	// A second Connect on an already-authenticated handler is idempotent.
	Connect(ctx context.Context, endpoint string) error

	// IsConnected reports whether the handler currently has a usable
	// session. Local always returns true.
	IsConnected() bool

	// Disconnect tears down the session. Local is a no-op.
	Disconnect() error

	// IsCommandAvailable reports whether cmd resolves on the PATH under
	// priv, via "command -v <cmd>".
	IsCommandAvailable(ctx context.Context, cmd string, priv privilege.Privilege) (bool, error)

	// RunCommand composes cmd with priv per privilege.Compose and executes
	// it, returning the command's return code/stdout/stderr.
	RunCommand(ctx context.Context, cmd string, priv privilege.Privilege) (command.Result, error)

	// Clone returns an independent handle to the same logical target,
	// suitable for handing to a parallel-assessment worker. The clone shares
	// no session with the original; the worker connects it afresh.
	Clone() HostHandler
}
