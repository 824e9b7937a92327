// Package privilege names an execution identity and composes it with a raw
// command to produce the exact string dispatched to a managed host.
package privilege

import "fmt"

// Privilege selects the escalation mechanism applied to a raw command.
type Privilege string

const (
	// None runs the command as the connected user, no escalation.
	None Privilege = "none"
	// WithSudo prefixes the command with sudo.
	WithSudo Privilege = "sudo"
	// WithSudoRs prefixes the command with sudo-rs.
	WithSudoRs Privilege = "sudo-rs"
)

// Credentials names a username/password pair for running a command as
// another user. GoString and String redact Password so a Credentials value
// is never printed in the clear by %#v/%+v — including inside a log.Printf
// call — while the field itself stays intact for composing the actual command.
type Credentials struct {
	Username string
	Password string
}

// GoString implements fmt.GoStringer.
func (c Credentials) GoString() string {
	return fmt.Sprintf("privilege.Credentials{Username:%q, Password:\"[REDACTED]\"}", c.Username)
}

// String implements fmt.Stringer with the same redaction as GoString.
func (c Credentials) String() string { return c.GoString() }

// Identity names who a command runs as.
type Identity interface {
	isIdentity()
}

// CurrentUser runs the command as whatever user the handler is already
// connected as.
type CurrentUser struct{}

func (CurrentUser) isIdentity() {}

// PasswordlessUser runs the command as Username, assuming passwordless
// sudo/sudo-rs is configured for that user.
type PasswordlessUser struct {
	Username string
}

func (PasswordlessUser) isIdentity() {}

// UsernamePassword runs the command as Credentials.Username, piping
// Credentials.Password to sudo/sudo-rs's -S flag.
type UsernamePassword struct {
	Credentials Credentials
}

func (UsernamePassword) isIdentity() {}

// Compose produces the exact command string dispatched to the host,
// following the table:
//
//	None,       current user        -> "<cmd> 2>&1"
//	WithSudo,   current user        -> "sudo <cmd> 2>&1"
//	WithSudoRs, current user        -> "sudo-rs <cmd> 2>&1"
//	None/WithSudo, passwordless U   -> "sudo -u U <cmd> 2>&1"
//	WithSudoRs,    passwordless U   -> "sudo-rs -u U <cmd> 2>&1"
//	* with password P for user U    -> "echo P | sudo[-rs] -S -u U <cmd> 2>&1"
func Compose(cmd string, priv Privilege, identity Identity) string {
	switch id := identity.(type) {
	case CurrentUser, nil:
		switch priv {
		case WithSudo:
			return fmt.Sprintf("sudo %s 2>&1", cmd)
		case WithSudoRs:
			return fmt.Sprintf("sudo-rs %s 2>&1", cmd)
		default:
			return fmt.Sprintf("%s 2>&1", cmd)
		}
	case PasswordlessUser:
		if priv == WithSudoRs {
			return fmt.Sprintf("sudo-rs -u %s %s 2>&1", id.Username, cmd)
		}
		return fmt.Sprintf("sudo -u %s %s 2>&1", id.Username, cmd)
	case UsernamePassword:
		bin := "sudo"
		if priv == WithSudoRs {
			bin = "sudo-rs"
		}
		return fmt.Sprintf("echo %s | %s -S -u %s %s 2>&1", id.Credentials.Password, bin, id.Credentials.Username, cmd)
	default:
		return fmt.Sprintf("%s 2>&1", cmd)
	}
}
