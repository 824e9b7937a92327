package hosthandler

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/hostguard/compliance/internal/command"
	"github.com/hostguard/compliance/internal/complog"
	"github.com/hostguard/compliance/internal/hosterr"
	"github.com/hostguard/compliance/internal/privilege"
)

var sshLog = complog.Tag("ssh")

// SSHAuth selects how SSH authenticates to the remote user-auth layer.
type SSHAuth struct {
	Password       string // used if non-empty
	PrivateKeyPath string // used if Password is empty and this is set
	PrivateKeyPEM  []byte // used if the above are empty and this is set
	UseAgent       bool   // used if none of the above are set
}

// GoString implements fmt.GoStringer, redacting Password and PrivateKeyPEM.
func (a SSHAuth) GoString() string {
	return fmt.Sprintf("hosthandler.SSHAuth{Password:\"[REDACTED]\", PrivateKeyPath:%q, PrivateKeyPEM:\"[REDACTED]\", UseAgent:%t}", a.PrivateKeyPath, a.UseAgent)
}

// String implements fmt.Stringer with the same redaction as GoString.
func (a SSHAuth) String() string { return a.GoString() }

// SSH is a lazily-connecting SSHv2 HostHandler. Session lifecycle:
// Unauthenticated -> Connected (TCP) -> Authenticated -> Disconnected.
// Host key verification uses TOFU persisted to disk; RunCommand opens a
// fresh ssh.Session per call against one long-lived ssh.Client.
type SSH struct {
	Username string
	Auth     SSHAuth
	Identity privilege.Identity // used only by IsCommandAvailable/RunCommand callers who pass priv directly; Compose handles this

	// KnownHostsPath, if set, persists TOFU-accepted host keys across
	// process restarts.
	KnownHostsPath string

	mu         sync.Mutex
	client     *ssh.Client
	hostKeys   map[string]ssh.PublicKey
	loadedOnce bool
}

// NewSSH returns an SSH handler authenticating as username.
func NewSSH(username string, auth SSHAuth) *SSH {
	return &SSH{
		Username: username,
		Auth:     auth,
		hostKeys: make(map[string]ssh.PublicKey),
	}
}

func (s *SSH) Clone() HostHandler {
	return &SSH{
		Username:       s.Username,
		Auth:           s.Auth,
		Identity:       s.Identity,
		KnownHostsPath: s.KnownHostsPath,
		hostKeys:       make(map[string]ssh.PublicKey),
	}
}

// Connect parses endpoint ("address" or "address:port", default port 22),
// dials TCP, and performs the SSH handshake + user-auth. A second Connect
// on an already-authenticated handler is idempotent.
func (s *SSH) Connect(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}

	s.loadKnownHostsLocked()

	host, port := splitEndpoint(endpoint)
	addr := net.JoinHostPort(host, port)

	config, err := s.buildClientConfig()
	if err != nil {
		return hosterr.Wrap(hosterr.KindFailedInitialization, "build ssh client config", err)
	}

	dialer := net.Dialer{}
	deadline := 30 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		deadline = time.Until(dl)
	}
	dialCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return hosterr.Wrap(hosterr.KindFailedTcpBinding, addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return hosterr.Wrap(hosterr.KindFailedInitialization, "ssh handshake/auth "+addr, err)
	}

	s.client = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

func (s *SSH) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *SSH) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	if err != nil {
		return hosterr.Wrap(hosterr.KindAnyOtherError, "disconnect", err)
	}
	return nil
}

func (s *SSH) IsCommandAvailable(ctx context.Context, cmd string, priv privilege.Privilege) (bool, error) {
	res, err := s.RunCommand(ctx, fmt.Sprintf("command -v %s", cmd), priv)
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

// RunCommand allocates a fresh SSH channel, runs the privilege-composed
// command, reads stdout/stderr to EOF, waits for channel close, and reports
// the exit status even when the remote command itself failed.
func (s *SSH) RunCommand(_ context.Context, cmd string, priv privilege.Privilege) (command.Result, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return command.Result{}, hosterr.ErrNotConnectedToHost
	}

	session, err := client.NewSession()
	if err != nil {
		return command.Result{}, hosterr.Wrap(hosterr.KindFailureToEstablishConnection, "new session", err)
	}
	defer session.Close()

	final := privilege.Compose(cmd, priv, s.Identity)

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(final)
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*ssh.ExitError); ok {
			exitCode = exitErr.ExitStatus()
		} else {
			return command.Result{}, hosterr.Wrap(hosterr.KindFailureToRunCommand, final, runErr)
		}
	}

	return command.Result{
		ReturnCode: exitCode,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}, nil
}

func (s *SSH) buildClientConfig() (*ssh.ClientConfig, error) {
	username := s.Username
	if username == "" {
		username = "root"
	}

	var authMethods []ssh.AuthMethod
	switch {
	case s.Auth.Password != "":
		authMethods = []ssh.AuthMethod{ssh.Password(s.Auth.Password)}
	case s.Auth.PrivateKeyPath != "":
		keyBytes, err := os.ReadFile(s.Auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key %s: %w", s.Auth.PrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", s.Auth.PrivateKeyPath, err)
		}
		authMethods = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case len(s.Auth.PrivateKeyPEM) > 0:
		signer, err := ssh.ParsePrivateKey(s.Auth.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("parse in-memory private key: %w", err)
		}
		authMethods = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	case s.Auth.UseAgent:
		sock := os.Getenv("SSH_AUTH_SOCK")
		if sock == "" {
			return nil, fmt.Errorf("SSH_AUTH_SOCK not set, cannot use agent auth")
		}
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, fmt.Errorf("dial ssh-agent socket: %w", err)
		}
		agentClient := agent.NewClient(conn)
		authMethods = []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)}
	default:
		return nil, fmt.Errorf("no auth method configured for %s", username)
	}

	return &ssh.ClientConfig{
		User:            username,
		Auth:            authMethods,
		HostKeyCallback: s.tofuHostKeyCallback,
		Timeout:         30 * time.Second,
	}, nil
}

// tofuHostKeyCallback implements Trust On First Use: the first key seen for
// a host is accepted and persisted; a later mismatch is rejected. It runs
// during Connect's handshake, while Connect holds s.mu.
func (s *SSH) tofuHostKeyCallback(hostname string, _ net.Addr, key ssh.PublicKey) error {
	host, _, err := net.SplitHostPort(hostname)
	if err != nil {
		host = hostname
	}

	existing, known := s.hostKeys[host]
	if !known {
		s.hostKeys[host] = key
		s.saveKnownHostsLocked()
		sshLog.Printf("TOFU: accepted new host key for %s (%s)", host, key.Type())
		return nil
	}

	if string(existing.Marshal()) == string(key.Marshal()) {
		return nil
	}

	sshLog.Printf("SECURITY: host key CHANGED for %s (was %s, now %s)",
		host, ssh.FingerprintSHA256(existing), ssh.FingerprintSHA256(key))
	return fmt.Errorf("host key mismatch for %s: expected %s, got %s",
		host, ssh.FingerprintSHA256(existing), ssh.FingerprintSHA256(key))
}

func (s *SSH) loadKnownHostsLocked() {
	if s.loadedOnce || s.KnownHostsPath == "" {
		return
	}
	s.loadedOnce = true

	f, err := os.Open(s.KnownHostsPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			continue
		}
		keyBytes, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			sshLog.Printf("TOFU: bad base64 for %s, skipping", parts[0])
			continue
		}
		pubKey, err := ssh.ParsePublicKey(keyBytes)
		if err != nil {
			sshLog.Printf("TOFU: bad key for %s, skipping", parts[0])
			continue
		}
		s.hostKeys[parts[0]] = pubKey
	}
}

// saveKnownHostsLocked persists all known host keys. Caller holds s.mu.
func (s *SSH) saveKnownHostsLocked() {
	if s.KnownHostsPath == "" {
		return
	}

	var buf strings.Builder
	buf.WriteString("# SSH known hosts (TOFU — managed by the compliance engine)\n")
	for host, key := range s.hostKeys {
		buf.WriteString(fmt.Sprintf("%s %s %s\n", host, key.Type(), base64.StdEncoding.EncodeToString(key.Marshal())))
	}

	if err := os.WriteFile(s.KnownHostsPath, []byte(buf.String()), 0o600); err != nil {
		sshLog.Printf("TOFU: failed to persist known hosts: %v", err)
	}
}

// splitEndpoint splits a HostEndpoint ("address" or "address:port") on the
// first colon; a missing port defaults to 22.
func splitEndpoint(endpoint string) (host, port string) {
	idx := strings.IndexByte(endpoint, ':')
	if idx < 0 {
		return endpoint, "22"
	}
	return endpoint[:idx], endpoint[idx+1:]
}
