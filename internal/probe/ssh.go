package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const defaultSSHTimeout = 20 * time.Second

// CommandRunner executes a command on a target host and returns its stdout.
// A *ConnectError means the host could not be reached or authenticated
// against; any other error means the command ran and failed.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ConnectError marks a failure to establish the transport (dial, handshake,
// auth). Probes map it to Indeterminate because it is the normal state of a
// host that is still booting.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("connect: %v", e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// SSHRunner runs commands over SSH with key auth. Host key verification is
// intentionally disabled: targets are ephemeral instances whose keys change
// on every provision.
type SSHRunner struct {
	Host    string
	Port    int
	User    string
	KeyPath string
	Timeout time.Duration
}

func (r *SSHRunner) Run(ctx context.Context, command string) (string, error) {
	key, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return "", fmt.Errorf("reading ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("parsing ssh key: %w", err)
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultSSHTimeout
	}
	config := &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	port := r.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(r.Host, fmt.Sprint(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", &ConnectError{Err: err}
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return "", &ConnectError{Err: err}
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", &ConnectError{Err: err}
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout

	// Honor cancellation while the command runs.
	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()
	select {
	case err = <-done:
	case <-ctx.Done():
		session.Close()
		return stdout.String(), &ConnectError{Err: ctx.Err()}
	}
	if err != nil {
		return stdout.String(), fmt.Errorf("remote command: %w", err)
	}
	return stdout.String(), nil
}

// RemoteCommandProbe runs a command on a remote host and matches its stdout
// against a pattern. Connection and auth failures are Indeterminate; a
// command that ran but missed the pattern is a Fail.
type RemoteCommandProbe struct {
	ProbeName      string
	Runner         CommandRunner
	Command        string
	SuccessPattern string
}

func (p *RemoteCommandProbe) Name() string { return p.ProbeName }

func (p *RemoteCommandProbe) Check(ctx context.Context) Result {
	start := time.Now()
	out, err := p.Runner.Run(ctx, p.Command)
	latency := time.Since(start)

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		return indeterminate(latency, connErr.Error())
	}
	if err != nil {
		return fail(latency, err.Error())
	}
	if p.SuccessPattern != "" && !strings.Contains(out, p.SuccessPattern) {
		return fail(latency, fmt.Sprintf("output missing %q", p.SuccessPattern))
	}
	return pass(latency, "command succeeded")
}
