// Package sshutil establishes authenticated remote-shell sessions against
// fleet hosts and runs diagnostic commands over them.
package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Credential is one username/password pair for remote authentication.
type Credential struct {
	Username string
	Password string
}

// String redacts the password. Credentials end up in log lines; the password
// must never.
func (c Credential) String() string {
	return c.Username + ":***"
}

// FailureKind classifies why a remote session could not be established.
type FailureKind int

const (
	// FailureUnknown covers errors with no more specific classification.
	FailureUnknown FailureKind = iota
	// FailureTimeout means the host did not answer within the dial timeout.
	FailureTimeout
	// FailureAuth means the host answered but rejected the credential.
	FailureAuth
	// FailureNetwork means the host was unreachable at the network level.
	FailureNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureAuth:
		return "auth failure"
	case FailureNetwork:
		return "network unreachable"
	default:
		return "unknown"
	}
}

// ConnectError reports a failed session establishment with its classification.
type ConnectError struct {
	Host  string
	Kind  FailureKind
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %s: %v", e.Host, e.Kind, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// KindOf extracts the failure classification from an error chain.
// Returns FailureUnknown for nil or unclassified errors.
func KindOf(err error) FailureKind {
	var ce *ConnectError
	if stderrors.As(err, &ce) {
		return ce.Kind
	}
	return FailureUnknown
}

// Client wraps an SSH connection with the address it was dialed on.
type Client struct {
	*ssh.Client
	Address string // resolved host:port
}

// DefaultPort is used when a host address carries no explicit port.
const DefaultPort = "22"

// Dial establishes a remote session to addr using the given credential.
// addr is a hostname or IP, optionally with a :port suffix. The timeout
// bounds both the TCP dial and the SSH handshake.
//
// Fleet hosts are internal and reimaged often, so host keys are not pinned.
func Dial(addr string, cred Credential, timeout time.Duration) (*Client, error) {
	address := addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		address = net.JoinHostPort(addr, DefaultPort)
	}

	config := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cred.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // internal fleet, no pinned keys
		Timeout:         timeout,
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, &ConnectError{Host: addr, Kind: classifyDialError(err), Cause: err}
	}

	// The handshake can hang on half-dead hosts; bound it with the same
	// timeout as the dial.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return nil, &ConnectError{Host: addr, Kind: FailureUnknown, Cause: err}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, &ConnectError{Host: addr, Kind: classifyHandshakeError(err), Cause: err}
	}

	// Clear the handshake deadline so long-running commands are governed by
	// the caller's context instead.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, &ConnectError{Host: addr, Kind: FailureUnknown, Cause: err}
	}

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Address: address,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// classifyDialError maps TCP-level dial failures onto failure kinds.
func classifyDialError(err error) FailureKind {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "i/o timeout"), strings.Contains(errStr, "timeout"):
		return FailureTimeout
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "no such host"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

// classifyHandshakeError maps SSH handshake failures onto failure kinds.
func classifyHandshakeError(err error) FailureKind {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "unable to authenticate"),
		strings.Contains(errStr, "no supported methods"),
		strings.Contains(errStr, "password"):
		return FailureAuth
	case strings.Contains(errStr, "i/o timeout"), strings.Contains(errStr, "timeout"):
		return FailureTimeout
	case strings.Contains(errStr, "connection reset"), strings.Contains(errStr, "EOF"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}
