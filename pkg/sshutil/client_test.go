package sshutil

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStringRedactsPassword(t *testing.T) {
	cred := Credential{Username: "monitor", Password: "hunter2"}
	s := cred.String()
	assert.Contains(t, s, "monitor")
	assert.NotContains(t, s, "hunter2")
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "timeout", FailureTimeout.String())
	assert.Equal(t, "auth failure", FailureAuth.String())
	assert.Equal(t, "network unreachable", FailureNetwork.String())
	assert.Equal(t, "unknown", FailureUnknown.String())
}

func TestKindOf(t *testing.T) {
	ce := &ConnectError{Host: "10.0.0.5", Kind: FailureAuth, Cause: errors.New("rejected")}
	assert.Equal(t, FailureAuth, KindOf(ce))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("probe: %w", ce)
	assert.Equal(t, FailureAuth, KindOf(wrapped))

	assert.Equal(t, FailureUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, FailureUnknown, KindOf(nil))
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return false }

func TestClassifyDialError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"net.Error timeout", fakeTimeoutError{}, FailureTimeout},
		{"timeout string", errors.New("dial tcp 10.0.0.5:22: i/o timeout"), FailureTimeout},
		{"refused", errors.New("dial tcp 10.0.0.5:22: connect: connection refused"), FailureNetwork},
		{"no route", errors.New("connect: no route to host"), FailureNetwork},
		{"unreachable", errors.New("connect: network is unreachable"), FailureNetwork},
		{"dns", errors.New("lookup winbox9: no such host"), FailureNetwork},
		{"other", errors.New("something odd"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDialError(tt.err))
		})
	}
}

func TestClassifyHandshakeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"auth rejected", errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]"), FailureAuth},
		{"no methods", errors.New("ssh: no supported methods remain"), FailureAuth},
		{"timeout", errors.New("ssh: handshake failed: i/o timeout"), FailureTimeout},
		{"reset", errors.New("read tcp: connection reset by peer"), FailureNetwork},
		{"eof", errors.New("ssh: handshake failed: EOF"), FailureNetwork},
		{"other", errors.New("weird"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyHandshakeError(tt.err))
		})
	}
}

func TestDialRefusedClassifiesNetwork(t *testing.T) {
	// Grab a port with nothing listening on it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = Dial(addr, Credential{Username: "monitor", Password: "pw"}, 2*time.Second)
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, KindOf(err))
}

func TestDialAddsDefaultPort(t *testing.T) {
	// Unroutable per RFC 5737; the dial must fail but the error should show
	// the default port was appended.
	_, err := Dial("192.0.2.1", Credential{Username: "monitor", Password: "pw"}, 1500*time.Millisecond)
	require.Error(t, err)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Cause.Error(), ":"+DefaultPort)
}
