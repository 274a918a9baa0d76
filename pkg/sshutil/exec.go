package sshutil

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns its standard output.
// A non-zero remote exit is a soft failure: the exit code is returned and
// err is nil, because Windows diagnostic one-liners routinely report a
// non-zero status while still printing usable output. Exit code is -1 if
// the command could not be executed at all.
//
// Cancelling the context abandons the session; the remote command is not
// forcibly killed.
func (c *Client) Exec(ctx context.Context, cmd string) (stdout string, exitCode int, err error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return "", -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create remote session",
			"Connection may have been closed. The next cycle will reconnect.")
	}
	defer session.Close()

	var stdoutBuf bytes.Buffer
	session.Stdout = &stdoutBuf

	type result struct {
		err error
	}
	done := make(chan result, 1)

	go func() {
		done <- result{err: session.Run(cmd)}
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return "", -1, errors.WrapWithCode(ctx.Err(), errors.ErrExec,
			fmt.Sprintf("Command timed out: %s", truncateCmd(cmd)),
			"The host may be overloaded; it will be retried next cycle.")
	case r := <-done:
		if r.err != nil {
			if exitErr, ok := r.err.(*ssh.ExitError); ok {
				// Command ran, just had non-zero exit. Output is still usable.
				return stdoutBuf.String(), exitErr.ExitStatus(), nil
			}
			return "", -1, errors.WrapWithCode(r.err, errors.ErrExec,
				fmt.Sprintf("Failed to execute command: %s", truncateCmd(cmd)),
				"Check the diagnostic tools exist on the remote host.")
		}
		return stdoutBuf.String(), 0, nil
	}
}

// truncateCmd keeps composite command strings from flooding error messages.
func truncateCmd(cmd string) string {
	const max = 80
	if len(cmd) <= max {
		return cmd
	}
	return cmd[:max] + "..."
}
