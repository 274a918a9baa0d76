// Package probe runs remote diagnostic commands against fleet hosts, falling
// back across an ordered credential list and parsing the command output into
// typed observations.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/metrics"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/pkg/sshutil"
)

// Session is the slice of sshutil.Client the prober needs. Tests substitute
// scripted implementations through DialFunc.
type Session interface {
	Exec(ctx context.Context, cmd string) (stdout string, exitCode int, err error)
	Close() error
}

// DialFunc establishes an authenticated session to a host.
type DialFunc func(addr string, cred sshutil.Credential, timeout time.Duration) (Session, error)

func sshDial(addr string, cred sshutil.Credential, timeout time.Duration) (Session, error) {
	return sshutil.Dial(addr, cred, timeout)
}

// Prober probes a single host per call: connect with credential fallback,
// run the diagnostic command, parse the output.
type Prober struct {
	creds      []sshutil.Credential
	timeout    time.Duration
	extractCmd string
	clients    *metrics.ClientPattern
	dial       DialFunc
	log        logger.Logger
}

// New creates a Prober. creds is the ordered credential list tried per host;
// timeout bounds each session-establishment attempt; subnet and port define
// which netstat sessions count as active clients.
func New(creds []sshutil.Credential, timeout time.Duration, subnet string, port int, log logger.Logger) *Prober {
	return &Prober{
		creds:      creds,
		timeout:    timeout,
		extractCmd: BuildExtractCommand(subnet, port),
		clients:    metrics.NewClientPattern(subnet, port),
		dial:       sshDial,
		log:        log,
	}
}

// SetDialFunc replaces the session dialer. For tests.
func (p *Prober) SetDialFunc(dial DialFunc) {
	p.dial = dial
}

// HostBudget is the wall-clock allowance for one full host probe: one dial
// timeout per credential plus one for command execution.
func (p *Prober) HostBudget() time.Duration {
	return p.timeout * time.Duration(len(p.creds)+1)
}

// connect tries each credential strictly in list order and stops at the first
// success. No credential is retried within a cycle; bounding attempts at
// len(creds) per host per cycle avoids account-lockout storms.
func (p *Prober) connect(host string) (Session, error) {
	var lastErr error
	for _, cred := range p.creds {
		sess, err := p.dial(host, cred, p.timeout)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		p.log.Debug("[probe] %s: attempt as %s failed: %s", host, cred, sshutil.KindOf(err))
	}
	return nil, fmt.Errorf("all %d credentials exhausted for %s: %w", len(p.creds), host, lastErr)
}

// Check probes connectivity and C: drive capacity. An unreachable host is a
// normal result, not an error: Reachable=false with Err recording the cause.
// Disk stays nil when the query fails or its output doesn't parse.
func (p *Prober) Check(ctx context.Context, host string) CheckResult {
	sess, err := p.connect(host)
	if err != nil {
		return CheckResult{Reachable: false, Err: err}
	}
	defer sess.Close()

	out, exitCode, err := sess.Exec(ctx, checkCommand)
	if err != nil {
		// Connected but the query failed: the host is up, disk is unknown.
		return CheckResult{Reachable: true, Err: err}
	}
	if exitCode != 0 {
		p.log.Debug("[probe] %s: disk query exited %d, parsing output anyway", host, exitCode)
	}

	return CheckResult{Reachable: true, Disk: metrics.ParseDiskSpace(out)}
}

// Extract probes CPU, memory, active users, and active client addresses via
// the composite extract command. Pattern misses surface as nil values, never
// as errors; Err is only set when the host could not be probed at all.
func (p *Prober) Extract(ctx context.Context, host string) ExtractResult {
	sess, err := p.connect(host)
	if err != nil {
		return ExtractResult{Err: err}
	}
	defer sess.Close()

	out, exitCode, err := sess.Exec(ctx, p.extractCmd)
	if err != nil {
		return ExtractResult{Err: err}
	}
	if exitCode != 0 {
		// findstr exits 1 when no client sessions match; the rest of the
		// blob is still good.
		p.log.Debug("[probe] %s: extract command exited %d, parsing output anyway", host, exitCode)
	}

	res := ExtractResult{
		Users:     metrics.ParseActiveUsers(out),
		ClientIPs: p.clients.Parse(out),
	}
	if v, ok := metrics.ParseCPUUsage(out); ok {
		res.CPU = &v
	}
	if v, ok := metrics.ParseMemoryUsage(out); ok {
		res.Memory = &v
	}
	return res
}
