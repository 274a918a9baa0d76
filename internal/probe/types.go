package probe

import (
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/metrics"
)

// CheckResult is the outcome of a connectivity + disk probe for one host.
// Disk is only ever set when Reachable is true.
type CheckResult struct {
	Reachable bool
	Disk      *metrics.DiskSpace

	// Err records why the host was unreachable or why the disk query
	// failed. Informational; an unreachable host is a normal observation,
	// not a batch failure.
	Err error
}

// ExtractResult is the outcome of a resource-usage probe for one host.
// Nil CPU/Memory mean "unknown": the probe ran but the pattern was absent.
type ExtractResult struct {
	CPU       *float64
	Memory    *float64
	Users     []string
	ClientIPs []string

	// Err is set when the host could not be probed at all; the other
	// fields are zero in that case and nothing should be persisted.
	Err error
}
