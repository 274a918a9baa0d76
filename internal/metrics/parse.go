// Package metrics extracts typed values from the semi-structured text that
// Windows diagnostic tools print. Every parser treats "pattern not found" as
// a normal outcome: the tools' output varies by OS version and locale, and a
// miss means "unknown", never an error and never a zero.
package metrics

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// wmic OS get FreePhysicalMemory,TotalVisibleMemorySize /Value
	memoryPattern = regexp.MustCompile(`(?i)FreePhysicalMemory=(\d+)\s+TotalVisibleMemorySize=(\d+)`)

	// typeperf one-shot sample: the first quoted decimal is the counter value
	// (the quoted timestamp that precedes it never matches digits-dot-digits).
	cpuPattern = regexp.MustCompile(`"(\d+\.\d+)"`)

	// query user lines whose state token is Active. Disconnected sessions
	// print no session name, so requiring one filters them out.
	userPattern = regexp.MustCompile(`(?m)(\w+)\s+\S+\s+\d+\s+Active`)
)

// ParseMemoryUsage extracts memory utilization percent from wmic OS key=value
// output. Both FreePhysicalMemory and TotalVisibleMemorySize are reported in
// KB; usage is (total-free)/total*100. Returns ok=false on a pattern miss or
// a nonsensical reading (zero total, free exceeding total).
func ParseMemoryUsage(output string) (float64, bool) {
	m := memoryPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}

	free, err1 := strconv.ParseFloat(m[1], 64)
	total, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || total <= 0 || free > total {
		return 0, false
	}

	return (total - free) / total * 100, true
}

// ParseCPUUsage extracts processor utilization percent from a one-shot
// typeperf counter sample: the first quoted decimal number in the block.
// Values outside [0,100] are treated as a miss rather than clamped.
func ParseCPUUsage(output string) (float64, bool) {
	m := cpuPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// DiskSpace is a parsed disk capacity reading in GB, rounded to 2 decimals.
type DiskSpace struct {
	TotalGB     float64
	RemainingGB float64
}

// ParseDiskSpace extracts free and total capacity from the tabular output of
//
//	wmic LogicalDisk where DeviceID="C:" get Size,FreeSpace
//
// wmic orders columns alphabetically, but that ordering is tool- and
// locale-dependent, so columns are identified by header name instead of
// position. Both values are required; anything else returns nil.
func ParseDiskSpace(output string) *DiskSpace {
	lines := strings.Split(output, "\n")

	freeIdx, sizeIdx := -1, -1
	var header int
	for i, line := range lines {
		fields := strings.Fields(line)
		for j, f := range fields {
			switch {
			case strings.EqualFold(f, "FreeSpace"):
				freeIdx = j
			case strings.EqualFold(f, "Size"):
				sizeIdx = j
			}
		}
		if freeIdx >= 0 && sizeIdx >= 0 {
			header = i
			break
		}
		freeIdx, sizeIdx = -1, -1
	}
	if freeIdx < 0 || sizeIdx < 0 {
		return nil
	}

	for _, line := range lines[header+1:] {
		fields := strings.Fields(line)
		if len(fields) <= freeIdx || len(fields) <= sizeIdx {
			continue
		}

		freeBytes, err1 := strconv.ParseFloat(fields[freeIdx], 64)
		sizeBytes, err2 := strconv.ParseFloat(fields[sizeIdx], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if freeBytes > sizeBytes {
			// A reading where free exceeds total is garbage, not data.
			return nil
		}

		return &DiskSpace{
			TotalGB:     BytesToGB(sizeBytes),
			RemainingGB: BytesToGB(freeBytes),
		}
	}

	return nil
}

// BytesToGB converts bytes to GB (1024³) rounded to 2 decimal places.
func BytesToGB(bytes float64) float64 {
	return math.Round(bytes/(1024*1024*1024)*100) / 100
}

// ParseActiveUsers extracts usernames of sessions listed as Active in
// query user output. Order is as encountered; duplicates are kept since a
// user can hold multiple sessions. A host with no active sessions yields nil.
func ParseActiveUsers(output string) []string {
	matches := userPattern.FindAllStringSubmatch(output, -1)
	if matches == nil {
		return nil
	}

	users := make([]string, 0, len(matches))
	for _, m := range matches {
		users = append(users, m[1])
	}
	return users
}

// ClientPattern matches the remote endpoints of sessions established against
// a known service port, restricted to a private subnet prefix. Compiled once
// per daemon since subnet and port are fixed configuration.
type ClientPattern struct {
	re *regexp.Regexp
}

// NewClientPattern builds the matcher for netstat -an output. subnetPrefix is
// a dotted IPv4 prefix like "192.168.1"; port is the service port whose
// sessions identify active clients.
func NewClientPattern(subnetPrefix string, port int) *ClientPattern {
	prefix := regexp.QuoteMeta(subnetPrefix)
	expr := fmt.Sprintf(`\s%s\.\d+:%d\s+(%s\.\d+)`, prefix, port, prefix)
	return &ClientPattern{re: regexp.MustCompile(expr)}
}

// Parse extracts the client IPv4 addresses from a netstat listing.
// Zero matches yields nil.
func (p *ClientPattern) Parse(output string) []string {
	matches := p.re.FindAllStringSubmatch(output, -1)
	if matches == nil {
		return nil
	}

	ips := make([]string, 0, len(matches))
	for _, m := range matches {
		ips = append(ips, m[1])
	}
	return ips
}
