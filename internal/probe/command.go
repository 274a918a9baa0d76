package probe

import "fmt"

// checkCommand queries C: drive capacity. wmic prints a FreeSpace/Size header
// row followed by the values in bytes; the parser matches columns by name.
const checkCommand = `wmic LogicalDisk where DeviceID="C:" get Size,FreeSpace`

// BuildExtractCommand returns the single composite command run per extract
// cycle. Batching everything into one remote exec keeps the per-host cost to
// one session round trip (the dominant latency on a large fleet). Sections,
// in order:
//
//	wmic OS       - FreePhysicalMemory / TotalVisibleMemorySize in KB
//	typeperf      - one-shot processor utilization sample
//	query user    - active session listing
//	wmic disk     - C: free space
//	netstat       - established sessions on the service port, client subnet only
//
// The output is consumed as one combined text blob; each parser finds its own
// section by pattern. subnet and port come from validated configuration, never
// from remote data.
func BuildExtractCommand(subnet string, port int) string {
	return fmt.Sprintf(
		`wmic OS get FreePhysicalMemory,TotalVisibleMemorySize /Value & `+
			`typeperf "\Processor Information(_Total)\%% Processor Time" -sc 1 & `+
			`query user & `+
			`wmic LOGICALDISK WHERE Name='C:' get FreeSpace /Value & `+
			`netstat -an | findstr "%s.*:%d"`,
		subnet, port,
	)
}
