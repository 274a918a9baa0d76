package probe

import (
	"context"
	"sync"
	"time"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
)

// Fleet fans a probe out across many hosts concurrently, bounded by a
// semaphore so a large fleet cannot exhaust sockets or file descriptors.
type Fleet struct {
	prober      *Prober
	maxInFlight int
	log         logger.Logger
}

// NewFleet wraps a Prober for concurrent runs. maxInFlight caps simultaneous
// host probes.
func NewFleet(prober *Prober, maxInFlight int, log logger.Logger) *Fleet {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Fleet{prober: prober, maxInFlight: maxInFlight, log: log}
}

// RunCheck probes every host concurrently and returns one CheckResult per
// host. A failing host only affects its own entry.
func (f *Fleet) RunCheck(ctx context.Context, hosts []string) map[string]CheckResult {
	return fanOut(ctx, f, hosts, f.prober.Check)
}

// RunExtract probes every host concurrently and returns one ExtractResult
// per host.
func (f *Fleet) RunExtract(ctx context.Context, hosts []string) map[string]ExtractResult {
	return fanOut(ctx, f, hosts, f.prober.Extract)
}

// fanOut runs job for each host on its own goroutine, gated by a buffered
// channel acting as a counting semaphore. Each host gets its own deadline so
// one slow host cannot starve the rest of the cycle.
func fanOut[T any](ctx context.Context, f *Fleet, hosts []string, job func(context.Context, string) T) map[string]T {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, f.maxInFlight)
	)
	results := make(map[string]T, len(hosts))

	start := time.Now()
	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			hostCtx, cancel := context.WithTimeout(ctx, f.prober.HostBudget())
			res := job(hostCtx, host)
			cancel()

			mu.Lock()
			results[host] = res
			mu.Unlock()
		}(host)
	}
	wg.Wait()
	f.log.Debug("[fleet] probed %d hosts in %s", len(hosts), time.Since(start).Round(time.Millisecond))
	return results
}
