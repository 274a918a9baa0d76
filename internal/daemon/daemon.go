// Package daemon ties the fleet prober, the store, and the scheduler into
// the long-running polling process.
package daemon

import (
	"context"
	"time"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/metrics"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/probe"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/scheduler"
)

// HostStore is the slice of the store the daemon drives.
type HostStore interface {
	AllHosts(ctx context.Context) ([]string, error)
	ConnectableHosts(ctx context.Context) ([]string, error)
	SaveCheck(ctx context.Context, host string, reachable bool, disk *metrics.DiskSpace, at time.Time) error
	SaveExtract(ctx context.Context, host string, cpu, memory *float64, users, clientIPs []string, at time.Time) error
}

// FleetProber runs one probe mode across a host set.
type FleetProber interface {
	RunCheck(ctx context.Context, hosts []string) map[string]probe.CheckResult
	RunExtract(ctx context.Context, hosts []string) map[string]probe.ExtractResult
}

type Daemon struct {
	store HostStore
	fleet FleetProber
	log   logger.Logger
	now   func() time.Time
}

func New(store HostStore, fleet FleetProber, log logger.Logger) *Daemon {
	return &Daemon{store: store, fleet: fleet, log: log, now: time.Now}
}

// Run drives both polling cadences until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context, checkEvery, extractEvery time.Duration) {
	d.log.Info("[daemon] starting: check every %s, extract every %s", checkEvery, extractEvery)
	sched := scheduler.New(checkEvery, extractEvery, d.CheckCycle, d.ExtractCycle, d.log)
	sched.Run(ctx)
	d.log.Info("[daemon] stopped")
}

// CheckCycle probes every registered host for connectivity and disk capacity
// and persists one verdict per host. An unreachable host is persisted as
// connectable=false, never skipped.
//
// A started cycle runs to completion: the stop signal takes effect between
// cycles, so the fan-out and the saves are detached from cancellation and
// results collected before a shutdown still get persisted.
func (d *Daemon) CheckCycle(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	hosts, err := d.store.AllHosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		d.log.Info("[daemon] no registered hosts, skipping check cycle")
		return nil
	}

	results := d.fleet.RunCheck(ctx, hosts)
	at := d.now()

	reachable, saved := 0, 0
	for host, res := range results {
		if res.Reachable {
			reachable++
		} else {
			d.log.Debug("[daemon] %s unreachable: %v", host, res.Err)
		}
		if err := d.store.SaveCheck(ctx, host, res.Reachable, res.Disk, at); err != nil {
			d.log.Error("[daemon] %v", err)
			continue
		}
		saved++
	}
	d.log.Info("[daemon] check cycle: %d/%d hosts reachable, %d verdicts saved", reachable, len(hosts), saved)
	return nil
}

// ExtractCycle probes the previously-connectable host set for usage metrics.
// A host whose probe failed outright gets nothing persisted this tick; the
// next check cycle will demote it if it stays down.
//
// Detached from cancellation like CheckCycle: a tick in flight finishes.
func (d *Daemon) ExtractCycle(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	hosts, err := d.store.ConnectableHosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		d.log.Debug("[daemon] no connectable hosts, skipping extract cycle")
		return nil
	}

	results := d.fleet.RunExtract(ctx, hosts)
	at := d.now()

	saved := 0
	for host, res := range results {
		if res.Err != nil {
			d.log.Debug("[daemon] %s extract failed: %v", host, res.Err)
			continue
		}
		if err := d.store.SaveExtract(ctx, host, res.CPU, res.Memory, res.Users, res.ClientIPs, at); err != nil {
			d.log.Error("[daemon] %v", err)
			continue
		}
		saved++
	}
	d.log.Debug("[daemon] extract cycle: %d/%d hosts saved", saved, len(hosts))
	return nil
}
