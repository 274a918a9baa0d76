package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/metrics"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/probe"
)

type savedCheck struct {
	reachable bool
	disk      *metrics.DiskSpace
}

type savedExtract struct {
	cpu, memory *float64
	users, ips  []string
}

type fakeStore struct {
	all         []string
	connectable []string
	saveErr     error

	// honorCtx makes saves fail on a cancelled context, like a real pgx
	// pool would.
	honorCtx bool

	checks   map[string]savedCheck
	extracts map[string]savedExtract
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		checks:   map[string]savedCheck{},
		extracts: map[string]savedExtract{},
	}
}

func (s *fakeStore) AllHosts(ctx context.Context) ([]string, error) { return s.all, nil }

func (s *fakeStore) ConnectableHosts(ctx context.Context) ([]string, error) {
	return s.connectable, nil
}

func (s *fakeStore) SaveCheck(ctx context.Context, host string, reachable bool, disk *metrics.DiskSpace, at time.Time) error {
	if s.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.checks[host] = savedCheck{reachable: reachable, disk: disk}
	return nil
}

func (s *fakeStore) SaveExtract(ctx context.Context, host string, cpu, memory *float64, users, ips []string, at time.Time) error {
	if s.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.extracts[host] = savedExtract{cpu: cpu, memory: memory, users: users, ips: ips}
	return nil
}

type fakeFleet struct {
	checkResults   map[string]probe.CheckResult
	extractResults map[string]probe.ExtractResult
	checkCalls     int
	extractCalls   int

	// onRun fires while the fan-out is in flight, e.g. to deliver a stop
	// signal mid-cycle.
	onRun func()
}

func (f *fakeFleet) RunCheck(ctx context.Context, hosts []string) map[string]probe.CheckResult {
	f.checkCalls++
	if f.onRun != nil {
		f.onRun()
	}
	return f.checkResults
}

func (f *fakeFleet) RunExtract(ctx context.Context, hosts []string) map[string]probe.ExtractResult {
	f.extractCalls++
	if f.onRun != nil {
		f.onRun()
	}
	return f.extractResults
}

func TestCheckCyclePersistsEveryVerdict(t *testing.T) {
	st := newFakeStore()
	st.all = []string{"up-host", "down-host"}
	fleet := &fakeFleet{checkResults: map[string]probe.CheckResult{
		"up-host":   {Reachable: true, Disk: &metrics.DiskSpace{TotalGB: 186.26, RemainingGB: 46.57}},
		"down-host": {Reachable: false, Err: errors.New("connect timeout")},
	}}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.CheckCycle(context.Background()))

	require.Len(t, st.checks, 2)
	assert.True(t, st.checks["up-host"].reachable)
	require.NotNil(t, st.checks["up-host"].disk)

	// Unreachable hosts get a negative verdict, not silence.
	assert.False(t, st.checks["down-host"].reachable)
	assert.Nil(t, st.checks["down-host"].disk)
}

func TestCheckCycleSkipsFleetWhenNoHosts(t *testing.T) {
	st := newFakeStore()
	fleet := &fakeFleet{}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.CheckCycle(context.Background()))
	assert.Zero(t, fleet.checkCalls)
}

func TestExtractCycleSkipsFailedProbes(t *testing.T) {
	cpu, mem := 42.5, 75.0
	st := newFakeStore()
	st.connectable = []string{"good", "flaky"}
	fleet := &fakeFleet{extractResults: map[string]probe.ExtractResult{
		"good":  {CPU: &cpu, Memory: &mem, Users: []string{"alice"}, ClientIPs: []string{"192.168.1.55"}},
		"flaky": {Err: errors.New("session lost")},
	}}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.ExtractCycle(context.Background()))

	require.Len(t, st.extracts, 1)
	got := st.extracts["good"]
	assert.Equal(t, &cpu, got.cpu)
	assert.Equal(t, &mem, got.memory)
	assert.Equal(t, []string{"alice"}, got.users)
}

func TestExtractCyclePersistsUnknownsAsNil(t *testing.T) {
	st := newFakeStore()
	st.connectable = []string{"quiet"}
	fleet := &fakeFleet{extractResults: map[string]probe.ExtractResult{
		// Every pattern missed: the values stay unknown, not zero.
		"quiet": {},
	}}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.ExtractCycle(context.Background()))

	require.Len(t, st.extracts, 1)
	assert.Nil(t, st.extracts["quiet"].cpu)
	assert.Nil(t, st.extracts["quiet"].memory)
}

func TestExtractCycleSkipsFleetWhenNoConnectableHosts(t *testing.T) {
	st := newFakeStore()
	st.all = []string{"never-checked"}
	fleet := &fakeFleet{}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.ExtractCycle(context.Background()))
	assert.Zero(t, fleet.extractCalls)
}

func TestExtractCyclePersistsResultsAfterMidCycleStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cpu1, cpu2 := 10.0, 20.0
	st := newFakeStore()
	st.honorCtx = true
	st.connectable = []string{"h1", "h2"}
	fleet := &fakeFleet{
		// The stop signal lands while the fan-out is still running.
		onRun: cancel,
		extractResults: map[string]probe.ExtractResult{
			"h1": {CPU: &cpu1},
			"h2": {CPU: &cpu2},
		},
	}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.ExtractCycle(ctx))

	// Results collected before the stop must still reach the store; the
	// loop stops between cycles, never halfway through one.
	assert.Len(t, st.extracts, 2)
}

func TestCheckCyclePersistsResultsAfterMidCycleStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	st := newFakeStore()
	st.honorCtx = true
	st.all = []string{"h1", "h2"}
	fleet := &fakeFleet{
		onRun: cancel,
		checkResults: map[string]probe.CheckResult{
			"h1": {Reachable: true},
			"h2": {Reachable: false, Err: errors.New("connect timeout")},
		},
	}

	d := New(st, fleet, logger.Noop())
	require.NoError(t, d.CheckCycle(ctx))

	assert.Len(t, st.checks, 2)
}

func TestCycleContinuesPastSaveErrors(t *testing.T) {
	st := newFakeStore()
	st.all = []string{"h1", "h2"}
	st.saveErr = errors.New("db down")
	fleet := &fakeFleet{checkResults: map[string]probe.CheckResult{
		"h1": {Reachable: true},
		"h2": {Reachable: true},
	}}

	d := New(st, fleet, logger.Noop())
	// Per-host save failures are logged, not escalated; the tick completes.
	require.NoError(t, d.CheckCycle(context.Background()))
}
