package probe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/pkg/sshutil"
)

func TestFleetHostFailureIsIsolated(t *testing.T) {
	good := "FreeSpace      Size\r\n50000000000    200000000000\r\n"
	dial := func(addr string, cred sshutil.Credential, timeout time.Duration) (Session, error) {
		if addr == "bad-host" {
			return nil, errors.New("no route to host")
		}
		return &fakeSession{out: good}, nil
	}
	p := newTestProber(dial)
	fleet := NewFleet(p, 10, logger.Noop())

	results := fleet.RunCheck(context.Background(), []string{"host-a", "bad-host", "host-b"})
	require.Len(t, results, 3)

	assert.True(t, results["host-a"].Reachable)
	assert.NotNil(t, results["host-a"].Disk)
	assert.True(t, results["host-b"].Reachable)
	assert.NotNil(t, results["host-b"].Disk)

	assert.False(t, results["bad-host"].Reachable)
	assert.Error(t, results["bad-host"].Err)
}

func TestFleetBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex

	dial := func(addr string, cred sshutil.Credential, timeout time.Duration) (Session, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &fakeSession{}, nil
	}
	p := newTestProber(dial)
	fleet := NewFleet(p, 3, logger.Noop())

	hosts := make([]string, 12)
	for i := range hosts {
		hosts[i] = string(rune('a' + i))
	}
	results := fleet.RunExtract(context.Background(), hosts)

	assert.Len(t, results, 12)
	mu.Lock()
	assert.LessOrEqual(t, peak, int64(3))
	mu.Unlock()
}

func TestFleetReturnsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	dial := func(addr string, cred sshutil.Credential, timeout time.Duration) (Session, error) {
		cancel()
		<-block
		return &fakeSession{}, nil
	}
	p := newTestProber(dial)
	fleet := NewFleet(p, 1, logger.Noop())

	done := make(chan map[string]CheckResult, 1)
	go func() {
		done <- fleet.RunCheck(ctx, []string{"h1", "h2", "h3", "h4"})
	}()

	// The first host holds the single semaphore slot and blocks in dial
	// until released; cancellation must let the queued hosts bail out
	// instead of waiting for the slot.
	time.Sleep(20 * time.Millisecond)
	close(block)

	select {
	case results := <-done:
		// The blocked host completes; the rest may have bailed before
		// acquiring the slot.
		assert.GreaterOrEqual(t, len(results), 1)
	case <-time.After(2 * time.Second):
		t.Fatal("fleet did not return after cancellation")
	}
}
