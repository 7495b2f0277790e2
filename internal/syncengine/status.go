package syncengine

import (
	"context"
	"sync"

	"github.com/imkira/go-observer"
)

type Status string

const (
	StatusOffline Status = "offline"
	StatusOnline  Status = "online"
	StatusSyncing Status = "syncing"
)

// statusTracker derives the coarse status from connectivity and the number
// of remote calls in flight.
type statusTracker struct {
	mu       sync.Mutex
	current  Status
	inFlight int
	prop     observer.Property
}

func newStatusTracker(initial Status) *statusTracker {
	return &statusTracker{
		current: initial,
		prop:    observer.NewProperty(initial),
	}
}

// Get reports syncing while a call is in flight and the given connectivity
// otherwise, so a change nobody forwarded through SetConnectivity still shows.
func (t *statusTracker) Get(online bool) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight == 0 {
		t.set(connStatus(online))
	}

	return t.current
}

func (t *statusTracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight++
	t.set(StatusSyncing)
}

func (t *statusTracker) End(online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight--
	if t.inFlight == 0 {
		t.set(connStatus(online))
	}
}

// SetConnectivity applies a connectivity change unless a call is in flight;
// End picks the change up when the last call finishes.
func (t *statusTracker) SetConnectivity(online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight == 0 {
		t.set(connStatus(online))
	}
}

func (t *statusTracker) set(s Status) {
	if t.current == s {
		return
	}

	t.current = s
	t.prop.Update(s)
}

func (t *statusTracker) Subscribe(ctx context.Context) <-chan Status {
	t.mu.Lock()
	stream := t.prop.Observe()
	t.mu.Unlock()

	result := make(chan Status)
	go func() {
		defer close(result)
		for {
			select {
			case <-ctx.Done():
				return

			case <-stream.Changes():
				s := stream.Next().(Status)

				select {
				case <-ctx.Done():
					return
				case result <- s:
				}
			}
		}
	}()

	return result
}

func connStatus(online bool) Status {
	if online {
		return StatusOnline
	}
	return StatusOffline
}
