// Package connectivity tracks whether the remote store is reachable.
package connectivity

import (
	"context"
	"sync"

	"github.com/imkira/go-observer"
)

// Observer holds the current reachability and notifies subscribers of every
// transition. Setting the current value again is not a transition.
type Observer struct {
	mu     sync.Mutex
	online bool
	prop   observer.Property
}

func NewObserver(online bool) *Observer {
	return &Observer{
		online: online,
		prop:   observer.NewProperty(online),
	}
}

func (o *Observer) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.online
}

// Set records the reachability and reports whether it changed.
func (o *Observer) Set(online bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.online == online {
		return false
	}

	o.online = online
	o.prop.Update(online)
	return true
}

// Subscribe streams transitions that happen after the call until ctx is done.
func (o *Observer) Subscribe(ctx context.Context) <-chan bool {
	o.mu.Lock()
	stream := o.prop.Observe()
	o.mu.Unlock()

	result := make(chan bool)
	go func() {
		defer close(result)
		for {
			select {
			case <-ctx.Done():
				return

			case <-stream.Changes():
				online := stream.Next().(bool)

				select {
				case <-ctx.Done():
					return
				case result <- online:
				}
			}
		}
	}()

	return result
}
