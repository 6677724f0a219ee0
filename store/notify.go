package store

import (
	"context"
	"sync"

	"github.com/kuzowebsite/ider-surver/model"
)

// notifier wakes subscribers after a write. Every subscriber has a one-slot
// channel, so a burst of writes collapses into a single reload.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func (n *notifier) add() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]chan struct{})
	}
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[n.next] = ch
	return n.next, ch
}

func (n *notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type listFunc func(ctx context.Context) ([]model.Submission, error)

// watch runs a subscription loop for the in-process backends.
func (n *notifier) watch(ctx context.Context, list listFunc, onSnapshot SnapshotFunc, onError ErrorFunc) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	id, wake := n.add()

	deliver := func() {
		submissions, err := list(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onSnapshot(submissions)
	}

	go func() {
		defer n.remove(id)
		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				deliver()
			}
		}
	}()

	return Unsubscribe(cancel)
}
