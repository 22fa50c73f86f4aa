package session

import (
	"sync"

	"github.com/google/uuid"
)

const subscriptionBuffer = 16

// Observer broadcasts session state to subscribers. A new subscriber receives
// the current value immediately, then every subsequent transition.
type Observer struct {
	lock    sync.RWMutex
	current State
	subs    map[string]chan State
}

// Subscription is a registered state listener. Read states from C.
type Subscription struct {
	ID string
	C  <-chan State
}

// NewObserver creates an observer with the given initial state.
func NewObserver(initial State) *Observer {
	return &Observer{
		current: initial,
		subs:    make(map[string]chan State),
	}
}

// Current returns the latest state.
func (o *Observer) Current() State {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.current
}

// Subscribe registers a listener. The current state is already buffered on
// the returned channel.
func (o *Observer) Subscribe() *Subscription {
	o.lock.Lock()
	defer o.lock.Unlock()

	id := uuid.New().String()
	ch := make(chan State, subscriptionBuffer)
	ch <- o.current
	o.subs[id] = ch
	return &Subscription{ID: id, C: ch}
}

// Unsubscribe removes a listener and closes its channel. Unsubscribing twice
// is a no-op.
func (o *Observer) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	o.lock.Lock()
	defer o.lock.Unlock()

	ch, ok := o.subs[sub.ID]
	if !ok {
		return
	}
	delete(o.subs, sub.ID)
	close(ch)
}

// publish records the new state and fans it out. A subscriber that falls
// behind loses its oldest value; the latest state is always delivered.
func (o *Observer) publish(s State) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.current = s
	for _, ch := range o.subs {
		select {
		case ch <- s:
		default:
			// Drop the oldest buffered value to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
