package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"github.com/google/uuid"
)

// Handler receives events. Returned errors are only logged.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	id        uuid.UUID
	eventType Type
	handler   Handler
}

// Bus is a typed publish/subscribe channel.
type Bus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]subscription
	log  logging.Logger

	flightMu sync.Mutex
	idle     *sync.Cond
	inFlight int
}

func NewBus(log logging.Logger) *Bus {
	b := &Bus{
		subs: make(map[uuid.UUID]subscription),
		log:  log.With("module", "events"),
	}
	b.idle = sync.NewCond(&b.flightMu)
	return b
}

// Subscribe registers handler for eventType and returns the subscription id
// used by Unsubscribe.
func (b *Bus) Subscribe(eventType Type, handler Handler) (uuid.UUID, error) {
	if handler == nil {
		return uuid.Nil, fmt.Errorf("handler cannot be nil")
	}

	id := uuid.New()

	b.mu.Lock()
	b.subs[id] = subscription{id: id, eventType: eventType, handler: handler}
	b.mu.Unlock()

	return id, nil
}

// Unsubscribe removes a subscription. Events already in flight for it are
// dropped rather than delivered.
func (b *Bus) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (b *Bus) handlersFor(t Type) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []subscription
	for _, s := range b.subs {
		if s.eventType == t {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) active(id uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subs[id]
	return ok
}

func (b *Bus) deliver(ctx context.Context, s subscription, ev Event) {
	if !b.active(s.id) {
		return
	}
	if err := s.handler(ctx, ev); err != nil {
		b.log.Error(ctx, "event handler failed", "event_type", string(ev.Type), "error", err)
	}
}

// Publish delivers ev to every current subscriber of its type, each on its
// own goroutine, and returns immediately.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	subs := b.handlersFor(ev.Type)
	if len(subs) == 0 {
		b.log.Debug(ctx, "no subscribers for event", "event_type", string(ev.Type))
		return
	}

	b.flightMu.Lock()
	b.inFlight += len(subs)
	b.flightMu.Unlock()

	for _, s := range subs {
		go func(s subscription) {
			defer b.landed()
			b.deliver(ctx, s, ev)
		}(s)
	}
}

func (b *Bus) landed() {
	b.flightMu.Lock()
	b.inFlight--
	if b.inFlight == 0 {
		b.idle.Broadcast()
	}
	b.flightMu.Unlock()
}

// Drain waits until every delivery started by Publish has returned, or ctx
// is done. Call it before unsubscribing at shutdown so late results are
// still shown.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.flightMu.Lock()
		for b.inFlight > 0 {
			b.idle.Wait()
		}
		b.flightMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	b.subs = make(map[uuid.UUID]subscription)
	b.mu.Unlock()
}
