package event

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives the arguments passed to Emit.
type Handler = func(args ...any)

type subscription struct {
	id      string
	event   string
	handler Handler
	once    bool
}

type posted struct {
	event string
	args  []any
}

// Bus is a string-keyed event bus. Emit delivers synchronously. Post queues an
// event for the next Flush, which the game loop calls once per tick, so events
// posted in tick N are delivered at the start of tick N+1.
type Bus struct {
	mu    sync.Mutex // protects subs, byID and the back buffer; never held during delivery
	subs  map[string][]*subscription
	byID  map[string]*subscription
	front []posted
	back  []posted
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
		byID: make(map[string]*subscription),
	}
}

// On registers h for event and returns an id usable for exactly one Off.
func (b *Bus) On(event string, h Handler) string {
	return b.subscribe(event, h, false)
}

// Once registers h for a single delivery.
func (b *Bus) Once(event string, h Handler) string {
	return b.subscribe(event, h, true)
}

func (b *Bus) subscribe(event string, h Handler, once bool) string {
	s := &subscription{id: uuid.NewString(), event: event, handler: h, once: once}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[event] = append(b.subs[event], s)
	b.byID[s.id] = s
	return s.id
}

// Off unregisters the handler with the given id. Unknown ids are ignored.
func (b *Bus) Off(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

func (b *Bus) removeLocked(id string) bool {
	s, ok := b.byID[id]
	if !ok {
		return false
	}
	delete(b.byID, id)
	list := b.subs[s.event]
	for i, cur := range list {
		if cur == s {
			// copy so snapshots taken by an in-flight Emit stay intact
			next := make([]*subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, s.event)
			} else {
				b.subs[s.event] = next
			}
			break
		}
	}
	return true
}

// Emit delivers args to every handler registered for event when Emit is
// called, in registration order. Handlers added during delivery wait for the
// next Emit; handlers removed during delivery are skipped.
func (b *Bus) Emit(event string, args ...any) {
	b.mu.Lock()
	snapshot := b.subs[event]
	b.mu.Unlock()

	for _, s := range snapshot {
		b.mu.Lock()
		_, live := b.byID[s.id]
		if live && s.once {
			b.removeLocked(s.id)
		}
		b.mu.Unlock()
		if live {
			s.handler(args...)
		}
	}
}

// Post queues an event into the back buffer for the next Flush.
func (b *Bus) Post(event string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.back = append(b.back, posted{event: event, args: args})
}

// Flush swaps the buffers and emits everything posted before the call.
// Events posted by handlers during Flush wait for the next one.
func (b *Bus) Flush() error {
	b.mu.Lock()
	b.front, b.back = b.back, b.front[:0]
	pending := b.front
	b.mu.Unlock()

	for _, p := range pending {
		b.Emit(p.event, p.args...)
	}
	return nil
}

// Pending returns the number of posted events waiting for Flush.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// Handlers returns the number of handlers registered for event.
func (b *Bus) Handlers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}
