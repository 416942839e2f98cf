// Package channels provides primitives for delivering messages from a single
// publisher to many subscriber channels.
package channels

import "sync"

// Fanout delivers messages from a single publisher to dynamically subscribed
// channels. Subscribers may attach and detach at any time, which suits
// event streams whose consumers come and go (SSE connections, UI observers).
//
// Publishing never blocks: a subscriber whose buffer is full misses the
// message. Slow consumers therefore see gaps rather than stalling the
// publisher.
type Fanout[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	buffer int
	closed bool
}

// NewFanout creates a Fanout whose subscriber channels hold up to buffer
// messages each.
func NewFanout[T any](buffer int) *Fanout[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Fanout[T]{
		subs:   make(map[int]chan T),
		buffer: buffer,
	}
}

// Subscribe attaches a new subscriber and returns its channel along with a
// cancel function. Cancel detaches the subscriber and closes its channel;
// it is safe to call more than once.
func (f *Fanout[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish sends msg to every current subscriber without blocking and returns
// the number of subscribers that received it.
func (f *Fanout[T]) Publish(msg T) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0
	}

	delivered := 0
	for _, ch := range f.subs {
		select {
		case ch <- msg:
			delivered++
		default:
			// Subscriber buffer full; drop for that subscriber.
		}
	}

	return delivered
}

// Subscribers reports the number of attached subscribers.
func (f *Fanout[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

// Close detaches all subscribers and closes their channels. Subsequent
// Publish calls are no-ops and subsequent Subscribe calls return a closed
// channel.
func (f *Fanout[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true

	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
