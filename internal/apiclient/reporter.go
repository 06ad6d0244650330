package apiclient

import (
	"context"
	"sync"
)

// ErrorReporter receives every classified failure after it is logged. UI
// layers plug a notifier in here instead of reading a global.
type ErrorReporter interface {
	ReportError(ctx context.Context, err *ErrorResponse)
}

// ReporterFunc adapts a function into an ErrorReporter.
type ReporterFunc func(ctx context.Context, err *ErrorResponse)

func (f ReporterFunc) ReportError(ctx context.Context, err *ErrorResponse) {
	if f != nil {
		f(ctx, err)
	}
}

// NoOpReporter drops every report.
func NoOpReporter() ErrorReporter {
	return ReporterFunc(nil)
}

// Broadcaster fans a reported error out to every subscriber, in
// subscription order, on the reporting goroutine.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn ReporterFunc
}

var _ ErrorReporter = (*Broadcaster)(nil)

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers fn and returns a func that removes it again.
func (b *Broadcaster) Subscribe(fn ReporterFunc) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// ReportError delivers err to a snapshot of the current subscribers.
func (b *Broadcaster) ReportError(ctx context.Context, err *ErrorResponse) {
	if err == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(ctx, err)
	}
}
