package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/Additional-Code/repairdesk/internal/cache"
	"github.com/Additional-Code/repairdesk/internal/messaging"
)

// MemoryCache is an in-process cache.Store.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// Get implements cache.Store.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

// Set implements cache.Store.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements cache.Store.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key is cached.
func (m *MemoryCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Publisher records published messages and replays queued ones to consumers.
type Publisher struct {
	mu        sync.Mutex
	Published []messaging.Message
	Err       error
	inbox     chan messaging.Message
}

// NewPublisher returns a Publisher whose consumers receive the given messages.
func NewPublisher(inbound ...messaging.Message) *Publisher {
	inbox := make(chan messaging.Message, len(inbound))
	for _, msg := range inbound {
		inbox <- msg
	}
	return &Publisher{inbox: inbox}
}

// Publish implements messaging.Client.
func (p *Publisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	msg.Topic = p.Topic()
	p.Published = append(p.Published, msg)
	return nil
}

// Consume implements messaging.Client.
func (p *Publisher) Consume(ctx context.Context, handler messaging.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.inbox:
			_ = handler(ctx, msg)
		}
	}
}

// Topic implements messaging.Client.
func (p *Publisher) Topic() string { return "repairdesk.orders" }

// Events returns the event header of every published message.
func (p *Publisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Published))
	for _, msg := range p.Published {
		out = append(out, msg.Event())
	}
	return out
}
