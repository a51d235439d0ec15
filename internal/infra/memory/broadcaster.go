package memory

import (
	"context"
	"sync"

	"christmas-quiz-service/internal/domain"
)

// Broadcaster is an in-process implementation of app.Broadcaster: one
// subscriber set per session, non-blocking fan-out. Single-instance only;
// the Redis implementation covers multi-instance deployments.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Envelope]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]map[chan domain.Envelope]struct{}),
	}
}

func (b *Broadcaster) Publish(_ context.Context, sessionID string, events ...domain.Event) error {
	envelopes := make([]domain.Envelope, 0, len(events))
	for _, ev := range events {
		env, err := domain.EncodeEvent(ev)
		if err != nil {
			return err
		}
		envelopes = append(envelopes, env)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[sessionID] {
		for _, env := range envelopes {
			select {
			case ch <- env:
			default:
				// Drop the oldest pending envelope so a slow subscriber never
				// blocks the broadcast path.
				select {
				case <-ch:
				default:
				}
				ch <- env
			}
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(_ context.Context, sessionID string) (<-chan domain.Envelope, func(), error) {
	ch := make(chan domain.Envelope, 16)

	b.mu.Lock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[chan domain.Envelope]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(b.subscribers, sessionID)
				}
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
