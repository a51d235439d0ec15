package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"christmas-quiz-service/internal/domain"
)

// Broadcaster relays session events over Redis pub/sub, one channel per
// session, so every service instance sees every event regardless of which
// instance handled the originating request.
type Broadcaster struct {
	client *redis.Client
}

func NewBroadcaster(client *redis.Client) *Broadcaster {
	return &Broadcaster{client: client}
}

func sessionChannel(sessionID string) string {
	return "session:" + sessionID + ":events"
}

func (b *Broadcaster) Publish(ctx context.Context, sessionID string, events ...domain.Event) error {
	channel := sessionChannel(sessionID)
	pipe := b.client.Pipeline()
	for _, ev := range events {
		env, err := domain.EncodeEvent(ev)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		pipe.Publish(ctx, channel, payload)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe opens a pub/sub subscription for the session. The returned cancel
// closes the subscription and, shortly after, the channel.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan domain.Envelope, func(), error) {
	sub := b.client.Subscribe(ctx, sessionChannel(sessionID))
	// Force the SUBSCRIBE roundtrip so a broken connection fails here, not on
	// the first missed event.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe session %s: %w", sessionID, err)
	}

	out := make(chan domain.Envelope, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var env domain.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			// Never block on a stalled or departed consumer: drop the oldest
			// buffered envelope to make room, same policy as the in-process
			// broadcaster.
			select {
			case out <- env:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- env:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
