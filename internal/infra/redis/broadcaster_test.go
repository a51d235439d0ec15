package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"christmas-quiz-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestBroadcasterRoundTrip(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	published := domain.PlayerJoined{Player: domain.PlayerInfo{ID: "p1", Nickname: "Alice"}, PlayerCount: 1}
	if err := b.Publish(ctx, "s1", published); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case env := <-events:
		if env.Event != domain.EventPlayerJoined {
			t.Fatalf("wrong event %s", env.Event)
		}
		decoded, err := domain.DecodeEvent(env)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		joined, ok := decoded.(*domain.PlayerJoined)
		if !ok || joined.Player.Nickname != "Alice" {
			t.Fatalf("unexpected payload %+v", decoded)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never arrived")
	}
}

func TestBroadcasterPublishesInOrder(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// One Publish call with multiple events keeps their relative order.
	if err := b.Publish(ctx, "s1",
		domain.GameStarted{Status: domain.StatusQuestion, TotalQuestions: 3},
		domain.NewQuestion{QuestionPayload: domain.QuestionPayload{ID: "q1", QuestionNumber: 1}},
	); err != nil {
		t.Fatalf("publish: %v", err)
	}

	want := []string{domain.EventGameStarted, domain.EventNewQuestion}
	for _, name := range want {
		select {
		case env := <-events:
			if env.Event != name {
				t.Fatalf("expected %s, got %s", name, env.Event)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing %s", name)
		}
	}
}

func TestBroadcasterSessionIsolation(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)
	ctx := context.Background()

	other, cancel, err := b.Subscribe(ctx, "s2")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := b.Publish(ctx, "s1", domain.PlayerLeft{PlayerID: "p1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case env := <-other:
		t.Fatalf("cross-session leak: %s", env.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcasterCancelClosesChannel(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)

	events, cancel, err := b.Subscribe(context.Background(), "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel() // safe to call twice

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel never closed")
	}
}

func TestBroadcasterDropsOldestWhenConsumerStalls(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Overfill the delivery buffer without reading; the pump must shed stale
	// envelopes instead of blocking on the stalled consumer.
	for i := 0; i < 40; i++ {
		if err := b.Publish(ctx, "s1", domain.AnswerReceived{AnsweredCount: i}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	time.Sleep(200 * time.Millisecond)
	cancel()

	received := 0
	var last domain.Envelope
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env, ok := <-events:
			if !ok {
				if received >= 40 {
					t.Fatalf("expected stale envelopes dropped, drained %d", received)
				}
				var decoded domain.AnswerReceived
				if err := json.Unmarshal(last.Data, &decoded); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if decoded.AnsweredCount != 39 {
					t.Fatalf("lost the newest envelope, got %d", decoded.AnsweredCount)
				}
				return
			}
			received++
			last = env
		case <-deadline:
			t.Fatalf("channel never closed after cancel")
		}
	}
}

func TestBroadcasterSkipsMalformedPayloads(t *testing.T) {
	client := newTestClient(t)
	b := NewBroadcaster(client)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := client.Publish(ctx, sessionChannel("s1"), "not-json").Err(); err != nil {
		t.Fatalf("raw publish: %v", err)
	}
	payload, _ := json.Marshal(domain.Envelope{Event: domain.EventPlayerLeft, Data: []byte(`{"playerId":"p1"}`)})
	if err := client.Publish(ctx, sessionChannel("s1"), payload).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case env := <-events:
		if env.Event != domain.EventPlayerLeft {
			t.Fatalf("expected the valid envelope, got %s", env.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("valid envelope never arrived")
	}
}
