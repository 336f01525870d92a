package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	first := &Recorder{}
	second := &Recorder{}
	sink := Multi{first, nil, second}

	sink.Emit(context.Background(), Event{Type: TypeCommitted})
	sink.Emit(context.Background(), Event{Type: TypeRevealed})

	for _, r := range []*Recorder{first, second} {
		got := r.Events()
		require.Len(t, got, 2)
		require.Equal(t, TypeCommitted, got[0].Type)
		require.Equal(t, TypeRevealed, got[1].Type)
	}
}

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Emit(context.Background(), Event{Type: TypeRuleCreated})

	ev := <-ch
	require.Equal(t, TypeRuleCreated, ev.Type)
}

func TestBroadcaster_DropsSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Emit(context.Background(), Event{Type: TypeCommitted})
	// Buffer full: the second emit evicts the subscriber instead of
	// blocking.
	b.Emit(context.Background(), Event{Type: TypeCommitted})

	ev, open := <-ch
	require.True(t, open)
	require.Equal(t, TypeCommitted, ev.Type)
	_, open = <-ch
	require.False(t, open)
}

func TestBroadcaster_CancelIsIdempotent(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe(1)
	cancel()
	cancel()

	// Emitting after cancellation must not panic.
	b.Emit(context.Background(), Event{Type: TypeCommitted})
}
