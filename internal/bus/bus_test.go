package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transcript.", 10)
	defer unsub()

	b.Emit(TranscriptAppended, "hello")

	select {
	case evt := <-ch:
		if evt.Kind != TranscriptAppended {
			t.Errorf("got kind %q, want %s", evt.Kind, TranscriptAppended)
		}
		if evt.Timestamp.IsZero() {
			t.Error("event timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("emotion.", 10)
	defer unsub()

	b.Emit(ScreenChanged, nil)
	b.Emit(EmotionShown, nil)

	select {
	case evt := <-ch:
		if evt.Kind != EmotionShown {
			t.Errorf("got kind %q, want %s", evt.Kind, EmotionShown)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The screen event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeManyDeliversOnce(t *testing.T) {
	b := New()
	ch, unsub := b.SubscribeMany(10, "session.", "session.send", "conversations.")
	defer unsub()

	b.Emit(SessionSendStarted, nil)
	b.Emit(ConversationsUpdated, nil)
	b.Emit(ThemeChanged, nil)

	got := []string{(<-ch).Kind, (<-ch).Kind}
	if got[0] != SessionSendStarted || got[1] != ConversationsUpdated {
		t.Errorf("got %v", got)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected extra event: %v", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	unsub()

	b.Emit(SessionFocusChanged, nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transcript.", 1)
	defer unsub()

	b.Emit(TranscriptReset, nil)
	// Dropped: the buffer is full.
	b.Emit(TranscriptAppended, nil)

	evt := <-ch
	if evt.Kind != TranscriptReset {
		t.Errorf("got %q, want %s", evt.Kind, TranscriptReset)
	}
}

func TestNilBusIsInert(t *testing.T) {
	var b *Bus
	b.Emit(TranscriptAppended, nil)
	ch, unsub := b.Subscribe("transcript.", 1)
	defer unsub()
	select {
	case <-ch:
		t.Error("nil bus delivered an event")
	default:
	}
}
