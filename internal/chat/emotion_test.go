package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/domain"
)

func TestEmotionHidesAfterDwell(t *testing.T) {
	clock := &manualClock{}
	b := bus.New()
	events, unsub := b.Subscribe("emotion.", 8)
	defer unsub()
	d := NewEmotionDisplay(b, clock, 8*time.Second)

	d.Show(domain.Emotion{Label: "Sadness", Confidence: 0.6})
	require.Equal(t, bus.EmotionShown, (<-events).Kind)
	require.Equal(t, "Sadness", d.Current().Label)

	clock.Advance(7999 * time.Millisecond)
	require.NotNil(t, d.Current())

	clock.Advance(time.Millisecond)
	require.Nil(t, d.Current())
	require.Equal(t, bus.EmotionHidden, (<-events).Kind)
}

func TestEmotionNewAnnotationRestartsTimer(t *testing.T) {
	clock := &manualClock{}
	d := NewEmotionDisplay(nil, clock, 8*time.Second)

	d.Show(domain.Emotion{Label: "Anxiety", Confidence: 0.8})
	clock.Advance(5 * time.Second)
	d.Show(domain.Emotion{Label: "Hope", Confidence: 0.7})

	clock.Advance(5 * time.Second)
	require.NotNil(t, d.Current(), "first timer must not hide the second annotation")
	require.Equal(t, "Hope", d.Current().Label)

	clock.Advance(3 * time.Second)
	require.Nil(t, d.Current())
}

func TestEmotionHide(t *testing.T) {
	clock := &manualClock{}
	d := NewEmotionDisplay(nil, clock, time.Second)

	d.Hide()
	require.Nil(t, d.Current())

	d.Show(domain.Emotion{Label: "Love", Confidence: 1})
	d.Hide()
	require.Nil(t, d.Current())
	clock.Advance(2 * time.Second)
	require.Nil(t, d.Current())
}

func TestEmotionRealClock(t *testing.T) {
	d := NewEmotionDisplay(nil, nil, 10*time.Millisecond)
	d.Show(domain.Emotion{Label: "Neutral", Confidence: 0.5})
	require.Eventually(t, func() bool { return d.Current() == nil }, time.Second, 5*time.Millisecond)
}

func TestTranscript(t *testing.T) {
	b := bus.New()
	events, unsub := b.Subscribe("transcript.", 8)
	defer unsub()
	tr := NewTranscript(b)

	m := tr.Append(domain.Message{Text: "hi", Sender: domain.SenderUser})
	require.NotEmpty(t, m.ID)
	require.False(t, m.Timestamp.IsZero())
	evt := <-events
	require.Equal(t, bus.TranscriptAppended, evt.Kind)
	require.Equal(t, m, evt.Payload)

	snapshot := tr.Messages()
	snapshot[0].Text = "mutated"
	require.Equal(t, "hi", tr.Messages()[0].Text)

	tr.Fail(domain.NewTransportError("boom", 500, nil))
	require.Zero(t, tr.Len())
	require.Error(t, tr.LoadError())
	require.Equal(t, bus.TranscriptFailed, (<-events).Kind)

	tr.Reset()
	require.NoError(t, tr.LoadError())
	require.Equal(t, bus.TranscriptReset, (<-events).Kind)
}
