package chat

import (
	"sync"
	"time"

	"github.com/matheus3301/melo/internal/bus"
	"github.com/matheus3301/melo/internal/domain"
)

// Timer is a handle on a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock wraps time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// EmotionDisplay shows the latest emotion annotation for a fixed dwell time.
type EmotionDisplay struct {
	mu      sync.Mutex
	clock   Clock
	dwell   time.Duration
	current *domain.Emotion
	timer   Timer
	gen     uint64
	bus     *bus.Bus
}

// NewEmotionDisplay creates a hidden display. A nil clock uses RealClock.
func NewEmotionDisplay(b *bus.Bus, clock Clock, dwell time.Duration) *EmotionDisplay {
	if clock == nil {
		clock = RealClock
	}
	return &EmotionDisplay{clock: clock, dwell: dwell, bus: b}
}

// Show displays e and schedules it to hide after the dwell time. Showing a
// new annotation while one is visible restarts the countdown.
func (d *EmotionDisplay) Show(e domain.Emotion) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.current = &e
	d.timer = d.clock.AfterFunc(d.dwell, func() { d.expire(gen) })
	d.mu.Unlock()

	d.bus.Emit(bus.EmotionShown, e)
}

func (d *EmotionDisplay) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.current == nil {
		d.mu.Unlock()
		return
	}
	d.current = nil
	d.timer = nil
	d.mu.Unlock()

	d.bus.Emit(bus.EmotionHidden, nil)
}

// Hide clears the display immediately.
func (d *EmotionDisplay) Hide() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	visible := d.current != nil
	d.current = nil
	d.mu.Unlock()

	if visible {
		d.bus.Emit(bus.EmotionHidden, nil)
	}
}

// Current returns the visible annotation, or nil.
func (d *EmotionDisplay) Current() *domain.Emotion {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil
	}
	e := *d.current
	return &e
}
