package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeTimers struct {
	mu    sync.Mutex
	armed []*fakeTimer
}

func (f *fakeTimers) afterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	f.armed = append(f.armed, t)
	return t
}

func (f *fakeTimers) live() []*fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeTimer
	for _, t := range f.armed {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeTimers) last() *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.armed[len(f.armed)-1]
}

func newTestTimer(now time.Time) (*DayTimer, *daykey.ManualClock, *fakeTimers, *[]string) {
	clock := daykey.NewManualClock(now)
	timers := &fakeTimers{}
	var fired []string
	d := NewDayTimer(clock, func(today string) { fired = append(fired, today) }, logger.NewNop()).
		WithAfterFunc(timers.afterFunc)
	return d, clock, timers, &fired
}

func TestDayTimerArmsUntilNextMidnight(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // 17:30 IST
	d, _, timers, _ := newTestTimer(now)

	d.Start()

	require.Len(t, timers.live(), 1)
	assert.Equal(t, 6*time.Hour+30*time.Minute, timers.last().delay)
}

func TestDayTimerFiresAndReschedules(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	d, clock, timers, fired := newTestTimer(now)
	d.Start()

	clock.Set(time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC))
	timers.last().fn()

	assert.Equal(t, []string{"2024-01-11"}, *fired)
	require.Len(t, timers.armed, 2)
	assert.Equal(t, 24*time.Hour, timers.last().delay)
}

func TestDayTimerRestartKeepsOneTimer(t *testing.T) {
	d, _, timers, _ := newTestTimer(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	d.Start()
	d.Start()
	d.Start()

	assert.Len(t, timers.armed, 3)
	assert.Len(t, timers.live(), 1)
}

func TestDayTimerSupersededCallbackIsIgnored(t *testing.T) {
	d, _, timers, fired := newTestTimer(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	d.Start()
	stale := timers.last()
	d.Start()

	stale.fn()

	assert.Empty(t, *fired)
	assert.Len(t, timers.armed, 2)
}

func TestDayTimerStop(t *testing.T) {
	d, _, timers, fired := newTestTimer(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	d.Start()
	pending := timers.last()

	d.Stop()
	pending.fn()

	assert.Empty(t, timers.live())
	assert.Empty(t, *fired)
}

func TestDayTimerMinimumDelay(t *testing.T) {
	// 100ms before IST midnight
	d, _, timers, _ := newTestTimer(time.Date(2024, 1, 10, 18, 29, 59, 900_000_000, time.UTC))

	d.Start()

	assert.Equal(t, MinDelay, timers.last().delay)
}
