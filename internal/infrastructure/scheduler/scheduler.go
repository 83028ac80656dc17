package scheduler

import (
	"sync"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"go.uber.org/zap"
)

// MinDelay is the shortest wait ever scheduled, so a clock sitting right on the
// boundary cannot spin.
const MinDelay = time.Second

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests replace it.
type AfterFunc func(d time.Duration, f func()) Timer

func systemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DayTimer fires a callback at every IST midnight. At most one timer is live;
// each reschedule clears the previous one before arming the next.
type DayTimer struct {
	clock     daykey.Clock
	afterFunc AfterFunc
	onDay     func(today string)
	logger    *logger.Logger

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	running bool
}

// NewDayTimer creates a DayTimer. onDay receives the label of the day just
// entered and runs on the timer goroutine.
func NewDayTimer(clock daykey.Clock, onDay func(today string), logger *logger.Logger) *DayTimer {
	return &DayTimer{
		clock:     clock,
		afterFunc: systemAfterFunc,
		onDay:     onDay,
		logger:    logger,
	}
}

// WithAfterFunc swaps the timer factory.
func (d *DayTimer) WithAfterFunc(f AfterFunc) *DayTimer {
	d.afterFunc = f
	return d
}

// Start arms the timer for the next boundary. Calling it again reschedules.
func (d *DayTimer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	d.scheduleLocked()
}

// Stop clears the pending timer. A callback already running finishes but
// does not reschedule.
func (d *DayTimer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.clearLocked()
}

func (d *DayTimer) clearLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *DayTimer) scheduleLocked() {
	d.clearLocked()

	now := d.clock.Now()
	next := daykey.NextMidnight(now)
	delay := next.Sub(now)
	if delay < MinDelay {
		delay = MinDelay
	}

	gen := d.gen
	d.timer = d.afterFunc(delay, func() { d.fire(gen) })

	d.logger.Debug("Day boundary timer armed",
		zap.Time("current_time", now),
		zap.Time("next_run", next),
		zap.Duration("time_until_next_run", delay),
	)
}

func (d *DayTimer) fire(gen uint64) {
	d.mu.Lock()
	if !d.running || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	today := daykey.Today(d.clock.Now())
	startTime := time.Now()
	d.logger.Info("Starting day rollover", zap.String("day", today))
	d.onDay(today)
	d.logger.Info("Completed day rollover",
		zap.String("day", today),
		zap.Duration("duration", time.Since(startTime)),
	)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running && gen == d.gen {
		d.scheduleLocked()
	}
}
