// Package daykey converts instants to calendar day labels in India Standard Time.
//
// The offset is fixed at UTC+05:30 with no daylight-saving adjustment. Labels are
// compared with plain string equality, so the YYYY-MM-DD layout must never change.
package daykey

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Layout is the wire format of a day label.
const Layout = "2006-01-02"

// Offset is the fixed distance of IST from UTC.
const Offset = 5*time.Hour + 30*time.Minute

// IST is the zone every label is computed in.
var IST = time.FixedZone("IST", int(Offset/time.Second))

var ErrInvalidLabel = errors.New("daykey: invalid day label")

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when Set or Advance is called.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Today returns the label of the IST calendar day containing now.
func Today(now time.Time) string {
	return now.In(IST).Format(Layout)
}

// Parse returns the IST midnight that starts the labelled day.
func Parse(label string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, label, IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return t, nil
}

// Valid reports whether label is a well-formed day label.
func Valid(label string) bool {
	_, err := Parse(label)
	return err == nil
}

// Yesterday returns the label of the day immediately before label.
func Yesterday(label string) (string, error) {
	return shift(label, -1)
}

func shift(label string, days int) (string, error) {
	t, err := Parse(label)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(Layout), nil
}

// NextMidnight returns the first IST 00:00 strictly after now.
func NextMidnight(now time.Time) time.Time {
	ist := now.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day()+1, 0, 0, 0, 0, IST)
}
