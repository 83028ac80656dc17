// Package streak holds the streak state machine for task lists and the
// aggregate "all lists done" streak.
//
// Everything here is pure: functions operate on values they were handed and
// never touch storage, clocks or the network.
package streak

import "github.com/ahmedelhadi17776/streaky/pkg/daykey"

// carries reports whether a streak last completed on last continues into today.
func carries(last, today string) bool {
	if last == "" {
		return false
	}
	yest, err := daykey.Yesterday(today)
	if err != nil {
		return false
	}
	return last == yest
}

// incrementList marks l completed for today, snapshotting the previous
// streak/last-completed pair for a same-day undo.
func incrementList(l *List, today string) {
	l.BeforeToday = &Snapshot{Streak: l.Streak, LastCompletedDate: l.LastCompletedDate}
	if carries(l.LastCompletedDate, today) {
		l.Streak++
	} else {
		l.Streak = 1
	}
	l.LastCompletedDate = today
	l.CompletedToday = true
}

// rollbackList undoes a same-day increment by restoring the snapshot.
func rollbackList(l *List, today string) {
	if l.LastCompletedDate != today {
		l.CompletedToday = false
		return
	}
	prev := Snapshot{}
	if l.BeforeToday != nil {
		prev = *l.BeforeToday
	}
	l.Streak = prev.Streak
	l.LastCompletedDate = prev.LastCompletedDate
	l.CompletedToday = false
	l.BeforeToday = nil
}

// RecomputeList applies the task-driven transition after any task change.
// wasCompleted must be captured before the task change.
func RecomputeList(l *List, today string, wasCompleted bool) {
	nowCompleted := l.AllTasksDone()
	switch {
	case nowCompleted && !wasCompleted:
		incrementList(l, today)
	case !nowCompleted && wasCompleted:
		rollbackList(l, today)
	default:
		l.CompletedToday = nowCompleted
	}
}

// ApplyOverallTransition moves the aggregate streak when the "all lists done"
// condition flips. It reports whether Overall changed.
//
// Losing "all done" decrements and backdates instead of restoring a snapshot:
// re-completing the same day then carries from yesterday and lands on the
// pre-decrement value whenever that value was above one.
func ApplyOverallTransition(s *AppState, prevAllDone, nowAllDone bool) bool {
	today := s.DayKey
	switch {
	case !prevAllDone && nowAllDone:
		s.OverallBeforeToday = &Snapshot{
			Streak:            s.Overall.Streak,
			LastCompletedDate: s.Overall.LastCompletedDate,
		}
		if carries(s.Overall.LastCompletedDate, today) {
			s.Overall.Streak++
		} else {
			s.Overall.Streak = 1
		}
		s.Overall.CompletedToday = true
		s.Overall.LastCompletedDate = today
		s.OverallDirty = true
		return true
	case prevAllDone && !nowAllDone:
		s.Overall.Streak--
		if s.Overall.Streak < 0 {
			s.Overall.Streak = 0
		}
		if s.Overall.Streak > 0 {
			s.Overall.LastCompletedDate, _ = daykey.Yesterday(today)
		} else {
			s.Overall.LastCompletedDate = ""
		}
		s.Overall.CompletedToday = false
		s.OverallBeforeToday = nil
		s.OverallDirty = true
		return true
	}
	return false
}

// RolloverList closes oldDay for one list: continuity breaks unless the list
// was completed on oldDay, and every task is unchecked for the new day.
// LastCompletedDate is kept as evidence for the next carry check.
func RolloverList(l *List, oldDay string) {
	if !l.CompletedOn(oldDay) {
		l.Streak = 0
	}
	l.CompletedToday = false
	for i := range l.Tasks {
		l.Tasks[i].Done = false
	}
	l.BeforeToday = nil
}

// RolloverOverall closes oldDay for the aggregate. It reports whether the
// persisted fields changed.
func RolloverOverall(s *AppState, oldDay string) bool {
	before := s.Overall
	if !s.Overall.CompletedOn(oldDay) {
		s.Overall.Streak = 0
	}
	s.Overall.CompletedToday = false
	s.OverallBeforeToday = nil
	return s.Overall != before
}
