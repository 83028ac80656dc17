package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	today     = "2024-01-10"
	yesterday = "2024-01-09"
)

func listWithTasks(done ...bool) List {
	l := List{ID: "507f1f77bcf86cd799439011", Title: "Morning"}
	for i, d := range done {
		l.Tasks = append(l.Tasks, Task{ID: string(rune('a' + i)), Text: "task", Done: d})
	}
	return l
}

func TestRecomputeListIncrement(t *testing.T) {
	tests := []struct {
		name           string
		streak         int
		lastCompleted  string
		expectedStreak int
	}{
		{name: "carries from yesterday", streak: 4, lastCompleted: yesterday, expectedStreak: 5},
		{name: "never completed starts at one", streak: 0, lastCompleted: "", expectedStreak: 1},
		{name: "gap resets to one", streak: 7, lastCompleted: "2024-01-07", expectedStreak: 1},
		{name: "malformed label does not carry", streak: 3, lastCompleted: "garbage", expectedStreak: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := listWithTasks(true, false)
			l.Streak = tt.streak
			l.LastCompletedDate = tt.lastCompleted
			wasCompleted := l.CompletedOn(today)

			l.Tasks[1].Done = true
			RecomputeList(&l, today, wasCompleted)

			assert.Equal(t, tt.expectedStreak, l.Streak)
			assert.Equal(t, today, l.LastCompletedDate)
			assert.True(t, l.CompletedToday)
			if assert.NotNil(t, l.BeforeToday) {
				assert.Equal(t, Snapshot{Streak: tt.streak, LastCompletedDate: tt.lastCompleted}, *l.BeforeToday)
			}
		})
	}
}

func TestRecomputeListToggleIsInverse(t *testing.T) {
	for _, last := range []string{"", yesterday, "2023-11-02"} {
		t.Run("last="+last, func(t *testing.T) {
			l := listWithTasks(true, true, false)
			l.Streak = 3
			l.LastCompletedDate = last

			l.Tasks[2].Done = true
			RecomputeList(&l, today, false)
			assert.True(t, l.CompletedToday)

			l.Tasks[2].Done = false
			RecomputeList(&l, today, true)

			assert.Equal(t, 3, l.Streak)
			assert.Equal(t, last, l.LastCompletedDate)
			assert.False(t, l.CompletedToday)
			assert.Nil(t, l.BeforeToday)
		})
	}
}

func TestRecomputeListRollbackWithoutSnapshot(t *testing.T) {
	l := listWithTasks(false)
	l.Streak = 9
	l.LastCompletedDate = today
	l.CompletedToday = true

	RecomputeList(&l, today, true)

	assert.Equal(t, 0, l.Streak)
	assert.Empty(t, l.LastCompletedDate)
	assert.False(t, l.CompletedToday)
}

func TestRecomputeListRollbackOnStaleDate(t *testing.T) {
	l := listWithTasks(false)
	l.Streak = 2
	l.LastCompletedDate = yesterday
	l.CompletedToday = true

	RecomputeList(&l, today, true)

	assert.Equal(t, 2, l.Streak)
	assert.Equal(t, yesterday, l.LastCompletedDate)
	assert.False(t, l.CompletedToday)
}

func TestRecomputeListNoTransition(t *testing.T) {
	l := listWithTasks(false, false)
	l.Streak = 2
	l.LastCompletedDate = yesterday

	l.Tasks[0].Done = true
	RecomputeList(&l, today, false)

	assert.Equal(t, 2, l.Streak)
	assert.Equal(t, yesterday, l.LastCompletedDate)
	assert.False(t, l.CompletedToday)
	assert.Nil(t, l.BeforeToday)
}

func TestRecomputeListEmptyIsNeverComplete(t *testing.T) {
	l := List{ID: "x"}
	RecomputeList(&l, today, false)
	assert.False(t, l.CompletedToday)
	assert.Equal(t, 0, l.Streak)
}

func TestApplyOverallTransition(t *testing.T) {
	tests := []struct {
		name        string
		start       Overall
		prev, now   bool
		expected    Overall
		changed     bool
		expectDirty bool
	}{
		{
			name:        "increment carries",
			start:       Overall{Streak: 2, LastCompletedDate: yesterday},
			now:         true,
			expected:    Overall{Streak: 3, LastCompletedDate: today, CompletedToday: true},
			changed:     true,
			expectDirty: true,
		},
		{
			name:        "increment resets after gap",
			start:       Overall{Streak: 2, LastCompletedDate: "2024-01-01"},
			now:         true,
			expected:    Overall{Streak: 1, LastCompletedDate: today, CompletedToday: true},
			changed:     true,
			expectDirty: true,
		},
		{
			name:        "decrement backdates",
			start:       Overall{Streak: 3, LastCompletedDate: today, CompletedToday: true},
			prev:        true,
			expected:    Overall{Streak: 2, LastCompletedDate: yesterday},
			changed:     true,
			expectDirty: true,
		},
		{
			name:        "decrement to zero clears date",
			start:       Overall{Streak: 1, LastCompletedDate: today, CompletedToday: true},
			prev:        true,
			expected:    Overall{},
			changed:     true,
			expectDirty: true,
		},
		{
			name:        "decrement clamps at zero",
			start:       Overall{Streak: 0, LastCompletedDate: today, CompletedToday: true},
			prev:        true,
			expected:    Overall{},
			changed:     true,
			expectDirty: true,
		},
		{
			name:     "steady state",
			start:    Overall{Streak: 4, LastCompletedDate: yesterday},
			expected: Overall{Streak: 4, LastCompletedDate: yesterday},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAppState(today)
			s.Overall = tt.start

			changed := ApplyOverallTransition(s, tt.prev, tt.now)

			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.expected, s.Overall)
			assert.Equal(t, tt.expectDirty, s.OverallDirty)
		})
	}
}

func TestOverallDecrementThenRecompleteRestoresStreak(t *testing.T) {
	s := NewAppState(today)
	s.Overall = Overall{Streak: 4, LastCompletedDate: yesterday}

	ApplyOverallTransition(s, false, true)
	assert.Equal(t, 5, s.Overall.Streak)

	ApplyOverallTransition(s, true, false)
	assert.Equal(t, 4, s.Overall.Streak)
	assert.Equal(t, yesterday, s.Overall.LastCompletedDate)

	ApplyOverallTransition(s, false, true)
	assert.Equal(t, 5, s.Overall.Streak)
	assert.Equal(t, today, s.Overall.LastCompletedDate)
}

func TestRolloverList(t *testing.T) {
	tests := []struct {
		name           string
		list           List
		expectedStreak int
	}{
		{
			name: "completed on the old day keeps streak",
			list: List{
				Streak: 3, LastCompletedDate: yesterday, CompletedToday: true,
				Tasks:       []Task{{ID: "a", Done: true}},
				BeforeToday: &Snapshot{Streak: 2},
			},
			expectedStreak: 3,
		},
		{
			name: "not completed resets",
			list: List{
				Streak: 5, LastCompletedDate: "2024-01-08",
				Tasks: []Task{{ID: "a", Done: true}, {ID: "b"}},
			},
			expectedStreak: 0,
		},
		{
			name: "stale completed flag resets",
			list: List{
				Streak: 5, LastCompletedDate: "2024-01-08", CompletedToday: true,
				Tasks: []Task{{ID: "a", Done: true}},
			},
			expectedStreak: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.list.Clone()
			lastCompleted := l.LastCompletedDate

			RolloverList(&l, yesterday)

			assert.Equal(t, tt.expectedStreak, l.Streak)
			assert.Equal(t, lastCompleted, l.LastCompletedDate)
			assert.False(t, l.CompletedToday)
			assert.Nil(t, l.BeforeToday)
			for _, task := range l.Tasks {
				assert.False(t, task.Done)
			}
		})
	}
}

func TestRolloverOverall(t *testing.T) {
	s := NewAppState(yesterday)
	s.Overall = Overall{Streak: 2, LastCompletedDate: yesterday, CompletedToday: true}
	s.OverallBeforeToday = &Snapshot{Streak: 1}

	assert.True(t, RolloverOverall(s, yesterday))
	assert.Equal(t, Overall{Streak: 2, LastCompletedDate: yesterday}, s.Overall)
	assert.Nil(t, s.OverallBeforeToday)

	s.Overall = Overall{Streak: 6, LastCompletedDate: "2024-01-08"}
	assert.True(t, RolloverOverall(s, yesterday))
	assert.Equal(t, Overall{LastCompletedDate: "2024-01-08"}, s.Overall)
}
