package streak

import "errors"

var (
	ErrEmptyTitle   = errors.New("list title cannot be empty")
	ErrEmptyText    = errors.New("task text cannot be empty")
	ErrListNotFound = errors.New("list not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Task is a single checkable item owned by a List.
type Task struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
	Done bool   `yaml:"done"`
}

// Snapshot is the streak/last-completed pair captured right before a same-day
// increment so that the increment can be undone exactly.
type Snapshot struct {
	Streak            int    `yaml:"streak"`
	LastCompletedDate string `yaml:"last_completed_date,omitempty"`
}

// List is a task list with its own daily streak. An empty LastCompletedDate
// means the list has never been completed.
type List struct {
	ID                string `yaml:"id"`
	Title             string `yaml:"title"`
	Streak            int    `yaml:"streak"`
	LastCompletedDate string `yaml:"last_completed_date,omitempty"`
	CompletedToday    bool   `yaml:"completed_today"`
	Tasks             []Task `yaml:"tasks"`

	// BeforeToday is local-only undo state, never sent to the record store.
	BeforeToday *Snapshot `yaml:"before_today,omitempty"`
}

// CompletedOn reports whether the list counts as completed for day.
func (l *List) CompletedOn(day string) bool {
	return l.CompletedToday && l.LastCompletedDate == day
}

// AllTasksDone is true for a non-empty list whose tasks are all checked.
func (l *List) AllTasksDone() bool {
	if len(l.Tasks) == 0 {
		return false
	}
	for _, t := range l.Tasks {
		if !t.Done {
			return false
		}
	}
	return true
}

func (l *List) task(id string) *Task {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return &l.Tasks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	c := l
	if l.Tasks != nil {
		c.Tasks = make([]Task, len(l.Tasks))
		copy(c.Tasks, l.Tasks)
	}
	if l.BeforeToday != nil {
		snap := *l.BeforeToday
		c.BeforeToday = &snap
	}
	return c
}

// Overall is the per-user aggregate streak, advanced only on days where every
// list was completed.
type Overall struct {
	Streak            int    `yaml:"streak"`
	LastCompletedDate string `yaml:"last_completed_date,omitempty"`
	CompletedToday    bool   `yaml:"completed_today"`
}

// CompletedOn reports whether the aggregate counts as completed for day.
func (o Overall) CompletedOn(day string) bool {
	return o.CompletedToday && o.LastCompletedDate == day
}

// AppState is the full client-visible snapshot. Values handed out by the
// transition methods are never modified afterwards; every transition works on
// a deep copy.
type AppState struct {
	DayKey  string  `yaml:"day_key"`
	Overall Overall `yaml:"overall"`
	Lists   []List  `yaml:"lists"`

	OverallBeforeToday *Snapshot `yaml:"overall_before_today,omitempty"`
	// OverallDirty marks an Overall that differs from the last successful write.
	OverallDirty bool `yaml:"overall_dirty"`

	// Version increases on every transition; OverallVersion records the
	// Version at which Overall last changed.
	Version        uint64 `yaml:"version"`
	OverallVersion uint64 `yaml:"overall_version"`

	// Unsynced maps a stored list id to the Version of its latest change the
	// record store has not confirmed.
	Unsynced map[string]uint64 `yaml:"unsynced,omitempty"`
}

// NewAppState returns an empty state for day.
func NewAppState(day string) *AppState {
	return &AppState{DayKey: day, Lists: []List{}}
}

// Clone returns a deep copy of the state.
func (s *AppState) Clone() *AppState {
	c := *s
	c.Lists = make([]List, len(s.Lists))
	for i, l := range s.Lists {
		c.Lists[i] = l.Clone()
	}
	if s.OverallBeforeToday != nil {
		snap := *s.OverallBeforeToday
		c.OverallBeforeToday = &snap
	}
	if s.Unsynced != nil {
		c.Unsynced = make(map[string]uint64, len(s.Unsynced))
		for id, v := range s.Unsynced {
			c.Unsynced[id] = v
		}
	}
	return &c
}

// List returns a copy of the list with id.
func (s *AppState) List(id string) (List, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Lists[i].Clone(), true
	}
	return List{}, false
}

func (s *AppState) indexOf(id string) int {
	for i := range s.Lists {
		if s.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// AllListsCompletedToday reports whether there is at least one list and all of
// them are completed for day.
func AllListsCompletedToday(lists []List, day string) bool {
	if len(lists) == 0 {
		return false
	}
	for i := range lists {
		if !lists[i].CompletedOn(day) {
			return false
		}
	}
	return true
}
