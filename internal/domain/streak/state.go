package streak

import "strings"

// IntentKind names the record-store write a transition asks for.
type IntentKind int

const (
	IntentCreateList IntentKind = iota
	IntentUpdateList
	IntentDeleteList
)

func (k IntentKind) String() string {
	switch k {
	case IntentCreateList:
		return "create_list"
	case IntentUpdateList:
		return "update_list"
	case IntentDeleteList:
		return "delete_list"
	}
	return "unknown"
}

// Intent is a pending write produced by a transition. List holds the list as
// it was right after the transition.
type Intent struct {
	Kind   IntentKind
	ListID string
	List   List
}

func updateIntent(l *List) Intent {
	return Intent{Kind: IntentUpdateList, ListID: l.ID, List: l.Clone()}
}

// change runs fn against a copy of s, applies the aggregate transition around
// it and stamps the version counters. s itself is left untouched.
func (s *AppState) change(fn func(next *AppState) ([]Intent, error)) (*AppState, []Intent, error) {
	next := s.Clone()
	prevAllDone := AllListsCompletedToday(next.Lists, next.DayKey)

	intents, err := fn(next)
	if err != nil {
		return s, nil, err
	}

	next.Version++
	nowAllDone := AllListsCompletedToday(next.Lists, next.DayKey)
	if ApplyOverallTransition(next, prevAllDone, nowAllDone) {
		next.OverallVersion = next.Version
	}
	return next, intents, nil
}

// editTasks is the shared path for every task-level change on one list.
func (s *AppState) editTasks(listID string, fn func(l *List) error) (*AppState, []Intent, error) {
	return s.change(func(next *AppState) ([]Intent, error) {
		i := next.indexOf(listID)
		if i < 0 {
			return nil, ErrListNotFound
		}
		l := &next.Lists[i]
		wasCompleted := l.CompletedOn(next.DayKey)
		if err := fn(l); err != nil {
			return nil, err
		}
		RecomputeList(l, next.DayKey, wasCompleted)
		return []Intent{updateIntent(l)}, nil
	})
}

// AddList appends an empty list under a locally generated id.
func (s *AppState) AddList(id, title string) (*AppState, []Intent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s, nil, ErrEmptyTitle
	}
	return s.change(func(next *AppState) ([]Intent, error) {
		l := List{ID: id, Title: title, Tasks: []Task{}}
		next.Lists = append(next.Lists, l)
		return []Intent{{Kind: IntentCreateList, ListID: id, List: l.Clone()}}, nil
	})
}

// RenameList changes a list title. Streaks are unaffected.
func (s *AppState) RenameList(id, title string) (*AppState, []Intent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s, nil, ErrEmptyTitle
	}
	return s.change(func(next *AppState) ([]Intent, error) {
		i := next.indexOf(id)
		if i < 0 {
			return nil, ErrListNotFound
		}
		next.Lists[i].Title = title
		return []Intent{updateIntent(&next.Lists[i])}, nil
	})
}

// DeleteList removes a list. Removing the only incomplete list can complete
// the aggregate for the day.
func (s *AppState) DeleteList(id string) (*AppState, []Intent, error) {
	return s.change(func(next *AppState) ([]Intent, error) {
		i := next.indexOf(id)
		if i < 0 {
			return nil, ErrListNotFound
		}
		next.Lists = append(next.Lists[:i], next.Lists[i+1:]...)
		delete(next.Unsynced, id)
		return []Intent{{Kind: IntentDeleteList, ListID: id}}, nil
	})
}

// AddTask appends an unchecked task; a list completed today is rolled back.
func (s *AppState) AddTask(listID, taskID, text string) (*AppState, []Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s, nil, ErrEmptyText
	}
	return s.editTasks(listID, func(l *List) error {
		l.Tasks = append(l.Tasks, Task{ID: taskID, Text: text})
		return nil
	})
}

// ToggleTask sets the done flag of one task.
func (s *AppState) ToggleTask(listID, taskID string, done bool) (*AppState, []Intent, error) {
	return s.editTasks(listID, func(l *List) error {
		t := l.task(taskID)
		if t == nil {
			return ErrTaskNotFound
		}
		t.Done = done
		return nil
	})
}

// DeleteTask removes one task. Deleting the last unchecked task completes the list.
func (s *AppState) DeleteTask(listID, taskID string) (*AppState, []Intent, error) {
	return s.editTasks(listID, func(l *List) error {
		for i := range l.Tasks {
			if l.Tasks[i].ID == taskID {
				l.Tasks = append(l.Tasks[:i], l.Tasks[i+1:]...)
				return nil
			}
		}
		return ErrTaskNotFound
	})
}

// ReplaceListID swaps a temporary id for the one assigned by the record store,
// leaving every other field as the latest state has it.
func (s *AppState) ReplaceListID(tempID, id string) (*AppState, bool) {
	i := s.indexOf(tempID)
	if i < 0 {
		return s, false
	}
	next := s.Clone()
	next.Lists[i].ID = id
	next.Version++
	return next, true
}

// MarkUnsynced records that the lists in ids changed at the current Version
// and still have to reach the record store.
func (s *AppState) MarkUnsynced(ids ...string) *AppState {
	if len(ids) == 0 {
		return s
	}
	next := s.Clone()
	if next.Unsynced == nil {
		next.Unsynced = make(map[string]uint64, len(ids))
	}
	for _, id := range ids {
		next.Unsynced[id] = next.Version
	}
	return next
}

// MarkSynced clears the marker for id if a write taken at version covered its
// latest change.
func (s *AppState) MarkSynced(id string, version uint64) (*AppState, bool) {
	v, ok := s.Unsynced[id]
	if !ok || v > version {
		return s, false
	}
	next := s.Clone()
	delete(next.Unsynced, id)
	if len(next.Unsynced) == 0 {
		next.Unsynced = nil
	}
	return next, true
}

// MarkOverallPersisted clears the dirty flag if the write covered the latest
// Overall change.
func (s *AppState) MarkOverallPersisted(version uint64) (*AppState, bool) {
	if !s.OverallDirty || s.OverallVersion != version {
		return s, false
	}
	next := s.Clone()
	next.OverallDirty = false
	return next, true
}

// Rollover moves the state to today. It is a no-op when the state is already
// on today, so firing it more than once per boundary is harmless.
func (s *AppState) Rollover(today string) (*AppState, []Intent) {
	if s.DayKey == today {
		return s, nil
	}
	next := s.Clone()
	oldDay := next.DayKey
	intents := make([]Intent, 0, len(next.Lists))
	for i := range next.Lists {
		RolloverList(&next.Lists[i], oldDay)
		intents = append(intents, updateIntent(&next.Lists[i]))
	}
	next.Version++
	if RolloverOverall(next, oldDay) {
		next.OverallDirty = true
		next.OverallVersion = next.Version
	}
	next.DayKey = today
	return next, intents
}
