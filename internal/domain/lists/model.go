package lists

import "time"

// Task is stored inline in its list document.
type Task struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
	Done bool   `json:"done" bson:"done"`
}

// List is the stored form of a task list. LastCompletedDate is nil when the
// list has never been completed.
type List struct {
	ID                string
	UserID            string
	Title             string
	Streak            int
	LastCompletedDate *string
	CompletedToday    bool
	Tasks             []Task
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Overall is the per-user aggregate streak record.
type Overall struct {
	UserID            string
	Streak            int
	LastCompletedDate *string
	CompletedToday    bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ListInput carries the client-owned fields of a list write.
type ListInput struct {
	Title             string
	Streak            int
	LastCompletedDate *string
	CompletedToday    bool
	Tasks             []Task
}

// OverallInput carries the client-owned fields of an overall write.
type OverallInput struct {
	Streak            int
	LastCompletedDate *string
	CompletedToday    bool
}
