package client

import (
	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/google/uuid"
)

func dateFromWire(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func dateToWire(d string) *string {
	if d == "" {
		return nil
	}
	return &d
}

// FromServer maps a stored list document into the engine's List. Tasks the
// server holds without an id get a fresh one.
func FromServer(doc dto.ListResponse) streak.List {
	tasks := make([]streak.Task, len(doc.Tasks))
	for i, t := range doc.Tasks {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		tasks[i] = streak.Task{ID: id, Text: t.Text, Done: t.Done}
	}
	return streak.List{
		ID:                doc.ID,
		Title:             doc.Title,
		Streak:            doc.Streak,
		LastCompletedDate: dateFromWire(doc.LastCompletedDate),
		CompletedToday:    doc.CompletedToday,
		Tasks:             tasks,
	}
}

// ToServer keeps only the fields the record store owns; undo state stays local.
func ToServer(l streak.List) dto.ListRequest {
	tasks := make([]dto.TaskDTO, len(l.Tasks))
	for i, t := range l.Tasks {
		tasks[i] = dto.TaskDTO{ID: t.ID, Text: t.Text, Done: t.Done}
	}
	return dto.ListRequest{
		Title:             l.Title,
		Streak:            l.Streak,
		LastCompletedDate: dateToWire(l.LastCompletedDate),
		CompletedToday:    l.CompletedToday,
		Tasks:             tasks,
	}
}

func OverallFromServer(doc dto.OverallResponse) streak.Overall {
	return streak.Overall{
		Streak:            doc.Streak,
		LastCompletedDate: dateFromWire(doc.LastCompletedDate),
		CompletedToday:    doc.CompletedToday,
	}
}

func OverallToServer(o streak.Overall) dto.OverallRequest {
	return dto.OverallRequest{
		Streak:            o.Streak,
		LastCompletedDate: dateToWire(o.LastCompletedDate),
		CompletedToday:    o.CompletedToday,
	}
}
