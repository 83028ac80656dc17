package dto

import (
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
)

type TaskDTO struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text" validate:"required,not_empty"`
	Done bool   `json:"done"`
}

// ListRequest is the client-owned body of POST /lists and PUT /lists/:id.
type ListRequest struct {
	Title             string    `json:"title" validate:"required,not_empty,max=200"`
	Streak            int       `json:"streak" validate:"min=0"`
	LastCompletedDate *string   `json:"lastCompletedDate" validate:"omitempty,daykey"`
	CompletedToday    bool      `json:"completedToday"`
	Tasks             []TaskDTO `json:"tasks" validate:"omitempty,dive"`
}

type ListResponse struct {
	ID                string    `json:"_id"`
	UserID            string    `json:"userId"`
	Title             string    `json:"title"`
	Streak            int       `json:"streak"`
	LastCompletedDate *string   `json:"lastCompletedDate"`
	CompletedToday    bool      `json:"completedToday"`
	Tasks             []TaskDTO `json:"tasks"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type OverallRequest struct {
	Streak            int     `json:"streak" validate:"min=0"`
	LastCompletedDate *string `json:"lastCompletedDate" validate:"omitempty,daykey"`
	CompletedToday    bool    `json:"completedToday"`
}

type OverallResponse struct {
	UserID            string    `json:"userId"`
	Streak            int       `json:"streak"`
	LastCompletedDate *string   `json:"lastCompletedDate"`
	CompletedToday    bool      `json:"completedToday"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (r ListRequest) ToInput() lists.ListInput {
	tasks := make([]lists.Task, len(r.Tasks))
	for i, t := range r.Tasks {
		tasks[i] = lists.Task{ID: t.ID, Text: t.Text, Done: t.Done}
	}
	return lists.ListInput{
		Title:             r.Title,
		Streak:            r.Streak,
		LastCompletedDate: r.LastCompletedDate,
		CompletedToday:    r.CompletedToday,
		Tasks:             tasks,
	}
}

func (r OverallRequest) ToInput() lists.OverallInput {
	return lists.OverallInput{
		Streak:            r.Streak,
		LastCompletedDate: r.LastCompletedDate,
		CompletedToday:    r.CompletedToday,
	}
}

func ListToResponse(l *lists.List) ListResponse {
	tasks := make([]TaskDTO, len(l.Tasks))
	for i, t := range l.Tasks {
		tasks[i] = TaskDTO{ID: t.ID, Text: t.Text, Done: t.Done}
	}
	return ListResponse{
		ID:                l.ID,
		UserID:            l.UserID,
		Title:             l.Title,
		Streak:            l.Streak,
		LastCompletedDate: l.LastCompletedDate,
		CompletedToday:    l.CompletedToday,
		Tasks:             tasks,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ListsToResponse(ls []lists.List) []ListResponse {
	out := make([]ListResponse, len(ls))
	for i := range ls {
		out[i] = ListToResponse(&ls[i])
	}
	return out
}

func OverallToResponse(o *lists.Overall) OverallResponse {
	return OverallResponse{
		UserID:            o.UserID,
		Streak:            o.Streak,
		LastCompletedDate: o.LastCompletedDate,
		CompletedToday:    o.CompletedToday,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}
