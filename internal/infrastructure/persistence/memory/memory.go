// Package memory keeps users, lists and overall records in process. It backs
// the "memory" database driver and the HTTP tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds the data behind UserRepository and ListRepository. Ids are
// ObjectID hex strings, the same shape the mongo driver hands out.
type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	lists    map[string]lists.List
	order    []string
	overalls map[string]lists.Overall
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		lists:    make(map[string]lists.List),
		overalls: make(map[string]lists.Overall),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UserRepository is the user.Repository view of a Store.
type UserRepository struct{ *Store }

// ListRepository is the lists.Repository view of a Store.
type ListRepository struct{ *Store }

func (s *Store) Users() UserRepository { return UserRepository{s} }
func (s *Store) Lists() ListRepository { return ListRepository{s} }

var (
	_ user.Repository  = UserRepository{}
	_ lists.Repository = ListRepository{}
)

func cloneTasks(tasks []lists.Task) []lists.Task {
	out := make([]lists.Task, len(tasks))
	copy(out, tasks)
	return out
}

func cloneDate(d *string) *string {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneList(l lists.List) lists.List {
	l.Tasks = cloneTasks(l.Tasks)
	l.LastCompletedDate = cloneDate(l.LastCompletedDate)
	return l
}

func (s UserRepository) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (s UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s UserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.TokenVersion++
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s ListRepository) FindByUser(ctx context.Context, userID string) ([]lists.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []lists.List{}
	for _, id := range s.order {
		if l := s.lists[id]; l.UserID == userID {
			out = append(out, cloneList(l))
		}
	}
	return out, nil
}

func (s ListRepository) Create(ctx context.Context, list *lists.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list.ID = primitive.NewObjectID().Hex()
	list.CreatedAt = s.now()
	list.UpdatedAt = list.CreatedAt
	s.lists[list.ID] = cloneList(*list)
	s.order = append(s.order, list.ID)
	return nil
}

func (s ListRepository) UpdateForUser(ctx context.Context, userID, id string, input lists.ListInput) (*lists.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || l.UserID != userID {
		return nil, lists.ErrListNotFound
	}
	l.Title = input.Title
	l.Streak = input.Streak
	l.LastCompletedDate = cloneDate(input.LastCompletedDate)
	l.CompletedToday = input.CompletedToday
	l.Tasks = cloneTasks(input.Tasks)
	l.UpdatedAt = s.now()
	s.lists[id] = l
	out := cloneList(l)
	return &out, nil
}

func (s ListRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok || l.UserID != userID {
		return lists.ErrListNotFound
	}
	delete(s.lists, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s ListRepository) GetOverall(ctx context.Context, userID string) (*lists.Overall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overalls[userID]
	if !ok {
		now := s.now()
		o = lists.Overall{UserID: userID, CreatedAt: now, UpdatedAt: now}
		s.overalls[userID] = o
	}
	o.LastCompletedDate = cloneDate(o.LastCompletedDate)
	return &o, nil
}

func (s ListRepository) UpsertOverall(ctx context.Context, userID string, input lists.OverallInput) (*lists.Overall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	o, ok := s.overalls[userID]
	if !ok {
		o = lists.Overall{UserID: userID, CreatedAt: now}
	}
	o.Streak = input.Streak
	o.LastCompletedDate = cloneDate(input.LastCompletedDate)
	o.CompletedToday = input.CompletedToday
	o.UpdatedAt = now
	s.overalls[userID] = o
	out := o
	out.LastCompletedDate = cloneDate(o.LastCompletedDate)
	return &out, nil
}
