package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var recordWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "streaky_record_writes_total",
		Help: "Writes to list and overall records by outcome",
	},
	[]string{"record", "op", "result"},
)

type Service interface {
	ListLists(ctx context.Context, userID string) ([]List, error)
	CreateList(ctx context.Context, userID string, input ListInput) (*List, error)
	UpdateList(ctx context.Context, userID, id string, input ListInput) (*List, error)
	DeleteList(ctx context.Context, userID, id string) error
	GetOverall(ctx context.Context, userID string) (*Overall, error)
	PutOverall(ctx context.Context, userID string, input OverallInput) (*Overall, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func observe(record, op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrListNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidInput):
		result = "invalid"
	case err != nil:
		result = "error"
	}
	recordWrites.WithLabelValues(record, op, result).Inc()
}

func validDate(d *string) bool {
	return d == nil || daykey.Valid(*d)
}

// normalize trims and checks a list write, filling in missing task ids.
func normalize(input ListInput) (ListInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return input, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if input.Streak < 0 {
		return input, fmt.Errorf("%w: streak cannot be negative", ErrInvalidInput)
	}
	if !validDate(input.LastCompletedDate) {
		return input, fmt.Errorf("%w: lastCompletedDate must be YYYY-MM-DD", ErrInvalidInput)
	}
	tasks := make([]Task, len(input.Tasks))
	for i, t := range input.Tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		tasks[i] = t
	}
	input.Tasks = tasks
	return input, nil
}

func (s *service) ListLists(ctx context.Context, userID string) ([]List, error) {
	lists, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return lists, nil
}

func (s *service) CreateList(ctx context.Context, userID string, input ListInput) (list *List, err error) {
	defer func() { observe("list", "create", err) }()

	input, err = normalize(input)
	if err != nil {
		return nil, err
	}
	list = &List{
		UserID:            userID,
		Title:             input.Title,
		Streak:            input.Streak,
		LastCompletedDate: input.LastCompletedDate,
		CompletedToday:    input.CompletedToday,
		Tasks:             input.Tasks,
	}
	if err = s.repo.Create(ctx, list); err != nil {
		s.logger.Error("Failed to create list", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	return list, nil
}

func (s *service) UpdateList(ctx context.Context, userID, id string, input ListInput) (list *List, err error) {
	defer func() { observe("list", "update", err) }()

	input, err = normalize(input)
	if err != nil {
		return nil, err
	}
	list, err = s.repo.UpdateForUser(ctx, userID, id, input)
	if err != nil {
		if !errors.Is(err, ErrListNotFound) {
			s.logger.Error("Failed to update list", zap.String("list_id", id), zap.Error(err))
		}
		return nil, err
	}
	return list, nil
}

func (s *service) DeleteList(ctx context.Context, userID, id string) (err error) {
	defer func() { observe("list", "delete", err) }()

	if err = s.repo.DeleteForUser(ctx, userID, id); err != nil {
		if !errors.Is(err, ErrListNotFound) {
			s.logger.Error("Failed to delete list", zap.String("list_id", id), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *service) GetOverall(ctx context.Context, userID string) (*Overall, error) {
	overall, err := s.repo.GetOverall(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overall: %w", err)
	}
	return overall, nil
}

func (s *service) PutOverall(ctx context.Context, userID string, input OverallInput) (overall *Overall, err error) {
	defer func() { observe("overall", "put", err) }()

	if input.Streak < 0 {
		return nil, fmt.Errorf("%w: streak cannot be negative", ErrInvalidInput)
	}
	if !validDate(input.LastCompletedDate) {
		return nil, fmt.Errorf("%w: lastCompletedDate must be YYYY-MM-DD", ErrInvalidInput)
	}
	overall, err = s.repo.UpsertOverall(ctx, userID, input)
	if err != nil {
		s.logger.Error("Failed to store overall", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to store overall: %w", err)
	}
	return overall, nil
}
