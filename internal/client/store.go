package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
)

// Store is the record store as the reconciler sees it. The caller is implied
// by the session credential.
type Store interface {
	GetLists(ctx context.Context) ([]streak.List, error)
	CreateList(ctx context.Context, l streak.List) (streak.List, error)
	UpdateList(ctx context.Context, id string, l streak.List) (streak.List, error)
	DeleteList(ctx context.Context, id string) error
	GetOverall(ctx context.Context) (streak.Overall, error)
	PutOverall(ctx context.Context, o streak.Overall) (streak.Overall, error)
}

// HTTPStore implements Store against the streaky API.
type HTTPStore struct {
	session *Session
}

func NewHTTPStore(session *Session) *HTTPStore {
	return &HTTPStore{session: session}
}

var _ Store = (*HTTPStore)(nil)

func (s *HTTPStore) GetLists(ctx context.Context) ([]streak.List, error) {
	var docs []dto.ListResponse
	if err := s.session.Do(ctx, http.MethodGet, "/lists", nil, &docs); err != nil {
		return nil, err
	}
	out := make([]streak.List, len(docs))
	for i, d := range docs {
		out[i] = FromServer(d)
	}
	return out, nil
}

func (s *HTTPStore) CreateList(ctx context.Context, l streak.List) (streak.List, error) {
	var doc dto.ListResponse
	if err := s.session.Do(ctx, http.MethodPost, "/lists", ToServer(l), &doc); err != nil {
		return streak.List{}, err
	}
	return FromServer(doc), nil
}

func (s *HTTPStore) UpdateList(ctx context.Context, id string, l streak.List) (streak.List, error) {
	var doc dto.ListResponse
	if err := s.session.Do(ctx, http.MethodPut, "/lists/"+url.PathEscape(id), ToServer(l), &doc); err != nil {
		return streak.List{}, err
	}
	return FromServer(doc), nil
}

func (s *HTTPStore) DeleteList(ctx context.Context, id string) error {
	return s.session.Do(ctx, http.MethodDelete, "/lists/"+url.PathEscape(id), nil, nil)
}

func (s *HTTPStore) GetOverall(ctx context.Context) (streak.Overall, error) {
	var doc dto.OverallResponse
	if err := s.session.Do(ctx, http.MethodGet, "/overall", nil, &doc); err != nil {
		return streak.Overall{}, err
	}
	return OverallFromServer(doc), nil
}

func (s *HTTPStore) PutOverall(ctx context.Context, o streak.Overall) (streak.Overall, error) {
	var doc dto.OverallResponse
	if err := s.session.Do(ctx, http.MethodPut, "/overall", OverallToServer(o), &doc); err != nil {
		return streak.Overall{}, err
	}
	return OverallFromServer(doc), nil
}
