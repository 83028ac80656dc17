package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/api/routes"
	"github.com/ahmedelhadi17776/streaky/internal/client"
	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/memory"
	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	tokens := auth.NewTokenService(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	router := routes.NewRouter(routes.Dependencies{
		Users:       user.NewService(store.Users(), store.Lists(), tokens, bcrypt.MinCost),
		Lists:       lists.NewService(store.Lists(), zap.NewNop()),
		Tokens:      tokens,
		RateLimiter: auth.NewMemoryRateLimiter(time.Minute, 1000),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStoreAgainstAPI(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()

	var saved []string
	session := client.NewSession(srv.URL, "", srv.Client())
	session.OnRefreshToken = func(tok string) { saved = append(saved, tok) }

	info, err := session.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotEmpty(t, saved[0])

	callerID, err := session.CurrentCallerID()
	require.NoError(t, err)
	assert.Equal(t, info.ID, callerID)

	store := client.NewHTTPStore(session)

	created, err := store.CreateList(ctx, streak.List{ID: "tmp-1", Title: "Morning", Tasks: []streak.Task{{ID: "t1", Text: "stretch"}}})
	require.NoError(t, err)
	assert.NotEqual(t, "tmp-1", created.ID)
	assert.Equal(t, "Morning", created.Title)

	created.Tasks[0].Done = true
	created.CompletedToday = true
	created.Streak = 1
	created.LastCompletedDate = "2024-01-10"
	updated, err := store.UpdateList(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", updated.LastCompletedDate)

	all, err := store.GetLists(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, updated, all[0])

	overall, err := store.GetOverall(ctx)
	require.NoError(t, err)
	assert.Equal(t, streak.Overall{}, overall)

	overall, err = store.PutOverall(ctx, streak.Overall{Streak: 2, LastCompletedDate: "2024-01-10", CompletedToday: true})
	require.NoError(t, err)
	assert.Equal(t, 2, overall.Streak)

	require.NoError(t, store.DeleteList(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteList(ctx, created.ID), client.ErrNotFound)

	_, err = store.UpdateList(ctx, created.ID, created)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestRegisterConflictAndLoginFailure(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()

	session := client.NewSession(srv.URL, "", srv.Client())
	_, err := session.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	other := client.NewSession(srv.URL, "", srv.Client())
	_, err = other.Register(ctx, "ada@example.com", "pw")
	assert.ErrorIs(t, err, client.ErrConflict)

	_, err = other.Login(ctx, "ada@example.com", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, other.LoggedIn())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()

	var refresh string
	session := client.NewSession(srv.URL, "", srv.Client())
	session.OnRefreshToken = func(tok string) {
		if tok != "" {
			refresh = tok
		}
	}
	_, err := session.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, session.Logout(ctx))
	assert.False(t, session.LoggedIn())

	// A second device still holding the old refresh token is logged out too.
	stale := client.NewSession(srv.URL, refresh, srv.Client())
	_, err = client.NewHTTPStore(stale).GetLists(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.False(t, stale.LoggedIn())
}

// fakeAuthServer hands out access tokens a1, a2, ... and accepts only the
// latest one on /lists.
type fakeAuthServer struct {
	refreshes   atomic.Int32
	listCalls   atomic.Int32
	rejectFirst bool
	failRefresh bool
}

func (f *fakeAuthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/refresh":
		if f.failRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "invalid or expired refresh token"})
			return
		}
		n := f.refreshes.Add(1)
		_ = json.NewEncoder(w).Encode(dto.RefreshResponse{AccessToken: "a" + string(rune('0'+n))})
	case "/lists":
		n := f.listCalls.Add(1)
		if f.rejectFirst && n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "invalid token"})
			return
		}
		want := "Bearer a" + string(rune('0'+f.refreshes.Load()))
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]dto.ListResponse{{ID: "l1", Title: "x", Tasks: []dto.TaskDTO{{Text: "no id"}}}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestRefreshOnceOnUnauthorized(t *testing.T) {
	fake := &fakeAuthServer{rejectFirst: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session := client.NewSession(srv.URL, "r0", srv.Client())
	got, err := client.NewHTTPStore(session).GetLists(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].Tasks[0].ID)
	// One refresh to obtain the first token, one after the 401.
	assert.Equal(t, int32(2), fake.refreshes.Load())
	assert.Equal(t, int32(2), fake.listCalls.Load())
	assert.True(t, session.LoggedIn())
}

func TestRefreshFailureLogsOut(t *testing.T) {
	fake := &fakeAuthServer{failRefresh: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var cleared bool
	session := client.NewSession(srv.URL, "r0", srv.Client())
	session.OnRefreshToken = func(tok string) { cleared = tok == "" }

	_, err := client.NewHTTPStore(session).GetLists(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.True(t, cleared)
	assert.False(t, session.LoggedIn())
	assert.Equal(t, int32(0), fake.listCalls.Load())

	_, err = session.CurrentCallerID()
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
}

func TestMapperRoundTrip(t *testing.T) {
	date := "2024-01-09"
	tests := []struct {
		name string
		doc  dto.ListResponse
	}{
		{"never completed", dto.ListResponse{ID: "65a000000000000000000001", Title: "A", Tasks: []dto.TaskDTO{}}},
		{"completed", dto.ListResponse{
			ID: "65a000000000000000000002", Title: "B", Streak: 4, LastCompletedDate: &date, CompletedToday: true,
			Tasks: []dto.TaskDTO{{ID: "t1", Text: "a", Done: true}, {ID: "t2", Text: "b", Done: true}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back := client.ToServer(client.FromServer(tt.doc))
			assert.Equal(t, tt.doc.Title, back.Title)
			assert.Equal(t, tt.doc.Streak, back.Streak)
			assert.Equal(t, tt.doc.LastCompletedDate, back.LastCompletedDate)
			assert.Equal(t, tt.doc.CompletedToday, back.CompletedToday)
			assert.Equal(t, tt.doc.Tasks, back.Tasks)
		})
	}
}

func TestToServerDropsUndoState(t *testing.T) {
	l := streak.List{ID: "x", Title: "A", BeforeToday: &streak.Snapshot{Streak: 3}}
	raw, err := json.Marshal(client.ToServer(l))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"A","streak":0,"lastCompletedDate":null,"completedToday":false,"tasks":[]}`, string(raw))
}
