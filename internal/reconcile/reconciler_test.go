package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/client"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	yesterday = "2024-01-09"
	today     = "2024-01-10"
)

// fakeStore is an in-memory client.Store with hooks for failures and for
// holding a create in flight.
type fakeStore struct {
	mu      sync.Mutex
	lists   map[string]streak.List
	order   []string
	overall streak.Overall

	creates   int
	updates   []string
	deletes   []string
	puts      int
	failPuts  int
	failLoad  error
	updateErr error

	createStarted chan struct{}
	releaseCreate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{lists: make(map[string]streak.List)}
}

var _ client.Store = (*fakeStore)(nil)

func (f *fakeStore) seed(l streak.List) {
	f.lists[l.ID] = l
	f.order = append(f.order, l.ID)
}

func (f *fakeStore) GetLists(context.Context) ([]streak.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad != nil {
		return nil, f.failLoad
	}
	out := []streak.List{}
	for _, id := range f.order {
		if l, ok := f.lists[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) CreateList(_ context.Context, l streak.List) (streak.List, error) {
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
		<-f.releaseCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	l = l.Clone()
	l.ID = primitive.NewObjectID().Hex()
	l.BeforeToday = nil
	f.seed(l)
	return l, nil
}

func (f *fakeStore) UpdateList(_ context.Context, id string, l streak.List) (streak.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.updateErr != nil {
		return streak.List{}, f.updateErr
	}
	if _, ok := f.lists[id]; !ok {
		return streak.List{}, client.ErrNotFound
	}
	l = l.Clone()
	l.ID = id
	l.BeforeToday = nil
	f.lists[id] = l
	return l, nil
}

func (f *fakeStore) DeleteList(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if _, ok := f.lists[id]; !ok {
		return client.ErrNotFound
	}
	delete(f.lists, id)
	return nil
}

func (f *fakeStore) GetOverall(context.Context) (streak.Overall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overall, nil
}

func (f *fakeStore) PutOverall(_ context.Context, o streak.Overall) (streak.Overall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		return streak.Overall{}, errors.New("connection reset")
	}
	f.overall = o
	return o, nil
}

func (f *fakeStore) stored() []streak.List {
	lists, _ := f.GetLists(context.Background())
	return lists
}

func newTestReconciler(t *testing.T, store *fakeStore) *Reconciler {
	t.Helper()
	clock := daykey.NewManualClock(time.Date(2024, 1, 10, 9, 0, 0, 0, daykey.IST))
	r := New(store, clock, logger.NewNop())
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r
}

func flush(t *testing.T, r *Reconciler) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Flush(ctx)
}

func TestIsServerID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"65a0c0ffee00000000000001", true},
		{"3f2b8c1e-8a7d-4c3b-9f1e-2d4a6b8c0e1f", true},
		{NewTempID(), false},
		{"1704873600000", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.id), func(t *testing.T) {
			assert.Equal(t, tt.want, IsServerID(tt.id))
		})
	}
}

func TestAddListCreatesOnceAndAdoptsServerID(t *testing.T) {
	store := newFakeStore()
	store.createStarted = make(chan struct{})
	store.releaseCreate = make(chan struct{})
	r := newTestReconciler(t, store)

	tempID, err := r.AddList("Morning")
	require.NoError(t, err)
	<-store.createStarted

	// Edits made while the create is in flight are pushed afterwards.
	_, err = r.AddTask(tempID, "stretch")
	require.NoError(t, err)
	close(store.releaseCreate)
	require.NoError(t, flush(t, r))

	snap := r.Snapshot()
	require.Len(t, snap.Lists, 1)
	id := snap.Lists[0].ID
	assert.True(t, IsServerID(id))
	assert.Equal(t, 1, store.creates)

	stored := store.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)
	require.Len(t, stored[0].Tasks, 1)
	assert.Equal(t, "stretch", stored[0].Tasks[0].Text)

	for _, u := range store.updates {
		assert.True(t, IsServerID(u), "update sent for temporary id %s", u)
	}
}

func TestDeleteDuringCreateRemovesOrphan(t *testing.T) {
	store := newFakeStore()
	store.createStarted = make(chan struct{})
	store.releaseCreate = make(chan struct{})
	r := newTestReconciler(t, store)

	tempID, err := r.AddList("Morning")
	require.NoError(t, err)
	<-store.createStarted

	require.NoError(t, r.DeleteList(tempID))
	close(store.releaseCreate)
	require.NoError(t, flush(t, r))

	assert.Empty(t, r.Snapshot().Lists)
	assert.Empty(t, store.stored())
	assert.Equal(t, 1, store.creates)
	require.Len(t, store.deletes, 1)
	assert.True(t, IsServerID(store.deletes[0]))
}

func TestOverallRetriedAfterFailedWrite(t *testing.T) {
	store := newFakeStore()
	store.seed(streak.List{
		ID:    "65a000000000000000000001",
		Title: "Morning",
		Tasks: []streak.Task{{ID: "t1", Text: "stretch"}},
	})
	store.failPuts = 1
	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), nil))

	require.NoError(t, r.ToggleTask("65a000000000000000000001", "t1", true))
	assert.Error(t, flush(t, r))
	assert.True(t, r.Snapshot().OverallDirty)
	assert.Equal(t, streak.Overall{}, store.overall)

	require.NoError(t, r.RenameList("65a000000000000000000001", "Mornings"))
	require.NoError(t, flush(t, r))

	assert.False(t, r.Snapshot().OverallDirty)
	assert.Equal(t, streak.Overall{Streak: 1, LastCompletedDate: today, CompletedToday: true}, store.overall)
	assert.Equal(t, 2, store.puts)

	// Nothing changed, nothing written.
	require.NoError(t, flush(t, r))
	assert.Equal(t, 2, store.puts)
}

func TestLoadRollsOverMissedDay(t *testing.T) {
	completed := streak.List{
		ID:                "65a000000000000000000001",
		Title:             "Morning",
		Streak:            3,
		LastCompletedDate: yesterday,
		CompletedToday:    true,
		Tasks:             []streak.Task{{ID: "t1", Text: "stretch", Done: true}},
	}
	missed := streak.List{
		ID:                "65a000000000000000000002",
		Title:             "Evening",
		Streak:            5,
		LastCompletedDate: "2024-01-08",
		Tasks:             []streak.Task{{ID: "t2", Text: "read"}},
	}

	tests := []struct {
		name   string
		cached *streak.AppState
	}{
		{"cached day label", streak.NewAppState(yesterday)},
		{"derived from records", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.seed(completed)
			store.seed(missed)
			store.overall = streak.Overall{Streak: 2, LastCompletedDate: "2024-01-08"}
			r := newTestReconciler(t, store)

			require.NoError(t, r.Load(context.Background(), tt.cached))
			require.NoError(t, flush(t, r))

			snap := r.Snapshot()
			assert.Equal(t, today, snap.DayKey)
			require.Len(t, snap.Lists, 2)
			assert.Equal(t, 3, snap.Lists[0].Streak)
			assert.False(t, snap.Lists[0].CompletedToday)
			assert.False(t, snap.Lists[0].Tasks[0].Done)
			assert.Equal(t, 0, snap.Lists[1].Streak)
			assert.Equal(t, 0, snap.Overall.Streak)

			stored := store.stored()
			assert.Equal(t, 3, stored[0].Streak)
			assert.False(t, stored[0].Tasks[0].Done)
			assert.Equal(t, 0, stored[1].Streak)
			assert.Equal(t, 0, store.overall.Streak)
		})
	}
}

func TestRolloverIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.seed(streak.List{ID: "65a000000000000000000001", Title: "Morning", Tasks: []streak.Task{}})
	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), streak.NewAppState(yesterday)))
	require.NoError(t, flush(t, r))
	updates := len(store.updates)

	version := r.Snapshot().Version
	r.Rollover(today)
	r.Rollover(today)
	require.NoError(t, flush(t, r))

	assert.Equal(t, version, r.Snapshot().Version)
	assert.Len(t, store.updates, updates)
}

func TestLoadKeepsUndoStateForSameDay(t *testing.T) {
	list := streak.List{
		ID:                "65a000000000000000000001",
		Title:             "Morning",
		Streak:            4,
		LastCompletedDate: today,
		CompletedToday:    true,
		Tasks:             []streak.Task{{ID: "t1", Text: "stretch", Done: true}},
	}
	store := newFakeStore()
	store.seed(list)

	cached := streak.NewAppState(today)
	withUndo := list.Clone()
	withUndo.BeforeToday = &streak.Snapshot{Streak: 3, LastCompletedDate: yesterday}
	cached.Lists = []streak.List{withUndo}

	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), cached))

	require.NoError(t, r.ToggleTask(list.ID, "t1", false))
	require.NoError(t, flush(t, r))

	got := r.Snapshot().Lists[0]
	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, yesterday, got.LastCompletedDate)
	assert.False(t, got.CompletedToday)
}

func TestFailedListWriteSurvivesReload(t *testing.T) {
	const id = "65a000000000000000000001"
	store := newFakeStore()
	store.seed(streak.List{ID: id, Title: "Morning", Tasks: []streak.Task{{ID: "t1", Text: "stretch"}}})

	r1 := newTestReconciler(t, store)
	require.NoError(t, r1.Load(context.Background(), nil))
	store.updateErr = errors.New("connection reset")
	require.NoError(t, r1.ToggleTask(id, "t1", true))
	assert.Error(t, flush(t, r1))

	cached := r1.Snapshot()
	assert.Contains(t, cached.Unsynced, id)

	store.mu.Lock()
	store.updateErr = nil
	store.mu.Unlock()

	r2 := newTestReconciler(t, store)
	require.NoError(t, r2.Load(context.Background(), cached))
	require.NoError(t, flush(t, r2))

	got := r2.Snapshot()
	require.Len(t, got.Lists, 1)
	assert.Equal(t, 1, got.Lists[0].Streak)
	assert.True(t, got.Lists[0].Tasks[0].Done)
	assert.True(t, got.Lists[0].CompletedToday)
	assert.Empty(t, got.Unsynced)

	stored := store.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].Streak)
	assert.True(t, stored[0].Tasks[0].Done)
	assert.True(t, stored[0].CompletedToday)
}

func TestCachedTempListCreatedOnLoad(t *testing.T) {
	store := newFakeStore()
	cached := streak.NewAppState(today)
	cached.Lists = []streak.List{{
		ID:    NewTempID(),
		Title: "Morning",
		Tasks: []streak.Task{{ID: "t1", Text: "stretch"}},
	}}

	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), cached))
	require.NoError(t, flush(t, r))

	assert.Equal(t, 1, store.creates)
	stored := store.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, "Morning", stored[0].Title)
	require.Len(t, stored[0].Tasks, 1)
	assert.Equal(t, "stretch", stored[0].Tasks[0].Text)

	snap := r.Snapshot()
	require.Len(t, snap.Lists, 1)
	assert.True(t, IsServerID(snap.Lists[0].ID))
	assert.Equal(t, stored[0].ID, snap.Lists[0].ID)
	assert.Empty(t, snap.Unsynced)
}

func TestLoadOfflineUsesCache(t *testing.T) {
	store := newFakeStore()
	store.failLoad = errors.New("dial tcp: connection refused")
	r := newTestReconciler(t, store)

	cached := streak.NewAppState(today)
	cached.Lists = []streak.List{{ID: "65a000000000000000000001", Title: "Morning", Tasks: []streak.Task{}}}

	err := r.Load(context.Background(), cached)
	assert.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, cached.Lists, r.Snapshot().Lists)

	r2 := newTestReconciler(t, store)
	err = r2.Load(context.Background(), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOffline)
}

func TestNotFoundSurfacedOnFlush(t *testing.T) {
	store := newFakeStore()
	store.seed(streak.List{ID: "65a000000000000000000001", Title: "Morning", Tasks: []streak.Task{}})
	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), nil))

	// Removed from another device.
	delete(store.lists, "65a000000000000000000001")

	require.NoError(t, r.RenameList("65a000000000000000000001", "Mornings"))
	err := flush(t, r)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.NoError(t, r.Err())
	assert.NoError(t, flush(t, r))
}

func TestUnauthenticatedStopsSync(t *testing.T) {
	store := newFakeStore()
	store.seed(streak.List{ID: "65a000000000000000000001", Title: "Morning", Tasks: []streak.Task{}})
	r := newTestReconciler(t, store)
	require.NoError(t, r.Load(context.Background(), nil))

	store.updateErr = client.ErrUnauthenticated
	require.NoError(t, r.RenameList("65a000000000000000000001", "Mornings"))
	assert.ErrorIs(t, flush(t, r), client.ErrUnauthenticated)
	assert.ErrorIs(t, r.Err(), client.ErrUnauthenticated)
	sent := len(store.updates)

	require.NoError(t, r.RenameList("65a000000000000000000001", "Evenings"))
	assert.ErrorIs(t, flush(t, r), client.ErrUnauthenticated)
	assert.Len(t, store.updates, sent)
	assert.Equal(t, "Evenings", r.Snapshot().Lists[0].Title)
}

func TestOnChangeSeesEverySnapshotInOrder(t *testing.T) {
	store := newFakeStore()
	store.seed(streak.List{ID: "65a000000000000000000001", Title: "Morning", Tasks: []streak.Task{}})
	r := newTestReconciler(t, store)

	var mu sync.Mutex
	var versions []uint64
	r.OnChange(func(s *streak.AppState) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	require.NoError(t, r.Load(context.Background(), nil))
	require.NoError(t, r.RenameList("65a000000000000000000001", "Mornings"))
	require.NoError(t, r.RenameList("65a000000000000000000001", "Evenings"))

	assert.ErrorIs(t, r.RenameList("missing", "x"), streak.ErrListNotFound)
	require.NoError(t, flush(t, r))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(versions), 3)
	for i := 1; i < len(versions); i++ {
		// Store confirmations republish the same version.
		assert.GreaterOrEqual(t, versions[i], versions[i-1])
	}
	assert.Equal(t, r.Snapshot().Version, versions[len(versions)-1])
}
