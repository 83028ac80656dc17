// Package reconcile keeps the local streak state and the record store in step.
//
// Transitions are applied locally first and published as a new snapshot; the
// resulting writes are queued to a single worker goroutine that talks to the
// store in order. The worker folds store responses back into whatever the
// state is by the time they arrive.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ahmedelhadi17776/streaky/internal/client"
	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/scheduler"
	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TempIDPrefix marks list ids that have not been assigned by the store yet.
const TempIDPrefix = "tmp-"

// ErrOffline is returned by Load when the store could not be reached and the
// cached snapshot is shown instead.
var ErrOffline = errors.New("record store unreachable, showing cached state")

// IsServerID reports whether id was assigned by the record store. Mongo
// backends hand out ObjectID hex strings, postgres hands out UUIDs.
func IsServerID(id string) bool {
	if primitive.IsValidObjectID(id) {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// NewTempID returns a fresh local list id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

type job struct {
	intents []streak.Intent
	done    chan struct{}
}

// Reconciler owns the authoritative client state.
type Reconciler struct {
	store  client.Store
	clock  daykey.Clock
	logger *logger.Logger
	timer  *scheduler.DayTimer

	// mu serialises transitions; readers use state without locking.
	mu       sync.Mutex
	state    atomic.Pointer[streak.AppState]
	onChange func(*streak.AppState)

	qmu     sync.Mutex
	queue   []job
	wake    chan struct{}
	cancel  context.CancelFunc
	stopped chan struct{}

	// Worker-owned.
	retryCreates map[string]struct{}

	errMu    sync.Mutex
	authErr  error
	failures []error
}

// New creates a Reconciler with an empty state for today. Call Load to fill
// it from the store and Start to begin syncing.
func New(store client.Store, clock daykey.Clock, log *logger.Logger) *Reconciler {
	r := &Reconciler{
		store:        store,
		clock:        clock,
		logger:       log,
		wake:         make(chan struct{}, 1),
		retryCreates: make(map[string]struct{}),
	}
	r.state.Store(streak.NewAppState(daykey.Today(clock.Now())))
	r.timer = scheduler.NewDayTimer(clock, func(today string) { r.Rollover(today) }, log)
	return r
}

// OnChange registers fn to receive every published snapshot. fn runs while
// the transition lock is held, so snapshots arrive in order; it must not call
// back into the Reconciler.
func (r *Reconciler) OnChange(fn func(*streak.AppState)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Snapshot returns the current state. The value must not be modified.
func (r *Reconciler) Snapshot() *streak.AppState {
	return r.state.Load()
}

// Err returns the session error that stopped syncing, if any.
func (r *Reconciler) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.authErr
}

// Load replaces the state with the store's records. cached is the snapshot
// from the previous run, or nil; it supplies the stored day label, the local
// undo state and any list changes the store never confirmed, which are queued
// again. If the store is unreachable the cached snapshot is used and
// ErrOffline is returned alongside it.
func (r *Reconciler) Load(ctx context.Context, cached *streak.AppState) error {
	today := daykey.Today(r.clock.Now())

	lists, err := r.store.GetLists(ctx)
	var overall streak.Overall
	if err == nil {
		overall, err = r.store.GetOverall(ctx)
	}
	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			r.setAuthErr(err)
			return err
		}
		if cached == nil {
			return fmt.Errorf("failed to load lists: %w", err)
		}
		r.logger.Warn("Record store unreachable, using cached state", zap.Error(err))
		next := cached.Clone()
		r.mu.Lock()
		r.commitLocked(next, pendingIntents(next))
		r.rolloverLocked(today)
		r.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}

	next := merge(lists, overall, cached, today)

	pending := pendingIntents(next)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitLocked(next, pending)
	r.rolloverLocked(today)

	r.logger.Info("Loaded state",
		zap.String("day", next.DayKey),
		zap.Int("lists", len(next.Lists)),
		zap.Int("pending", len(pending)),
	)
	return nil
}

// merge builds the state for fetched records. When cached is for the same day
// its undo state survives, and so do lists and an Overall the store has not
// confirmed: unsynced lists replace their fetched copies, lists still under a
// temporary id are appended. An unsynced list the store no longer has was
// deleted elsewhere and is dropped.
func merge(lists []streak.List, overall streak.Overall, cached *streak.AppState, today string) *streak.AppState {
	day := deriveDayKey(lists, overall, today)
	if cached != nil && cached.DayKey != "" {
		day = cached.DayKey
	}

	next := streak.NewAppState(day)
	next.Lists = lists
	next.Overall = overall

	if cached == nil || cached.DayKey != day {
		return next
	}
	next.Version = cached.Version
	for i := range next.Lists {
		id := next.Lists[i].ID
		prev, ok := cached.List(id)
		if !ok {
			continue
		}
		if v, unsynced := cached.Unsynced[id]; unsynced {
			next.Lists[i] = prev
			if next.Unsynced == nil {
				next.Unsynced = make(map[string]uint64)
			}
			next.Unsynced[id] = v
			continue
		}
		next.Lists[i].BeforeToday = prev.BeforeToday
	}
	for _, l := range cached.Lists {
		if !IsServerID(l.ID) {
			next.Lists = append(next.Lists, l.Clone())
		}
	}
	if cached.OverallBeforeToday != nil {
		snap := *cached.OverallBeforeToday
		next.OverallBeforeToday = &snap
	}
	if cached.OverallDirty {
		next.Overall = cached.Overall
		next.OverallDirty = true
		next.OverallVersion = next.Version
	}
	return next
}

// pendingIntents lists the writes s still owes the store: a create for every
// temporary list and an update for every unsynced one.
func pendingIntents(s *streak.AppState) []streak.Intent {
	var intents []streak.Intent
	for _, l := range s.Lists {
		switch {
		case !IsServerID(l.ID):
			intents = append(intents, streak.Intent{Kind: streak.IntentCreateList, ListID: l.ID, List: l.Clone()})
		case hasKey(s.Unsynced, l.ID):
			intents = append(intents, streak.Intent{Kind: streak.IntentUpdateList, ListID: l.ID, List: l.Clone()})
		}
	}
	return intents
}

func hasKey(m map[string]uint64, k string) bool {
	_, ok := m[k]
	return ok
}

// deriveDayKey guesses the day a fresh device last saw. A record still
// flagged completed for an earlier day means that day was never closed.
func deriveDayKey(lists []streak.List, overall streak.Overall, today string) string {
	stale := ""
	consider := func(completed bool, last string) {
		if completed && last != "" && last < today && last > stale {
			stale = last
		}
	}
	for _, l := range lists {
		consider(l.CompletedToday, l.LastCompletedDate)
	}
	consider(overall.CompletedToday, overall.LastCompletedDate)
	if stale == "" {
		return today
	}
	return stale
}

// Start launches the worker and arms the midnight timer.
func (r *Reconciler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	go r.run(ctx)
	r.timer.Start()
	r.signal()
}

// Stop disarms the timer and waits for the worker to exit. Queued writes that
// have not been sent are dropped; call Flush first to wait for them.
func (r *Reconciler) Stop() {
	r.timer.Stop()
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.stopped
}

// Flush waits until every write queued so far has been attempted and returns
// the failures since the previous Flush.
func (r *Reconciler) Flush(ctx context.Context) error {
	done := make(chan struct{})
	r.enqueue(job{done: done})
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.errMu.Lock()
	defer r.errMu.Unlock()
	errs := r.failures
	r.failures = nil
	if r.authErr != nil {
		errs = append(errs, r.authErr)
	}
	return errors.Join(errs...)
}

// AddList creates a list under a temporary id and returns that id.
func (r *Reconciler) AddList(title string) (string, error) {
	id := NewTempID()
	return id, r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.AddList(id, title)
	})
}

func (r *Reconciler) RenameList(id, title string) error {
	return r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.RenameList(id, title)
	})
}

func (r *Reconciler) DeleteList(id string) error {
	return r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.DeleteList(id)
	})
}

// AddTask appends a task and returns its id.
func (r *Reconciler) AddTask(listID, text string) (string, error) {
	taskID := uuid.NewString()
	return taskID, r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.AddTask(listID, taskID, text)
	})
}

func (r *Reconciler) ToggleTask(listID, taskID string, done bool) error {
	return r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.ToggleTask(listID, taskID, done)
	})
}

func (r *Reconciler) DeleteTask(listID, taskID string) error {
	return r.apply(func(s *streak.AppState) (*streak.AppState, []streak.Intent, error) {
		return s.DeleteTask(listID, taskID)
	})
}

// Rollover moves the state to today. Repeated calls for the same day do
// nothing.
func (r *Reconciler) Rollover(today string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked(today)
}

func (r *Reconciler) rolloverLocked(today string) {
	cur := r.state.Load()
	next, intents := cur.Rollover(today)
	if next == cur {
		return
	}
	r.logger.Info("Rolled over to new day",
		zap.String("from", cur.DayKey),
		zap.String("to", today),
	)
	r.commitLocked(next, intents)
}

func (r *Reconciler) apply(fn func(*streak.AppState) (*streak.AppState, []streak.Intent, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, intents, err := fn(r.state.Load())
	if err != nil {
		return err
	}
	r.commitLocked(next, intents)
	return nil
}

// commitLocked publishes next and queues its writes in the same critical
// section so the worker sees them in transition order.
func (r *Reconciler) commitLocked(next *streak.AppState, intents []streak.Intent) {
	var changed []string
	for _, in := range intents {
		if in.Kind == streak.IntentUpdateList && IsServerID(in.ListID) {
			changed = append(changed, in.ListID)
		}
	}
	next = next.MarkUnsynced(changed...)

	r.state.Store(next)
	if r.onChange != nil {
		r.onChange(next)
	}
	r.enqueue(job{intents: intents})
}

// fold applies a store response to the latest state.
func (r *Reconciler) fold(fn func(*streak.AppState) (*streak.AppState, bool)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.state.Load()
	next, ok := fn(cur)
	if ok && next != cur {
		r.state.Store(next)
		if r.onChange != nil {
			r.onChange(next)
		}
	}
	return ok
}

func (r *Reconciler) enqueue(j job) {
	r.qmu.Lock()
	r.queue = append(r.queue, j)
	r.qmu.Unlock()
	r.signal()
}

func (r *Reconciler) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reconciler) dequeue() (job, bool) {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	if len(r.queue) == 0 {
		return job{}, false
	}
	j := r.queue[0]
	r.queue[0] = job{}
	r.queue = r.queue[1:]
	return j, true
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}
		for {
			j, ok := r.dequeue()
			if !ok {
				break
			}
			r.process(ctx, j)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (r *Reconciler) process(ctx context.Context, j job) {
	if j.done != nil {
		close(j.done)
		return
	}
	if r.Err() != nil {
		return
	}

	retry := make([]string, 0, len(r.retryCreates))
	for id := range r.retryCreates {
		retry = append(retry, id)
	}
	for _, id := range retry {
		delete(r.retryCreates, id)
		r.create(ctx, id)
	}
	for _, in := range j.intents {
		switch in.Kind {
		case streak.IntentCreateList:
			r.create(ctx, in.ListID)
		case streak.IntentUpdateList:
			r.update(ctx, in.ListID)
		case streak.IntentDeleteList:
			r.remove(ctx, in.ListID)
		}
	}
	r.syncOverall(ctx)
}

// create sends a temporary list to the store exactly once, then swaps in the
// assigned id and pushes whatever changed while the call was in flight.
func (r *Reconciler) create(ctx context.Context, tempID string) {
	l, ok := r.Snapshot().List(tempID)
	if !ok {
		return
	}

	created, err := r.store.CreateList(ctx, l)
	if err != nil {
		r.fail("create list", tempID, err)
		if !errors.Is(err, client.ErrUnauthenticated) {
			r.retryCreates[tempID] = struct{}{}
		}
		return
	}

	replaced := r.fold(func(s *streak.AppState) (*streak.AppState, bool) {
		next, ok := s.ReplaceListID(tempID, created.ID)
		if !ok {
			return s, false
		}
		return next.MarkUnsynced(created.ID), true
	})
	if !replaced {
		// Deleted locally while the create was in flight.
		r.logger.Debug("Removing orphaned list", zap.String("list_id", created.ID))
		if err := r.store.DeleteList(ctx, created.ID); err != nil && !errors.Is(err, client.ErrNotFound) {
			r.fail("delete orphaned list", created.ID, err)
		}
		return
	}
	r.update(ctx, created.ID)
}

func (r *Reconciler) update(ctx context.Context, id string) {
	if !IsServerID(id) {
		return
	}
	s := r.Snapshot()
	l, ok := s.List(id)
	if !ok {
		return
	}
	if _, err := r.store.UpdateList(ctx, id, l); err != nil {
		r.fail("update list", id, err)
		return
	}
	version := s.Version
	r.fold(func(s *streak.AppState) (*streak.AppState, bool) {
		return s.MarkSynced(id, version)
	})
}

func (r *Reconciler) remove(ctx context.Context, id string) {
	if !IsServerID(id) {
		return
	}
	if err := r.store.DeleteList(ctx, id); err != nil {
		r.fail("delete list", id, err)
	}
}

// syncOverall writes the aggregate while it is dirty. A failed write leaves
// the flag set and is retried after the next transition.
func (r *Reconciler) syncOverall(ctx context.Context) {
	s := r.Snapshot()
	if !s.OverallDirty {
		return
	}
	version := s.OverallVersion
	if _, err := r.store.PutOverall(ctx, s.Overall); err != nil {
		r.fail("save overall", "", err)
		return
	}
	r.fold(func(s *streak.AppState) (*streak.AppState, bool) {
		return s.MarkOverallPersisted(version)
	})
}

func (r *Reconciler) fail(op, id string, err error) {
	if errors.Is(err, client.ErrUnauthenticated) {
		r.setAuthErr(err)
		r.logger.Warn("Session expired, sync stopped", zap.String("operation", op))
		return
	}
	r.logger.Warn("Sync operation failed",
		zap.String("operation", op),
		zap.String("list_id", id),
		zap.Error(err),
	)
	r.errMu.Lock()
	if id != "" {
		err = fmt.Errorf("%s %s: %w", op, id, err)
	} else {
		err = fmt.Errorf("%s: %w", op, err)
	}
	r.failures = append(r.failures, err)
	r.errMu.Unlock()
}

func (r *Reconciler) setAuthErr(err error) {
	r.errMu.Lock()
	if r.authErr == nil {
		r.authErr = err
	}
	r.errMu.Unlock()
}
