package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.UnixMilli(1_700_000_000_000)

// flakyStore fails Deactivate for the listed ids and can fail the query.
type flakyStore struct {
	PollStore
	failIDs   map[string]bool
	queryErr  error
	inFlight  int32
	maxFlight int32
	mu        sync.Mutex
	attempted []string
}

func (s *flakyStore) FindActive(ctx context.Context) ([]*Poll, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	return s.PollStore.FindActive(ctx)
}

func (s *flakyStore) Deactivate(ctx context.Context, id string) error {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		max := atomic.LoadInt32(&s.maxFlight)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxFlight, max, n) {
			break
		}
	}

	s.mu.Lock()
	s.attempted = append(s.attempted, id)
	s.mu.Unlock()
	time.Sleep(time.Millisecond)
	if s.failIDs[id] {
		return errors.New("write rejected")
	}

	return s.PollStore.Deactivate(ctx, id)
}

func newTestSweeper(t *testing.T, store PollStore) *Sweeper {
	t.Helper()
	s := NewSweeper(store, 4)
	s.Now = func() time.Time { return sweepNow }
	return s
}

func seedStore(t *testing.T, polls ...*Poll) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(polls)
	require.NoError(t, err)
	return store
}

func activeState(t *testing.T, store PollStore) map[string]bool {
	t.Helper()
	all, err := store.ListPolls(context.Background())
	require.NoError(t, err)
	state := make(map[string]bool, len(all))
	for _, p := range all {
		state[p.ID] = p.IsActive
	}

	return state
}

func TestSweep_DeactivatesExpiredAndKeepsOpen(t *testing.T) {
	now := sweepNow.UnixMilli()
	store := seedStore(t,
		&Poll{ID: "past", IsActive: true, EndTimeMillis: now - 60_000},
		&Poll{ID: "edge", IsActive: true, EndTimeMillis: now},
		&Poll{ID: "open", IsActive: true, EndTimeMillis: now + 60_000},
		&Poll{ID: "closed", IsActive: false, EndTimeMillis: now + 60_000},
	)

	report, err := newTestSweeper(t, store).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 2, report.Deactivated)
	assert.Equal(t, 0, report.Failed)
	assert.NoError(t, report.Err)

	assert.Equal(t, map[string]bool{
		"past":   false,
		"edge":   false,
		"open":   true,
		"closed": false,
	}, activeState(t, store))
}

func TestSweep_KeepsPollsWithoutEndTime(t *testing.T) {
	store := seedStore(t, &Poll{ID: "noend", IsActive: true})

	report, err := newTestSweeper(t, store).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 0, report.Expired)
	assert.Equal(t, map[string]bool{"noend": true}, activeState(t, store))
}

func TestSweep_Idempotent(t *testing.T) {
	now := sweepNow.UnixMilli()
	store := seedStore(t,
		&Poll{ID: "a", IsActive: true, EndTimeMillis: now - 1},
		&Poll{ID: "b", IsActive: true, EndTimeMillis: now + 1},
	)

	sweeper := newTestSweeper(t, store)
	_, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	once := activeState(t, store)

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, once, activeState(t, store))
	assert.Equal(t, 0, report.Expired)
	assert.Equal(t, 1, report.Scanned)
}

func TestSweep_FailureDoesNotBlockOthers(t *testing.T) {
	now := sweepNow.UnixMilli()
	store := &flakyStore{
		PollStore: seedStore(t,
			&Poll{ID: "a", IsActive: true, EndTimeMillis: now - 1},
			&Poll{ID: "b", IsActive: true, EndTimeMillis: now - 1},
			&Poll{ID: "c", IsActive: true, EndTimeMillis: now - 1},
		),
		failIDs: map[string]bool{"a": true},
	}

	report, err := newTestSweeper(t, store).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Expired)
	assert.Equal(t, 2, report.Deactivated)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors(), 1)
	assert.Contains(t, report.Err.Error(), "deactivate poll a")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, store.attempted)

	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": false}, activeState(t, store))

	// the next sweep retries the one that failed
	delete(store.failIDs, "a")
	report, err = newTestSweeper(t, store).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deactivated)
	assert.Equal(t, map[string]bool{"a": false, "b": false, "c": false}, activeState(t, store))
}

func TestSweep_QueryFailure(t *testing.T) {
	store := &flakyStore{
		PollStore: seedStore(t),
		queryErr:  errors.New("unavailable"),
	}

	_, err := newTestSweeper(t, store).Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query active polls")
	assert.Empty(t, store.attempted)
}

func TestSweep_BoundsConcurrency(t *testing.T) {
	now := sweepNow.UnixMilli()
	polls := make([]*Poll, 0, 20)
	for i := 0; i < 20; i++ {
		polls = append(polls, &Poll{IsActive: true, EndTimeMillis: now - int64(i)})
	}

	store := &flakyStore{PollStore: seedStore(t, polls...)}
	sweeper := newTestSweeper(t, store)
	sweeper.Concurrency = 3

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Deactivated)
	assert.LessOrEqual(t, atomic.LoadInt32(&store.maxFlight), int32(3))
}

func TestSweepTask_ReturnsOnlyQueryErrors(t *testing.T) {
	now := sweepNow.UnixMilli()
	store := &flakyStore{
		PollStore: seedStore(t, &Poll{ID: "a", IsActive: true, EndTimeMillis: now - 1}),
		failIDs:   map[string]bool{"a": true},
	}

	task := &SweepTask{Sweeper: newTestSweeper(t, store), Deadline: time.Second}
	assert.NoError(t, task.RunTask(context.Background()))

	store.queryErr = errors.New("unavailable")
	assert.Error(t, task.RunTask(context.Background()))
}
