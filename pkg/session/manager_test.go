package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pathquiz/internal/testutils"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/adapters/redis"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settle = 350 * time.Millisecond

// countingStore records how many snapshots were saved.
type countingStore struct {
	*memory.Store
	saves atomic.Int32
}

func (s *countingStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	s.saves.Add(1)
	return s.Store.Save(ctx, id, sess)
}

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *countingStore, *testutils.ManualScheduler) {
	t.Helper()
	store := &countingStore{Store: memory.NewStore()}
	sched := testutils.NewManualScheduler()
	mgr := session.NewManager(testutils.SiteDefinition(t), store,
		append([]session.Option{session.WithScheduler(sched)}, opts...)...)
	t.Cleanup(mgr.Close)
	return mgr, store, sched
}

func TestManager_CreateAndPlay(t *testing.T) {
	mgr, store, sched := newManager(t, session.WithCatalog(memory.NewSeededCatalog()))
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, d.SessionID)
	assert.Equal(t, 0, d.StepIndex)
	assert.EqualValues(t, 1, store.saves.Load())

	id := d.SessionID
	for step, opt := range []int{1, 0, 3} {
		_, ok, err := mgr.Select(ctx, id, step, opt)
		require.NoError(t, err)
		require.True(t, ok)
		sched.Advance(settle)
	}

	d, err = mgr.Directive(ctx, id)
	require.NoError(t, err)
	assert.True(t, d.Completed)
	require.NotNil(t, d.Result)
	assert.Equal(t, "Data Science Path", d.Result.Title)
	assert.False(t, d.Result.Courses[0].Placeholder)

	snap, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, snap.Completed)
	assert.Equal(t, []int{1, 0, 3}, snap.Answers())
}

func TestManager_RejectedInputIsNotPersisted(t *testing.T) {
	mgr, store, _ := newManager(t)
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)
	before := store.saves.Load()

	_, ok, err := mgr.Select(ctx, d.SessionID, 2, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = mgr.Back(ctx, d.SessionID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, before, store.saves.Load())
}

func TestManager_UnknownSession(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	_, err := mgr.Directive(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, _, err = mgr.Select(ctx, "nope", 0, 0)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = mgr.Restart(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_RehydrateAfterEvict(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)
	id := d.SessionID

	d, ok, err := mgr.Select(ctx, id, 0, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, d.LockHeld)

	// Evicting mid-transition drops the lock with the engine.
	mgr.Evict(id)
	assert.Zero(t, mgr.Live())

	d, err = mgr.Directive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Live())
	assert.Equal(t, 1, d.StepIndex)
	assert.False(t, d.LockHeld)

	_, ok, err = mgr.Select(ctx, id, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_Delete(t *testing.T) {
	mgr, store, _ := newManager(t)
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, d.SessionID))
	assert.Zero(t, mgr.Live())
	_, err = store.Load(ctx, d.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_ConcurrentSelectsAcceptOne(t *testing.T) {
	mgr, _, _ := newManager(t)
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(opt int) {
			defer wg.Done()
			_, ok, err := mgr.Select(ctx, d.SessionID, 0, opt%4)
			assert.NoError(t, err)
			if ok {
				accepted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted.Load(), "the transition lock admits a single selection")
}

func TestManager_Notifier(t *testing.T) {
	var mu sync.Mutex
	var updates []session.Update
	notify := func(ctx context.Context, u session.Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	}
	mgr, _, sched := newManager(t, session.WithNotifier(notify))
	ctx := context.Background()

	d, err := mgr.Create(ctx)
	require.NoError(t, err)
	_, _, err = mgr.Select(ctx, d.SessionID, 0, 0)
	require.NoError(t, err)
	sched.Advance(settle)
	_, err = mgr.Restart(ctx, d.SessionID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 4)
	assert.Equal(t, domain.PhaseStarted, updates[0].Phase)
	assert.True(t, updates[0].Directive.LockHeld)
	assert.Equal(t, domain.PhaseSwap, updates[1].Phase)
	assert.Equal(t, 1, updates[1].Directive.Illustration)
	assert.Equal(t, domain.PhaseSettled, updates[2].Phase)
	assert.False(t, updates[2].Directive.LockHeld)
	assert.Equal(t, session.UpdateRestart, updates[3].Kind)
	assert.Equal(t, 0, updates[3].Directive.StepIndex)
}

func TestManager_DistributedReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, "pathquiz:")
	def := testutils.SiteDefinition(t)

	replicaA := session.NewManager(def, store, session.WithLocker(locker), session.WithScheduler(testutils.NewManualScheduler()))
	replicaB := session.NewManager(def, store, session.WithLocker(locker), session.WithScheduler(testutils.NewManualScheduler()))
	t.Cleanup(replicaA.Close)
	t.Cleanup(replicaB.Close)
	ctx := context.Background()

	d, err := replicaA.Create(ctx)
	require.NoError(t, err)
	id := d.SessionID

	d, err = replicaB.Directive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, d.StepIndex)

	_, ok, err := replicaA.Select(ctx, id, 0, 1)
	require.NoError(t, err)
	require.True(t, ok)

	d, err = replicaB.Directive(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, d.StepIndex, "replica B must observe replica A's answer")

	require.NoError(t, replicaB.Delete(ctx, id))
	_, err = replicaA.Directive(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
