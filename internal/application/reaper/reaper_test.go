package reaper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/memory"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) ProcessExpiredReservations(ctx context.Context) (appinventory.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(appinventory.SweepResult), args.Error(1)
}

type mockLocker struct {
	mock.Mock
	released int32
}

func (m *mockLocker) TryLock(ctx context.Context) (func(), bool, error) {
	args := m.Called(ctx)
	release := func() { atomic.AddInt32(&m.released, 1) }
	return release, args.Bool(0), args.Error(1)
}

// blockingSweeper 第一次调用阻塞到release关闭
type blockingSweeper struct {
	calls   int32
	entered chan struct{}
	release chan struct{}
	ctx     context.Context
}

func (s *blockingSweeper) ProcessExpiredReservations(ctx context.Context) (appinventory.SweepResult, error) {
	if atomic.AddInt32(&s.calls, 1) == 1 {
		s.ctx = ctx
		close(s.entered)
	}
	<-s.release
	return appinventory.SweepResult{Processed: 3}, nil
}

func TestReaper_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("返回清理数量", func(t *testing.T) {
		s := &mockSweeper{}
		s.On("ProcessExpiredReservations", mock.Anything).Return(appinventory.SweepResult{Processed: 4}, nil).Once()

		res, err := New(s, time.Minute, nil).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Processed)
	})

	t.Run("单条失败只体现在Failed", func(t *testing.T) {
		s := &mockSweeper{}
		s.On("ProcessExpiredReservations", mock.Anything).
			Return(appinventory.SweepResult{Processed: 2, Failed: 1}, nil).Once()

		res, err := New(s, time.Minute, nil).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, appinventory.SweepResult{Processed: 2, Failed: 1}, res)
	})

	t.Run("查询失败时数量和错误一起返回", func(t *testing.T) {
		s := &mockSweeper{}
		s.On("ProcessExpiredReservations", mock.Anything).
			Return(appinventory.SweepResult{Processed: 2}, errors.New("db down")).Once()

		res, err := New(s, time.Minute, nil).RunOnce(ctx)
		assert.Error(t, err)
		assert.Equal(t, 2, res.Processed)
	})

	t.Run("拿不到锁时跳过", func(t *testing.T) {
		s := &mockSweeper{}
		l := &mockLocker{}
		l.On("TryLock", mock.Anything).Return(false, nil).Once()

		res, err := New(s, time.Minute, nil, WithLocker(l)).RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, res.Processed)
		s.AssertNotCalled(t, "ProcessExpiredReservations", mock.Anything)
	})

	t.Run("拿到锁后执行并释放", func(t *testing.T) {
		s := &mockSweeper{}
		s.On("ProcessExpiredReservations", mock.Anything).Return(appinventory.SweepResult{Processed: 1}, nil).Once()
		l := &mockLocker{}
		l.On("TryLock", mock.Anything).Return(true, nil).Once()

		res, err := New(s, time.Minute, nil, WithLocker(l)).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Processed)
		assert.Equal(t, int32(1), atomic.LoadInt32(&l.released))
	})

	t.Run("加锁出错", func(t *testing.T) {
		s := &mockSweeper{}
		l := &mockLocker{}
		l.On("TryLock", mock.Anything).Return(false, errors.New("redis down")).Once()

		_, err := New(s, time.Minute, nil, WithLocker(l)).RunOnce(ctx)
		assert.Error(t, err)
		s.AssertNotCalled(t, "ProcessExpiredReservations", mock.Anything)
	})
}

func TestReaper_CoalescesConcurrentRuns(t *testing.T) {
	s := &blockingSweeper{entered: make(chan struct{}), release: make(chan struct{})}
	r := New(s, time.Minute, nil)

	results := make([]appinventory.SweepResult, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = r.RunOnce(context.Background())
	}()
	<-s.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = r.RunOnce(context.Background())
	}()
	// 给第二个调用一点时间进入singleflight
	time.Sleep(20 * time.Millisecond)
	close(s.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
	assert.Equal(t, 3, results[0].Processed)
	assert.Equal(t, 3, results[1].Processed)
}

func TestReaper_SharedRunOutlivesCaller(t *testing.T) {
	s := &blockingSweeper{entered: make(chan struct{}), release: make(chan struct{})}
	r := New(s, time.Minute, nil)

	callerCtx, cancelCaller := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.RunOnce(callerCtx)
		first <- err
	}()
	<-s.entered

	second := make(chan appinventory.SweepResult, 1)
	go func() {
		res, _ := r.RunOnce(context.Background())
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancelCaller()
	assert.ErrorIs(t, <-first, context.Canceled, "发起者提前返回")
	assert.NoError(t, s.ctx.Err(), "这一轮不随发起者取消")

	close(s.release)
	assert.Equal(t, 3, (<-second).Processed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
}

func TestReaper_StopCancelsRunningSweep(t *testing.T) {
	s := &blockingSweeper{entered: make(chan struct{}), release: make(chan struct{})}
	r := New(s, time.Minute, nil)

	go func() { _, _ = r.RunOnce(context.Background()) }()
	<-s.entered

	r.Stop()
	select {
	case <-s.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Stop后这一轮的ctx应被取消")
	}
	close(s.release)
}

type countingSweeper struct {
	calls int32
}

func (s *countingSweeper) ProcessExpiredReservations(context.Context) (appinventory.SweepResult, error) {
	atomic.AddInt32(&s.calls, 1)
	return appinventory.SweepResult{}, nil
}

func TestReaper_StartStop(t *testing.T) {
	s := &countingSweeper{}
	r := New(s, 10*time.Millisecond, nil)
	r.Start(context.Background())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&s.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
	after := atomic.LoadInt32(&s.calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&s.calls), "停止后不再执行")
}

func TestReaper_ReleasesExpiredStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	items := memory.NewItemRepository(store)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	engine := appinventory.NewEngine(items, memory.NewReservationRepository(store), memory.NewMovementRepository(store),
		memory.NewTxManager(store), nil, nil, appinventory.Config{}).WithClock(clock)

	_, err := engine.CreateItem(ctx, appinventory.CreateItemRequest{
		ProductID: "P-1", SKU: "SKU-1", WarehouseID: "WH-1", InitialQuantity: 5,
		Thresholds: inventory.Thresholds{MaxStockLevel: 100},
	})
	require.NoError(t, err)
	r, err := engine.Reserve(ctx, appinventory.ReserveRequest{SKU: "SKU-1", Quantity: 5, OrderID: "order-1"})
	require.NoError(t, err)

	now = now.Add(time.Hour)
	res, err := New(engine, time.Minute, nil).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, appinventory.SweepResult{Processed: 1}, res)

	got, err := engine.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReservationExpired, got.Status)

	item, err := items.Get(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.Available)
	assert.Equal(t, 0, item.Reserved)
}
