package worker_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/mocks"
	"github.com/basebytes/receipt-indexer/internal/worker"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestPeriodic_RunsUntilStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	ticker := make(chan time.Time)
	clock.EXPECT().After(time.Minute).Return(ticker).AnyTimes()

	var ticks atomic.Int32
	ticked := make(chan struct{}, 10)
	w := worker.NewPeriodic("test", time.Minute, func(ctx context.Context) error {
		ticks.Add(1)
		ticked <- struct{}{}
		if ticks.Load() == 1 {
			return errors.New("first tick fails")
		}
		return nil
	}, clock)
	assert.Equal(t, "test", w.Name())

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	<-ticked // immediate tick
	ticker <- time.Now()
	<-ticked // after one interval

	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), ticks.Load())

	// Stopping twice is a no-op
	require.NoError(t, w.Stop(context.Background()))
}

func TestPeriodic_ContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().After(gomock.Any()).Return(make(chan time.Time)).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	ticked := make(chan struct{}, 1)
	w := worker.NewPeriodic("test", time.Second, func(ctx context.Context) error {
		ticked <- struct{}{}
		return nil
	}, clock)

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	<-ticked
	cancel()
	require.NoError(t, <-done)
}

func TestPeriodic_StopRequestedInsideTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().After(gomock.Any()).Return(make(chan time.Time)).AnyTimes()

	entered := make(chan struct{})
	var sawStop atomic.Bool

	w := worker.NewPeriodic("test", time.Second, func(ctx context.Context) error {
		close(entered)
		// Simulates a batch that checks for a stop request between items
		for i := 0; i < 1000; i++ {
			if worker.StopRequested(ctx) {
				sawStop.Store(true)
				return nil
			}
			time.Sleep(time.Millisecond)
		}
		return nil
	}, clock)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	<-entered
	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, <-done)
	assert.True(t, sawStop.Load())
}

func TestStopRequested_WithoutWorker(t *testing.T) {
	assert.False(t, worker.StopRequested(context.Background()))
}
