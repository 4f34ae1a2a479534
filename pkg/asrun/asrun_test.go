package asrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/model"
)

func TestLoggerFlushesOnBatchSize(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store, nil, Config{QueueCapacity: 16, BatchSize: 4, FlushInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go logger.Serve(ctx)

	for i := 0; i < 4; i++ {
		logger.Record(context.Background(), model.AsRunRecord{ChannelID: "channel1", ActualStartUTC: time.Now()})
	}

	require.Eventually(t, func() bool { return store.Len() == 4 }, time.Second, time.Millisecond)
}

func TestLoggerFlushesOnTicker(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store, nil, Config{QueueCapacity: 16, BatchSize: 64, FlushInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go logger.Serve(ctx)

	logger.Record(context.Background(), model.AsRunRecord{ChannelID: "channel1", ActualStartUTC: time.Now()})

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, time.Millisecond)
}

func TestLoggerDropsWhenQueueFull(t *testing.T) {
	store := NewMemoryStore()
	// No Serve running: the queue fills and stays full, forcing overflow.
	logger := NewLogger(store, nil, Config{QueueCapacity: 2, BatchSize: 4, FlushInterval: time.Hour})

	for i := 0; i < 5; i++ {
		logger.Record(context.Background(), model.AsRunRecord{ChannelID: "channel1", ActualStartUTC: time.Now()})
	}

	require.Equal(t, int64(3), logger.DroppedCount())
}

func TestLoggerFlushesOnShutdown(t *testing.T) {
	store := NewMemoryStore()
	logger := NewLogger(store, nil, Config{QueueCapacity: 16, BatchSize: 64, FlushInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go logger.Serve(ctx)

	logger.Record(context.Background(), model.AsRunRecord{ChannelID: "channel1", ActualStartUTC: time.Now()})
	time.Sleep(10 * time.Millisecond) // let Record land on the queue before cancelling
	cancel()

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, time.Millisecond)
}

func TestMemoryStoreRecordsForChannelFiltersByRangeAndChannel(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 11, 4, 21, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertBatch(context.Background(), []model.AsRunRecord{
		{ChannelID: "channel1", ActualStartUTC: base},
		{ChannelID: "channel1", ActualStartUTC: base.Add(time.Hour)},
		{ChannelID: "channel2", ActualStartUTC: base.Add(30 * time.Minute)},
	}))

	got := store.RecordsForChannel("channel1", base, base.Add(time.Hour))
	require.Len(t, got, 1)
	require.Equal(t, base, got[0].ActualStartUTC)
}
