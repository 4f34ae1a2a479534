package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/model"
)

func TestExtendPlaylogHorizonProducesAdjacentEvents(t *testing.T) {
	ch := testChannel()
	svc, _, plans := newTestService(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	assetID := uuid.New()
	plans.Put(singleBlockPlan(ch, assetID))
	svc.catalog.(interface{ Put(model.Asset) }).Put(model.Asset{
		UUID: assetID, DurationSeconds: 86400, PlayoutPath: "/mnt/asset.mp4",
		State: model.AssetStateReady, ApprovedForBroadcast: true,
	})

	ctx := context.Background()
	require.NoError(t, svc.EnsureDayHorizon(ctx, ch))
	require.NoError(t, svc.ExtendPlaylogHorizon(ctx, ch))

	events, err := svc.playlog.EventsInRange(ctx, ch.ChannelID,
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		require.True(t, events[i].StartUTC.Equal(events[i-1].EndUTC))
	}
}

func TestExtendPlaylogHorizonIsIdempotentAcrossTicks(t *testing.T) {
	ch := testChannel()
	svc, fc, plans := newTestService(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	assetID := uuid.New()
	plans.Put(singleBlockPlan(ch, assetID))
	svc.catalog.(interface{ Put(model.Asset) }).Put(model.Asset{
		UUID: assetID, DurationSeconds: 86400, PlayoutPath: "/mnt/asset.mp4",
		State: model.AssetStateReady, ApprovedForBroadcast: true,
	})

	ctx := context.Background()
	require.NoError(t, svc.EnsureDayHorizon(ctx, ch))
	require.NoError(t, svc.ExtendPlaylogHorizon(ctx, ch))
	firstEnd, err := svc.playlog.LastEnd(ctx, ch.ChannelID)
	require.NoError(t, err)

	fc.Advance(time.Minute)
	require.NoError(t, svc.EnsureDayHorizon(ctx, ch))
	require.NoError(t, svc.ExtendPlaylogHorizon(ctx, ch))
	secondEnd, err := svc.playlog.LastEnd(ctx, ch.ChannelID)
	require.NoError(t, err)

	require.True(t, secondEnd.After(firstEnd) || secondEnd.Equal(firstEnd))

	events, err := svc.playlog.EventsInRange(ctx, ch.ChannelID, time.Time{}, secondEnd.Add(time.Second))
	require.NoError(t, err)
	seen := make(map[int64]int)
	for _, e := range events {
		seen[e.StartUTC.UnixNano()]++
	}
	for _, count := range seen {
		require.Equal(t, 1, count, "no duplicate playlog events across horizon ticks")
	}
}

func TestResolveScheduledItemSubstitutesFallbackForIneligibleAsset(t *testing.T) {
	ch := testChannel()
	svc, _, _ := newTestService(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	assetID := uuid.New()
	svc.catalog.(interface{ Put(model.Asset) }).Put(model.Asset{
		UUID: assetID, State: model.AssetStateEnriching, ApprovedForBroadcast: false,
	})

	item := model.ScheduledItem{
		StartUTC: time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC),
		EndUTC:   time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC),
		EventType: model.EventTypeProgram,
		ContentRef: model.ContentRef{Kind: model.RefKindAsset, AssetUUID: assetID},
	}
	events, err := svc.resolveScheduledItem(context.Background(), item, ch, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.EventTypeFallback, events[0].EventType)
	require.Contains(t, events[0].FallbackCause, "asset_ineligible")
	require.Nil(t, events[0].AssetUUID)
}

func TestResolveScheduledItemPadsShorterAssetWithFallback(t *testing.T) {
	ch := testChannel()
	svc, _, _ := newTestService(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	assetID := uuid.New()
	svc.catalog.(interface{ Put(model.Asset) }).Put(model.Asset{
		UUID: assetID, DurationSeconds: 600, PlayoutPath: "/mnt/short.mp4",
		State: model.AssetStateReady, ApprovedForBroadcast: true,
	})

	item := model.ScheduledItem{
		StartUTC:   time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC),
		EndUTC:     time.Date(2025, 6, 15, 13, 23, 0, 0, time.UTC), // 1380s slot
		EventType:  model.EventTypeProgram,
		ContentRef: model.ContentRef{Kind: model.RefKindAsset, AssetUUID: assetID},
	}
	events, err := svc.resolveScheduledItem(context.Background(), item, ch, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, events, 2)

	program := events[0]
	require.Equal(t, model.EventTypeProgram, program.EventType)
	require.Equal(t, 600, program.DurationSeconds)
	require.Equal(t, item.StartUTC, program.StartUTC)
	require.Equal(t, item.StartUTC.Add(600*time.Second), program.EndUTC)
	require.Equal(t, &assetID, program.AssetUUID)

	pad := events[1]
	require.Equal(t, model.EventTypeFallback, pad.EventType)
	require.Contains(t, pad.FallbackCause, "asset_shorter_than_slot")
	require.Equal(t, program.EndUTC, pad.StartUTC)
	require.Equal(t, item.EndUTC, pad.EndUTC)
	require.Equal(t, 780, pad.DurationSeconds)

	require.NoError(t, auditAdjacency(events))
}

func TestResolveContentRefSeriesUsesRotation(t *testing.T) {
	ch := testChannel()
	svc, _, _ := newTestService(time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))
	a, b := uuid.New(), uuid.New()
	svc.catalog.(interface{ PutSeries(string, []uuid.UUID) }).PutSeries("sitcom", []uuid.UUID{a, b})

	ref := model.ContentRef{Kind: model.RefKindSeries, SeriesName: "sitcom", Policy: model.SelectionSequential}
	first, err := svc.resolveContentRef(context.Background(), ch.ChannelID, ref)
	require.NoError(t, err)
	second, err := svc.resolveContentRef(context.Background(), ch.ChannelID, ref)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
