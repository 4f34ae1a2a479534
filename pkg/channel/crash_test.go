package channel

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/clock"
	"github.com/onairstack/broadcastcore/pkg/model"
)

func TestHandleRelaunchFailedEscalatesOnSecondFailureInWindow(t *testing.T) {
	ch := model.Channel{ChannelID: "crash-test-channel", Timezone: "UTC", GridMinutes: 30}
	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	asrun := &fakeAsRun{}

	mgr := New(ch, fc, &fakeSchedule{}, nil, nil, asrun, nil, nil, DefaultConfig())
	mgr.transition(StatePreparing)
	mgr.launchGeneration = 1

	before := testutil.ToFloat64(encoderEscalations.WithLabelValues(ch.ChannelID))

	mgr.handleRelaunchFailed(context.Background(), relaunchFailedCmd{generation: 1})
	require.Equal(t, StatePreparing, mgr.State(), "one failure within the window retries, not escalates")
	require.Empty(t, asrun.snapshot())

	mgr.handleRelaunchFailed(context.Background(), relaunchFailedCmd{generation: 1})
	require.Equal(t, StateIdle, mgr.State())

	after := testutil.ToFloat64(encoderEscalations.WithLabelValues(ch.ChannelID))
	require.Equal(t, before+1, after)

	records := asrun.snapshot()
	require.Len(t, records, 1)
	require.Equal(t, "encoder_unrecoverable", records[0].FallbackCause)
}
