package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"/path/broadcastd"}, "/root")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig, *cfg)
}

func TestLoadConfigCommandLine(t *testing.T) {
	cfg, err := LoadConfig([]string{"/path/broadcastd", "--loglevel", "DEBUG", "--port", "9000"}, "/root")
	require.NoError(t, err)
	c := DefaultConfig
	c.LogLevel = "DEBUG"
	c.Port = 9000
	require.Equal(t, c, *cfg)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("BROADCASTCORE_LOGLEVEL", "warn")
	cfg, err := LoadConfig([]string{"/path/broadcastd"}, "/root")
	require.NoError(t, err)
	c := DefaultConfig
	c.LogLevel = "warn"
	require.Equal(t, c, *cfg)
}

func TestLoadConfigChannelsFileResolvedAgainstCWD(t *testing.T) {
	cfg, err := LoadConfig([]string{"/path/broadcastd", "--channelsfile", "channels.json"}, "/opt/broadcastd")
	require.NoError(t, err)
	require.Equal(t, "/opt/broadcastd/channels.json", cfg.ChannelsFile)
}

func TestCheckTLSParamsRejectsDomainsWithCertPath(t *testing.T) {
	_, err := LoadConfig([]string{"/path/broadcastd", "--domains", "example.com", "--certpath", "a", "--keypath", "b"}, "/root")
	require.Error(t, err)
}

func TestCheckTLSParamsRejectsHalfConfiguredCertPair(t *testing.T) {
	_, err := LoadConfig([]string{"/path/broadcastd", "--certpath", "a"}, "/root")
	require.Error(t, err)
}

func TestDurationAccessors(t *testing.T) {
	c := DefaultConfig
	require.Equal(t, 240*60, int(c.HorizonAhead().Seconds()))
	require.Equal(t, 4, int(c.ScheduleDayLookahead().Hours()/24))
	require.Equal(t, 60, int(c.TickInterval().Seconds()))
	require.Equal(t, 30, int(c.TickDeadline().Seconds()))
	require.Equal(t, 10, int(c.LaunchTimeout().Seconds()))
	require.Equal(t, 600, int(c.PlanBufferAhead().Seconds()))
	require.Equal(t, 60, int(c.OnDemandFallbackCap().Seconds()))
	require.Equal(t, 30, int(c.CrashRetryWindow().Seconds()))
}
