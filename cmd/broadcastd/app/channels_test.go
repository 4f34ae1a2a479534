package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/model"
)

func TestLoadChannelsEmptyPath(t *testing.T) {
	channels, err := LoadChannels("")
	require.NoError(t, err)
	require.Nil(t, channels)
}

func TestLoadChannelsReadsFlatArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	raw := `[{"ChannelID":"ch1","Timezone":"UTC","BroadcastDayStartMinutes":360,"GridMinutes":30}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	channels, err := LoadChannels(path)
	require.NoError(t, err)
	require.Equal(t, []model.Channel{{
		ChannelID: "ch1", Timezone: "UTC", BroadcastDayStartMinutes: 360, GridMinutes: 30,
	}}, channels)
}

func TestLoadChannelsMissingFile(t *testing.T) {
	_, err := LoadChannels("/does/not/exist.json")
	require.Error(t, err)
}

func TestLoadChannelsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := LoadChannels(path)
	require.Error(t, err)
}
