package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onairstack/broadcastcore/pkg/encoder"
)

func TestProcessEncoderFactoryDefaultsToFakeWhenUnconfigured(t *testing.T) {
	cfg := DefaultConfig
	factory := ProcessEncoderFactory(&cfg)

	enc := factory("ch1")
	_, ok := enc.(*encoder.Fake)
	require.True(t, ok)
}

func TestProcessEncoderFactoryUsesProcessFactoryWhenConfigured(t *testing.T) {
	cfg := DefaultConfig
	cfg.EncoderPath = "/usr/bin/true"
	factory := ProcessEncoderFactory(&cfg)

	enc := factory("ch1")
	_, ok := enc.(*encoder.Process)
	require.True(t, ok)
}
