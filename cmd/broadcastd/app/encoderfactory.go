package app

import (
	"log/slog"

	"github.com/onairstack/broadcastcore/pkg/encoder"
)

// ProcessEncoderFactory returns the production encoder.Factory: launching
// cfg.EncoderPath as a child process per channel, behind pkg/encoder's
// opaque process boundary. An empty EncoderPath yields encoder.Fake
// instances instead, so broadcastd starts with no external transcoder
// installed; a Fake never reports readiness on its own, so channel
// launches time out and no channel reaches streaming.
func ProcessEncoderFactory(cfg *ServerConfig) encoder.Factory {
	if cfg.EncoderPath == "" {
		return func(string) encoder.Encoder { return encoder.NewFake() }
	}
	pf := encoder.ProcessFactory{Path: cfg.EncoderPath, Logger: slog.Default()}
	return pf.Factory()
}
