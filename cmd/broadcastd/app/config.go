package app

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"

	"github.com/onairstack/broadcastcore/pkg/logging"
)

// ServerConfig is the effective, fully-resolved configuration for a
// broadcastd process: compiled-in defaults, overridden by an optional
// config file, overridden by command-line flags, overridden by
// environment variables.
type ServerConfig struct {
	LogFormat string `json:"logformat"`
	LogLevel  string `json:"loglevel"`
	Port      int    `json:"port"`
	TimeoutS  int    `json:"timeoutS"`

	// ChannelsFile points at a JSON file describing the Channel set this
	// process serves. Empty means "no channels configured" — useful for
	// running the HTTP surface standalone in tests.
	ChannelsFile string `json:"channelsfile"`

	// EncoderPath is the external transcoder binary ChannelManager launches
	// per channel, behind the opaque encoder boundary.
	EncoderPath string `json:"encoderpath"`

	HorizonAheadMinutes     int `json:"horizonaheadminutes"`
	ScheduleDayLookaheadDays int `json:"scheduledaylookaheaddays"`
	TickIntervalS           int `json:"tickintervals"`
	TickDeadlineS           int `json:"tickdeadlines"`

	LaunchTimeoutS      int `json:"launchtimeouts"`
	PlanBufferAheadS    int `json:"planbufferaheads"`
	OnDemandFallbackCapS int `json:"ondemandfallbackcaps"`
	CrashRetryWindowS   int `json:"crashretrywindows"`

	// Domains is a comma-separated list of domains for Let's Encrypt.
	Domains string `json:"domains"`
	// CertPath/KeyPath are a static TLS certificate/key pair.
	CertPath string `json:"-"`
	KeyPath  string `json:"-"`
}

// DefaultConfig holds compiled-in defaults as a package-level var.
var DefaultConfig = ServerConfig{
	LogFormat:                "text",
	LogLevel:                 "INFO",
	Port:                     8888,
	TimeoutS:                 60,
	HorizonAheadMinutes:      240,
	ScheduleDayLookaheadDays: 4,
	TickIntervalS:            60,
	TickDeadlineS:            30,
	LaunchTimeoutS:           10,
	PlanBufferAheadS:         600,
	OnDemandFallbackCapS:     60,
	CrashRetryWindowS:        30,
}

// HorizonAhead, ScheduleDayLookahead, TickInterval, TickDeadline,
// LaunchTimeout, PlanBufferAhead, OnDemandFallbackCap, and CrashRetryWindow
// convert the config's second/minute-denominated fields into durations for
// the schedule/channel packages' own Config structs.

func (c ServerConfig) HorizonAhead() time.Duration {
	return time.Duration(c.HorizonAheadMinutes) * time.Minute
}
func (c ServerConfig) ScheduleDayLookahead() time.Duration {
	return time.Duration(c.ScheduleDayLookaheadDays) * 24 * time.Hour
}
func (c ServerConfig) TickInterval() time.Duration { return time.Duration(c.TickIntervalS) * time.Second }
func (c ServerConfig) TickDeadline() time.Duration { return time.Duration(c.TickDeadlineS) * time.Second }
func (c ServerConfig) LaunchTimeout() time.Duration {
	return time.Duration(c.LaunchTimeoutS) * time.Second
}
func (c ServerConfig) PlanBufferAhead() time.Duration {
	return time.Duration(c.PlanBufferAheadS) * time.Second
}
func (c ServerConfig) OnDemandFallbackCap() time.Duration {
	return time.Duration(c.OnDemandFallbackCapS) * time.Second
}
func (c ServerConfig) CrashRetryWindow() time.Duration {
	return time.Duration(c.CrashRetryWindowS) * time.Second
}

// LoadConfig loads defaults, then a config file (if named via -cfg), then
// command-line flags, then environment variables (prefix
// BROADCASTCORE_), in increasing priority order.
func LoadConfig(args []string, cwd string) (*ServerConfig, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig, "json"), nil); err != nil {
		return nil, err
	}

	f := pflag.NewFlagSet("broadcastd", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("channelsfile", k.String("channelsfile"), "path to a JSON file describing the channel set")
	f.String("encoderpath", k.String("encoderpath"), "path to the external encoder binary launched per channel")
	f.Int("timeout", k.Int("timeoutS"), "timeout for all requests (seconds)")
	f.Int("horizonaheadminutes", k.Int("horizonaheadminutes"), "playlog horizon to keep materialized ahead of now (minutes)")
	f.Int("scheduledaylookaheaddays", k.Int("scheduledaylookaheaddays"), "ScheduleDay lookahead (days)")
	f.Int("tickintervals", k.Int("tickintervals"), "horizon builder tick interval (seconds)")
	f.Int("tickdeadlines", k.Int("tickdeadlines"), "horizon builder per-tick deadline (seconds)")
	f.Int("launchtimeouts", k.Int("launchtimeouts"), "encoder launch timeout (seconds)")
	f.Int("planbufferaheads", k.Int("planbufferaheads"), "playout plan lookahead buffer (seconds)")
	f.Int("ondemandfallbackcaps", k.Int("ondemandfallbackcaps"), "max duration of an on-demand fallback event (seconds)")
	f.Int("crashretrywindows", k.Int("crashretrywindows"), "encoder crash relaunch retry window (seconds)")
	f.String("domains", k.String("domains"), "comma-separated DNS domains for an auto certificate from Let's Encrypt")
	f.String("certpath", k.String("certpath"), "path to a TLS certificate file (for HTTPS)")
	f.String("keypath", k.String("keypath"), "path to a TLS private key file (for HTTPS)")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	if *cfgFile != "" {
		if err := k.Load(file.Provider(*cfgFile), json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %w", err)
	}
	if f.Changed("timeout") {
		timeoutS, _ := f.GetInt("timeout")
		if err := k.Load(confmap.Provider(map[string]interface{}{"timeoutS": timeoutS}, "."), nil); err != nil {
			return nil, fmt.Errorf("parsing cli: %w", err)
		}
	}

	if err := k.Load(env.Provider("BROADCASTCORE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "BROADCASTCORE_")), "_", ".")
	}), nil); err != nil {
		return nil, err
	}

	if err := checkTLSParams(k); err != nil {
		return nil, err
	}

	channelsFile := k.String("channelsfile")
	if channelsFile != "" && !path.IsAbs(channelsFile) {
		if err := k.Load(structs.Provider(struct {
			ChannelsFile string `json:"channelsfile"`
		}{path.Join(cwd, channelsFile)}, "json"), nil); err != nil {
			return nil, err
		}
	}

	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func checkTLSParams(k *koanf.Koanf) error {
	domains := k.String("domains")
	certPath := k.String("certpath")
	keyPath := k.String("keypath")
	switch {
	case domains != "":
		if certPath != "" || keyPath != "" {
			return fmt.Errorf("cannot use certpath and keypath together with Let's Encrypt domains")
		}
		return nil
	case certPath == "" && keyPath == "":
		return nil
	case certPath != "" && keyPath != "":
		return nil
	default:
		return fmt.Errorf("certpath and keypath must both be empty or set")
	}
}
