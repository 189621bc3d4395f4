package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// config is read from CHATHUB_* environment variables first; flags override.
type config struct {
	Addr        string        `env:"CHATHUB_ADDR"         envDefault:"127.0.0.1:8081"`
	StopTimeout time.Duration `env:"CHATHUB_STOP_TIMEOUT" envDefault:"10s"`
	KillTimeout time.Duration `env:"CHATHUB_KILL_TIMEOUT" envDefault:"1s"`
	Origin      string        `env:"CHATHUB_ORIGIN"`
	CORSOrigins []string      `env:"CHATHUB_CORS_ORIGINS" envSeparator:","`
	MetricsTick time.Duration `env:"CHATHUB_METRICS_TICK" envDefault:"60s"`
	Buffer      int           `env:"CHATHUB_BUFFER"       envDefault:"256"`
	ReadLimit   int64         `env:"CHATHUB_READ_LIMIT"   envDefault:"4096"`
	PingPeriod  time.Duration `env:"CHATHUB_PING_PERIOD"  envDefault:"27s"`
	PongWait    time.Duration `env:"CHATHUB_PONG_WAIT"    envDefault:"30s"`
	LogLevel    string        `env:"CHATHUB_LOG_LEVEL"    envDefault:"info"`
	LogFormat   string        `env:"CHATHUB_LOG_FORMAT"   envDefault:"text"`
}

func parseConfig(fs *flag.FlagSet, args []string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http service address")
	fs.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "stop timeout")
	fs.DurationVar(&cfg.KillTimeout, "kill-timeout", cfg.KillTimeout, "kill timeout")
	fs.StringVar(&cfg.Origin, "origin", cfg.Origin, "websocket server checks Origin headers against this scheme://host[:port]")
	fs.Func("cors-origins", "comma-separated origins allowed by CORS (default any)", func(v string) error {
		cfg.CORSOrigins = splitCSV(v)
		return nil
	})
	fs.DurationVar(&cfg.MetricsTick, "metrics.tick", cfg.MetricsTick, "metrics: duration between reports")
	fs.IntVar(&cfg.Buffer, "buffer", cfg.Buffer, "messages buffered per participant before it is dropped")
	fs.Int64Var(&cfg.ReadLimit, "read-limit", cfg.ReadLimit, "largest inbound frame in bytes")
	fs.DurationVar(&cfg.PingPeriod, "ping-period", cfg.PingPeriod, "keepalive ping period, 0 disables")
	fs.DurationVar(&cfg.PongWait, "pong-wait", cfg.PongWait, "time allowed to read the next pong, 0 disables")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg config) validate() error {
	if cfg.Buffer <= 0 {
		return errors.New("buffer must be positive")
	}
	if cfg.ReadLimit <= 0 {
		return errors.New("read limit must be positive")
	}
	if cfg.PingPeriod > 0 && cfg.PongWait > 0 && cfg.PingPeriod >= cfg.PongWait {
		return fmt.Errorf("ping period %s must be less than pong wait %s", cfg.PingPeriod, cfg.PongWait)
	}
	if cfg.PingPeriod <= 0 && cfg.PongWait > 0 {
		return errors.New("pong wait needs a ping period")
	}
	return nil
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
