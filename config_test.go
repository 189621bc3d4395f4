package main

import (
	"flag"
	"io"
	"reflect"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("chathub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8081" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.Buffer != 256 || cfg.ReadLimit != 4096 {
		t.Fatalf("expected default buffer and read limit, got %d %d", cfg.Buffer, cfg.ReadLimit)
	}
	if cfg.PingPeriod != 27*time.Second || cfg.PongWait != 30*time.Second {
		t.Fatalf("expected default keepalive, got %s %s", cfg.PingPeriod, cfg.PongWait)
	}
	if cfg.StopTimeout != 10*time.Second || cfg.KillTimeout != time.Second {
		t.Fatalf("expected default timeouts, got %s %s", cfg.StopTimeout, cfg.KillTimeout)
	}
	if cfg.Origin != "" || len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no origin restrictions, got %q %v", cfg.Origin, cfg.CORSOrigins)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("CHATHUB_ADDR", "env-addr")
	t.Setenv("CHATHUB_BUFFER", "32")
	t.Setenv("CHATHUB_CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("CHATHUB_LOG_FORMAT", "json")

	args := []string{
		"-addr", "flag-addr",
		"-pong-wait", "0",
		"-ping-period", "5s",
	}
	cfg, err := parseConfig(newFlagSet(), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "flag-addr" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if cfg.Buffer != 32 {
		t.Fatalf("expected env buffer, got %d", cfg.Buffer)
	}
	if want := []string{"http://a.example", "http://b.example"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("expected env cors origins %v, got %v", want, cfg.CORSOrigins)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected env log format, got %q", cfg.LogFormat)
	}
	if cfg.PongWait != 0 || cfg.PingPeriod != 5*time.Second {
		t.Fatalf("expected flag keepalive, got %s %s", cfg.PingPeriod, cfg.PongWait)
	}

	cfg, err = parseConfig(newFlagSet(), []string{"-cors-origins", " http://c.example , "})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if want := []string{"http://c.example"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("expected flag cors origins %v, got %v", want, cfg.CORSOrigins)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"-buffer", "0"},
		{"-read-limit", "-1"},
		{"-ping-period", "30s", "-pong-wait", "10s"},
		{"-ping-period", "0"},
		{"-no-such-flag"},
	} {
		if _, err := parseConfig(newFlagSet(), args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}

	t.Setenv("CHATHUB_BUFFER", "lots")
	if _, err := parseConfig(newFlagSet(), nil); err == nil {
		t.Fatal("expected error for bad env value")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger(io.Discard, "debug", "json"); err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if _, err := newLogger(io.Discard, "loud", "text"); err == nil {
		t.Fatal("expected error for bad level")
	}
	if _, err := newLogger(io.Discard, "info", "xml"); err == nil {
		t.Fatal("expected error for bad format")
	}
}
