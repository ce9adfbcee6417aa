package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/example/tokenreplay/internal/playback"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config, args ...string) (*fakeBinder, error) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &fakeBinder{fs: fs}, nil
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.UI != UIAuto {
		t.Errorf("UI = %q; want %q", cfg.UI, UIAuto)
	}

	if cfg.Tokenizer.Encoding != "cl100k_base" {
		t.Errorf("Tokenizer.Encoding = %q; want %q", cfg.Tokenizer.Encoding, "cl100k_base")
	}

	if cfg.Playback.SpeedMS != 100 {
		t.Errorf("Playback.SpeedMS = %d; want 100", cfg.Playback.SpeedMS)
	}

	if cfg.Playback.Autoplay {
		t.Error("Playback.Autoplay = true; want false")
	}

	if cfg.Share.Param != "s" {
		t.Errorf("Share.Param = %q; want %q", cfg.Share.Param, "s")
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("Server.ShutdownTimeout = %d; want 30", cfg.Server.ShutdownTimeout)
	}

	if cfg.Server.MaxTextBytes != 1<<20 {
		t.Errorf("Server.MaxTextBytes = %d; want %d", cfg.Server.MaxTextBytes, 1<<20)
	}
}

func TestConfigSpeed(t *testing.T) {
	cases := map[int]playback.Speed{
		50:  playback.SpeedFast,
		100: playback.SpeedNormal,
		200: playback.SpeedSlow,
		0:   playback.DefaultSpeed,
		75:  playback.DefaultSpeed,
	}

	for ms, want := range cases {
		cfg := DefaultConfig()
		cfg.Playback.SpeedMS = ms

		if got := cfg.Speed(); got != want {
			t.Errorf("Speed() with %dms = %v; want %v", ms, got, want)
		}
	}
}

// --- NormalizeUIMode ---

func TestNormalizeUIMode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", UIAuto},
		{"auto", UIAuto},
		{" ON ", UIOn},
		{"off", UIOff},
		{"tui", UIOn},
		{"plain", UIOff},
	}

	for _, tc := range cases {
		got, err := NormalizeUIMode(tc.in)
		if err != nil {
			t.Errorf("NormalizeUIMode(%q) error = %v", tc.in, err)
			continue
		}

		if got != tc.want {
			t.Errorf("NormalizeUIMode(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}

	if _, err := NormalizeUIMode("sometimes"); err == nil {
		t.Error("NormalizeUIMode(\"sometimes\") = nil error; want error")
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	for _, fk := range flagKeys {
		if fs.Lookup(fk.flag) == nil {
			t.Errorf("flag --%s not registered for key %q", fk.flag, fk.key)
		}
	}

	f := fs.Lookup("speed")
	if f == nil || f.DefValue != "100" {
		t.Errorf("--speed default = %v; want 100", f)
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()

	binder, err := newFlagBinder(defaults)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults {
		t.Errorf("Load() = %+v; want defaults %+v", cfg, defaults)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()

	binder, err := newFlagBinder(defaults,
		"--encoding=o200k_base",
		"--speed=50",
		"--autoplay",
		"--log-level=debug",
		"--ui=off",
		"--share-param=doc",
	)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tokenizer.Encoding != "o200k_base" {
		t.Errorf("Tokenizer.Encoding = %q; want %q", cfg.Tokenizer.Encoding, "o200k_base")
	}

	if cfg.Playback.SpeedMS != 50 {
		t.Errorf("Playback.SpeedMS = %d; want 50", cfg.Playback.SpeedMS)
	}

	if !cfg.Playback.Autoplay {
		t.Error("Playback.Autoplay = false; want true")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}

	if cfg.UI != UIOff {
		t.Errorf("UI = %q; want %q", cfg.UI, UIOff)
	}

	if cfg.Share.Param != "doc" {
		t.Errorf("Share.Param = %q; want %q", cfg.Share.Param, "doc")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TOKENREPLAY_LOG_LEVEL", "warn")
	t.Setenv("TOKENREPLAY_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("TOKENREPLAY_PLAYBACK_SPEED_MS", "200")
	t.Setenv("TOKENREPLAY_PLAYBACK_AUTOPLAY", "true")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}

	if cfg.Playback.SpeedMS != 200 {
		t.Errorf("Playback.SpeedMS = %d; want 200", cfg.Playback.SpeedMS)
	}

	if !cfg.Playback.Autoplay {
		t.Error("Playback.Autoplay = false; want true")
	}
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("TOKENREPLAY_PLAYBACK_SPEED_MS", "200")

	defaults := DefaultConfig()

	binder, err := newFlagBinder(defaults, "--speed=50")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playback.SpeedMS != 50 {
		t.Errorf("Playback.SpeedMS = %d; want 50", cfg.Playback.SpeedMS)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "tokenreplay.yaml")

	content := `
log_level: error
tokenizer:
  encoding: p50k_base
playback:
  speed_ms: 200
share:
  base_url: "https://replay.example.com/"
server:
  listen_addr: ":7777"
`

	err := os.WriteFile(cfgFile, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Flags registered but not set must not shadow file values.
	defaults := DefaultConfig()

	binder, err := newFlagBinder(defaults, "--server-listen-addr=:6666")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:        binder,
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Tokenizer.Encoding != "p50k_base" {
		t.Errorf("Tokenizer.Encoding = %q; want %q", cfg.Tokenizer.Encoding, "p50k_base")
	}

	if cfg.Playback.SpeedMS != 200 {
		t.Errorf("Playback.SpeedMS = %d; want 200", cfg.Playback.SpeedMS)
	}

	if cfg.Share.BaseURL != "https://replay.example.com/" {
		t.Errorf("Share.BaseURL = %q", cfg.Share.BaseURL)
	}

	if cfg.Server.ListenAddr != ":6666" {
		t.Errorf("Server.ListenAddr = %q; want flag value %q", cfg.Server.ListenAddr, ":6666")
	}
}

func TestLoad_InvalidUIMode(t *testing.T) {
	t.Setenv("TOKENREPLAY_UI", "sometimes")

	if _, err := Load(LoadOptions{Defaults: DefaultConfig()}); err == nil {
		t.Error("Load() = nil; want error for invalid ui mode")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	// Write invalid YAML
	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/tokenreplay.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tokenizer.Encoding != "cl100k_base" {
		t.Errorf("Tokenizer.Encoding = %q; want %q", cfg.Tokenizer.Encoding, "cl100k_base")
	}
}
