package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/reoring/msgskema/binder"
	"github.com/reoring/msgskema/overlay"
)

// Config is the CLI configuration. Flags override file values.
type Config struct {
	LogLevel    zerolog.Level
	Language    string
	Overlay     string
	OverlayMode overlay.Mode
	Policy      string
	Direction   binder.Direction
	MetricsAddr string
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		LogLevel:  zerolog.InfoLevel,
		Language:  "en",
		Direction: binder.Both,
	}
}

type fileConfig struct {
	LogLevel    string `toml:"log_level"`
	Language    string `toml:"language"`
	Overlay     string `toml:"overlay"`
	OverlayMode string `toml:"overlay_mode"`
	Policy      string `toml:"policy"`
	Direction   string `toml:"direction"`
	MetricsAddr string `toml:"metrics_addr"`
}

// loadConfig reads a TOML config file on top of DefaultConfig. A missing
// file is not an error when optional is set.
func loadConfig(path string, optional bool) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("load config: unknown keys %v", undec)
	}

	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("language") {
		cfg.Language = strings.TrimSpace(raw.Language)
	}

	if meta.IsDefined("overlay") {
		cfg.Overlay = strings.TrimSpace(raw.Overlay)
	}

	if meta.IsDefined("overlay_mode") {
		mode, err := parseOverlayMode(raw.OverlayMode)
		if err != nil {
			return Config{}, err
		}
		cfg.OverlayMode = mode
	}

	if meta.IsDefined("policy") {
		cfg.Policy = strings.TrimSpace(raw.Policy)
	}

	if meta.IsDefined("direction") {
		d, err := binder.ParseDirection(raw.Direction)
		if err != nil {
			return Config{}, fmt.Errorf("parse direction: %w", err)
		}
		cfg.Direction = d
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}

func parseOverlayMode(s string) (overlay.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return overlay.Merge, nil
	case "replace":
		return overlay.Replace, nil
	}
	return overlay.Merge, fmt.Errorf("unknown overlay_mode %q", s)
}
