// Package config loads and stores the viewer settings in a TOML file under
// the XDG config directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	appDir   = "flowvis"
	fileName = "config.toml"
)

type Window struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	RefreshFPS int    `toml:"refresh_fps"`
	Samples    int    `toml:"samples"`
}

type Camera struct {
	FOV      float32 `toml:"fov"`
	Near     float32 `toml:"near"`
	Far      float32 `toml:"far"`
	Distance float32 `toml:"distance"`
	Scale    float32 `toml:"scale"`
}

type Config struct {
	LogLevel   string     `toml:"log_level"`
	WatchChart bool       `toml:"watch_chart"`
	ClearColor [4]float32 `toml:"clear_color"`
	// SpinDegPerSec turns the model about the vertical axis; 0 disables it.
	SpinDegPerSec float32 `toml:"spin_deg_per_sec"`
	Window        Window  `toml:"window"`
	Camera        Camera  `toml:"camera"`
}

func Default() Config {
	return Config{
		LogLevel:   "info",
		WatchChart: true,
		ClearColor: [4]float32{1, 1, 1, 1},
		Window: Window{
			Width:      1000,
			Height:     800,
			Title:      "flowvis",
			RefreshFPS: 60,
			Samples:    4,
		},
		Camera: Camera{
			FOV:      60,
			Near:     0.1,
			Far:      100,
			Distance: 2,
			Scale:    0.1,
		},
	}
}

// Dir is $XDG_CONFIG_HOME/flowvis, falling back to ~/.config/flowvis.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appDir)
}

func Path() string {
	return filepath.Join(Dir(), fileName)
}

// Load reads path on top of the defaults, so keys missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	conf := Default()
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "path", path, "key", key.String())
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return conf, nil
}

// LoadOrInit loads path, writing the defaults there first when it does not
// exist yet.
func LoadOrInit(path string) (Config, error) {
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("initializing config", "path", path)
		conf := Default()
		if err := Save(path, conf); err != nil {
			return Config{}, err
		}
		return conf, nil
	case err != nil:
		return Config{}, fmt.Errorf("stat config: %w", err)
	}
	return Load(path)
}

func Save(path string, conf Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip planes near=%g far=%g must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	for _, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("clear_color %v must lie in [0,1]", c.ClearColor)
		}
	}
	return nil
}

// Level maps log_level to a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
