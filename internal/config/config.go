package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Scratch struct {
		Driver    string `yaml:"driver"` // memory | sqlite | redis
		Path      string `yaml:"path"`
		Namespace string `yaml:"namespace"`
	} `yaml:"scratch"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL           string `yaml:"ttl"`
		SeedFile      string `yaml:"seed_file"`
		RevealAnswers bool   `yaml:"reveal_answers"`
	} `yaml:"quiz"`
	Session struct {
		Tick            string `yaml:"tick"`
		WarningBelow    int    `yaml:"warning_below"`
		CheckpointEvery int    `yaml:"checkpoint_every"`
	} `yaml:"session"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.API.BaseURL = "http://localhost:8080"
	cfg.API.Timeout = "30s"
	cfg.Scratch.Driver = "sqlite"
	cfg.Scratch.Path = "quiztaker-scratch.db"
	cfg.Quiz.TTL = "10m"
	cfg.Session.Tick = "1s"
	cfg.Session.WarningBelow = 300
	cfg.Session.CheckpointEvery = 15
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load reads YAML config from path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
