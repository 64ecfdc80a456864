package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/scan"
	"github.com/rpggio/tracereplay/internal/domain/session"
	"github.com/rpggio/tracereplay/internal/trace"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRACEREPLAY_"

// Transport modes.
const (
	ModeStdio   = "stdio"
	ModeHTTP    = "http"
	ModeJSONRPC = "jsonrpc"
)

// ErrInvalid indicates a configuration that failed validation.
var ErrInvalid = errors.New("invalid config")

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Transport TransportConfig `yaml:"transport" envPrefix:"TRANSPORT_"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Artifacts ArtifactsConfig `yaml:"artifacts" envPrefix:"ARTIFACTS_"`
	Replay    ReplayConfig    `yaml:"replay" envPrefix:"REPLAY_"`
	Scan      ScanConfig      `yaml:"scan" envPrefix:"SCAN_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// TransportConfig selects how clients reach the server.
type TransportConfig struct {
	Mode string `yaml:"mode" env:"MODE"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Path, when set, sends logs to a size-capped file instead of the console.
	Path string `yaml:"path" env:"PATH"`
}

// ArtifactsConfig locates the trace manifest, traces and security report.
// BaseURL takes precedence over Dir.
type ArtifactsConfig struct {
	Dir     string `yaml:"dir" env:"DIR"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

type ReplayConfig struct {
	TotalPulses  int           `yaml:"total_pulses" env:"TOTAL_PULSES"`
	StepPause    time.Duration `yaml:"step_pause" env:"STEP_PAUSE"`
	DefaultTrace string        `yaml:"default_trace" env:"DEFAULT_TRACE"`
}

type ScanConfig struct {
	Delay time.Duration `yaml:"delay" env:"DELAY"`
}

// AuthConfig maps bearer tokens to tenants. It is ignored in stdio mode.
type AuthConfig struct {
	Enabled bool              `yaml:"enabled" env:"ENABLED"`
	Tokens  map[string]string `yaml:"tokens" env:"TOKENS"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: ModeStdio,
		},
		DB: DBConfig{
			Path: ":memory:",
		},
		Log: LogConfig{
			Level: "info",
		},
		Artifacts: ArtifactsConfig{
			Dir: "artifacts",
		},
		Replay: ReplayConfig{
			TotalPulses:  pulse.DefaultTotal,
			StepPause:    session.DefaultStepPause,
			DefaultTrace: trace.DefaultTrace,
		},
		Scan: ScanConfig{
			Delay: scan.DefaultDelay,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables, in that order, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be served.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case ModeStdio, ModeHTTP, ModeJSONRPC:
	default:
		return fmt.Errorf("%w: transport mode %q", ErrInvalid, c.Transport.Mode)
	}
	if c.Transport.Mode != ModeStdio && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("%w: server port %d", ErrInvalid, c.Server.Port)
	}
	if c.Replay.TotalPulses <= 0 {
		return fmt.Errorf("%w: replay total_pulses must be positive", ErrInvalid)
	}
	if c.Replay.StepPause < 0 || c.Scan.Delay < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalid)
	}
	if c.Artifacts.Dir == "" && c.Artifacts.BaseURL == "" {
		return fmt.Errorf("%w: artifacts dir or base_url is required", ErrInvalid)
	}
	// A file database may already hold keys; an in-memory one starts empty.
	if c.AuthRequired() && len(c.Auth.Tokens) == 0 && c.DB.Path == ":memory:" {
		return fmt.Errorf("%w: auth enabled without tokens", ErrInvalid)
	}
	return nil
}

// AuthRequired reports whether network requests must carry a bearer token.
func (c Config) AuthRequired() bool {
	return c.Auth.Enabled && c.Transport.Mode != ModeStdio
}

// Addr is the listen address for the network transports.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// SessionConfig converts the replay and scan settings for the session service.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		TotalPulses:  c.Replay.TotalPulses,
		StepPause:    c.Replay.StepPause,
		ScanDelay:    c.Scan.Delay,
		DefaultTrace: c.Replay.DefaultTrace,
	}
}
