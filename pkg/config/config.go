// Package config loads the server configuration: defaults, an optional YAML
// file and environment overrides. Command line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/schulamt-zurich/zurichmcp/pkg/zurich"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "ZURICH_MCP_CONFIG"
	EnvTransport  = "MCP_TRANSPORT"
	EnvHost       = "MCP_HOST"
	EnvPort       = "PORT"
	EnvLogLevel   = "ZURICH_MCP_LOG_LEVEL"
)

// Transports understood by the server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig               `yaml:"server"`
	Log        LogConfig                  `yaml:"log"`
	Upstream   UpstreamConfig             `yaml:"upstream"`
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`
	Cache      CacheConfig                `yaml:"cache"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"` // stdio|sse
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	BaseURL   string `yaml:"base_url"` // public URL of the SSE endpoint, defaults to http://host:port
}

// Addr returns host:port for the SSE listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PublicURL returns BaseURL, or an http URL derived from the listen address.
func (s ServerConfig) PublicURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// UpstreamConfig configures the HTTP client of the open data APIs.
type UpstreamConfig struct {
	UserAgent string          `yaml:"user_agent"`
	Timeout   time.Duration   `yaml:"timeout"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
}

// EndpointsConfig overrides upstream base URLs. Empty fields keep the defaults.
type EndpointsConfig struct {
	CKAN     string `yaml:"ckan"`
	ParkenDD string `yaml:"parkendd"`
	WFS      string `yaml:"wfs"`
	Paris    string `yaml:"paris"`
	Tourism  string `yaml:"tourism"`
	SPARQL   string `yaml:"sparql"`
}

// RateLimitConfig is a token bucket per upstream service. rps 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CacheConfig bounds the in-process response memo. It is opt-in: ttl 0, the
// default, disables it.
type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`
}

// Default returns the built-in configuration.
func Default() Config {
	limits := make(map[string]RateLimitConfig)
	for service, rl := range zurich.DefaultRateLimits() {
		limits[service] = RateLimitConfig{RPS: rl.RPS, Burst: rl.Burst}
	}
	ep := zurich.DefaultEndpoints()
	return Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      "0.0.0.0",
			Port:      8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Upstream: UpstreamConfig{
			UserAgent: zurich.DefaultUserAgent,
			Timeout:   zurich.DefaultTimeout,
			Endpoints: EndpointsConfig{
				CKAN:     ep.CKAN,
				ParkenDD: ep.ParkenDD,
				WFS:      ep.WFS,
				Paris:    ep.Paris,
				Tourism:  ep.Tourism,
				SPARQL:   ep.SPARQL,
			},
		},
		RateLimits: limits,
		Cache: CacheConfig{
			Size: zurich.DefaultCacheSize,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path falls back to $ZURICH_MCP_CONFIG; without either
// no file is read. A named file that does not exist is an error.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTransport); ok && v != "" {
		c.Server.Transport = v
	}
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	c.Server.Transport = strings.ToLower(strings.TrimSpace(c.Server.Transport))
	switch c.Server.Transport {
	case TransportStdio, TransportSSE:
	default:
		errs = append(errs, fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportSSE, c.Server.Transport))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.BaseURL != "" {
		if err := checkURL("server.base_url", c.Server.BaseURL); err != nil {
			errs = append(errs, err)
		}
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout))
	}

	ep := c.Upstream.Endpoints
	for _, e := range []struct{ name, value string }{
		{"ckan", ep.CKAN},
		{"parkendd", ep.ParkenDD},
		{"wfs", ep.WFS},
		{"paris", ep.Paris},
		{"tourism", ep.Tourism},
		{"sparql", ep.SPARQL},
	} {
		if e.value == "" {
			continue
		}
		if err := checkURL("upstream.endpoints."+e.name, e.value); err != nil {
			errs = append(errs, err)
		}
	}

	known := zurich.DefaultRateLimits()
	for service, rl := range c.RateLimits {
		if _, ok := known[service]; !ok {
			errs = append(errs, fmt.Errorf("rate_limits: unknown service %q", service))
			continue
		}
		if rl.RPS < 0 || rl.Burst < 0 {
			errs = append(errs, fmt.Errorf("rate_limits.%s: rps and burst must not be negative", service))
		}
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size))
	}

	return errors.Join(errs...)
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

// ClientOptions converts the upstream settings for zurich.NewClient.
func (c *Config) ClientOptions(logger *slog.Logger) zurich.Options {
	limits := make(map[string]zurich.RateLimit, len(c.RateLimits))
	for service, rl := range c.RateLimits {
		limits[service] = zurich.RateLimit{RPS: rl.RPS, Burst: rl.Burst}
	}
	ep := c.Upstream.Endpoints
	return zurich.Options{
		Endpoints: zurich.Endpoints{
			CKAN:     ep.CKAN,
			ParkenDD: ep.ParkenDD,
			WFS:      ep.WFS,
			Paris:    ep.Paris,
			Tourism:  ep.Tourism,
			SPARQL:   ep.SPARQL,
		},
		UserAgent:  c.Upstream.UserAgent,
		Timeout:    c.Upstream.Timeout,
		RateLimits: limits,
		CacheTTL:   c.Cache.TTL,
		CacheSize:  c.Cache.Size,
		Logger:     logger,
	}
}

// NewLogger returns a slog logger writing to w. stdout carries the stdio
// transport, so callers pass os.Stderr.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
