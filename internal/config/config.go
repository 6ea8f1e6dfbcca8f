// Package config loads the bot configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "config.yaml"

// Environment variables that override file values.
const (
	EnvToken         = "ONBOARD_TOKEN"
	EnvRedisAddr     = "ONBOARD_REDIS_ADDR"
	EnvRedisPassword = "ONBOARD_REDIS_PASSWORD"
	EnvEncryptionKey = "ONBOARD_ENCRYPTION_KEY"
	// EnvFallbackKeys holds comma separated retired keys, tried when decrypting.
	EnvFallbackKeys = "ONBOARD_ENCRYPTION_FALLBACK_KEYS"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrMissingToken is returned by RequireToken when no bot token is configured.
var ErrMissingToken = errors.New("missing bot token (set token or " + EnvToken + ")")

// Commands names the bot commands, without the leading slash.
type Commands struct {
	Start  string `yaml:"start"`
	Begin  string `yaml:"begin"`
	Cancel string `yaml:"cancel"`
}

// Navigation holds the optional back and exit button labels.
type Navigation struct {
	Back string `yaml:"back"`
	Exit string `yaml:"exit"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// StoreConfig selects and configures the session backend.
type StoreConfig struct {
	Backend         string      `yaml:"backend"`
	Dir             string      `yaml:"dir"`
	Redis           RedisConfig `yaml:"redis"`
	DistributedLock bool        `yaml:"distributed_lock"`

	// EncryptionKey is a base64 AES-256 key; when set, answers are encrypted at rest.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the whole configuration file.
type Config struct {
	Token         string      `yaml:"token"`
	Welcome       string      `yaml:"welcome"`
	Entry         string      `yaml:"entry"`
	Terminal      string      `yaml:"terminal"`
	Reprompt      string      `yaml:"reprompt"`
	SummaryHeader string      `yaml:"summary_header"`
	Commands      Commands    `yaml:"commands"`
	Navigation    Navigation  `yaml:"navigation"`
	Store         StoreConfig `yaml:"store"`
	HTTP          HTTPConfig  `yaml:"http"`
	LogLevel      string      `yaml:"log_level"`
	LogFormat     string      `yaml:"log_format"`

	// States keeps the order of the configuration document.
	States []graph.Definition `yaml:"-"`
}

// document mirrors Config but keeps states as a raw node, so their order survives.
type document struct {
	Config `yaml:",inline"`
	States yaml.Node `yaml:"states"`
}

// Load reads a configuration file, applies .env and environment overrides,
// fills defaults and validates the settings (not the graph, see Graph).
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := LoadEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads variables from .env files (default ".env") into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Parse decodes a configuration document and fills defaults.
func Parse(data []byte) (*Config, error) {
	var doc document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	states, err := decodeStates(&doc.States)
	if err != nil {
		return nil, err
	}

	cfg := doc.Config
	cfg.States = states
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Welcome == "" {
		c.Welcome = domain.DefaultWelcomeText
	}
	if c.Entry == "" {
		c.Entry = domain.DefaultEntryNodeID
	}
	if c.Terminal == "" {
		c.Terminal = domain.DefaultTerminalNodeID
	}
	if c.Reprompt == "" {
		c.Reprompt = domain.DefaultRepromptText
	}
	if c.SummaryHeader == "" {
		c.SummaryHeader = domain.DefaultSummaryHeader
	}
	if c.Commands.Start == "" {
		c.Commands.Start = domain.CommandStart
	}
	if c.Commands.Begin == "" {
		c.Commands.Begin = domain.CommandBegin
	}
	if c.Commands.Cancel == "" {
		c.Commands.Cancel = domain.CommandCancel
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// ApplyEnv overrides secrets and addresses from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Redis.Addr = v
	}
	if v, ok := lookup(EnvRedisPassword); ok && v != "" {
		c.Store.Redis.Password = v
	}
	if v, ok := lookup(EnvEncryptionKey); ok && v != "" {
		c.Store.EncryptionKey = v
	}
	if v, ok := lookup(EnvFallbackKeys); ok && v != "" {
		c.Store.FallbackKeys = strings.Split(v, ",")
	}
}

// Validate checks the settings, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q (want %s, %s or %s)",
			c.Store.Backend, BackendMemory, BackendFile, BackendRedis))
	}

	if c.Store.DistributedLock && c.Store.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("store.distributed_lock requires the redis backend"))
	}
	if c.Store.EncryptionKey == "" && len(c.Store.FallbackKeys) > 0 {
		errs = append(errs, fmt.Errorf("store.fallback_keys requires store.encryption_key"))
	}
	if _, err := c.Encryption(); err != nil {
		errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
	}
	if c.Store.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("store.redis.ttl must not be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("log_format: %w", err))
	}

	names := map[string]string{}
	for field, name := range map[string]string{
		"commands.start":  c.Commands.Start,
		"commands.begin":  c.Commands.Begin,
		"commands.cancel": c.Commands.Cancel,
	} {
		if other, dup := names[name]; dup {
			first, second := other, field
			if second < first {
				first, second = second, first
			}
			errs = append(errs, fmt.Errorf("%s and %s both use %q", first, second, name))
		}
		names[name] = field
	}

	if c.Navigation.Back != "" && c.Navigation.Back == c.Navigation.Exit {
		errs = append(errs, fmt.Errorf("navigation.back and navigation.exit must differ"))
	}

	return errors.Join(errs...)
}

// RequireToken fails when no bot token is configured.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Encryption decodes the session encryption keys. It returns nil when encryption is off.
func (c *Config) Encryption() (*middleware.EncryptionConfig, error) {
	if c.Store.EncryptionKey == "" {
		return nil, nil
	}
	active, err := middleware.ParseKey(c.Store.EncryptionKey)
	if err != nil {
		return nil, err
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Store.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

// Graph builds the question graph from the configured states.
func (c *Config) Graph() (*graph.Store, error) {
	return graph.Load(c.States,
		graph.WithEntry(c.Entry),
		graph.WithTerminal(c.Terminal),
		graph.WithReservedLabels(c.Navigation.Back, c.Navigation.Exit),
	)
}
