package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/core/client/middleware"
	"github.com/leofalp/unillm/core/resolver"
	"github.com/leofalp/unillm/providers/ai"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable Discover reads when no path is given.
const EnvConfigPath = "UNILLM_CONFIG"

// Config is the client configuration parsed from YAML.
type Config struct {
	// EnvFile is a dotenv file whose variables back API keys read from the
	// environment. Relative paths are resolved against the config file.
	EnvFile string `yaml:"env_file"`

	Defaults  OptionsConfig             `yaml:"defaults"`
	Aliases   map[string]string         `yaml:"aliases"`
	Providers map[string]ProviderConfig `yaml:"providers"`

	Timeout time.Duration `yaml:"timeout"`
	Retry   *RetryConfig  `yaml:"retry"`

	dir string
}

// OptionsConfig mirrors ai.ChatOptions for the client defaults.
type OptionsConfig struct {
	Temperature     *float64 `yaml:"temperature"`
	MaxTokens       *int     `yaml:"max_tokens"`
	TopP            *float64 `yaml:"top_p"`
	StopSequences   []string `yaml:"stop_sequences"`
	Seed            *int64   `yaml:"seed"`
	ReasoningEffort string   `yaml:"reasoning_effort"`

	CaptureUsage              *bool `yaml:"capture_usage"`
	CaptureContent            *bool `yaml:"capture_content"`
	CaptureReasoningContent   *bool `yaml:"capture_reasoning_content"`
	CaptureToolCalls          *bool `yaml:"capture_tool_calls"`
	NormalizeReasoningContent *bool `yaml:"normalize_reasoning_content"`
}

// ProviderConfig overrides where and how one adapter kind is reached. The
// map key in Config.Providers is the kind tag ("openai", "ollama", ...).
type ProviderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`

	// AuthHeaders replaces the provider authentication with these headers,
	// e.g. for a gateway that takes its own token.
	AuthHeaders map[string]string `yaml:"auth_headers"`
}

// RetryConfig enables the retry middleware.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// Load reads YAML configuration from disk and validates the result.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", absPath, err)
	}
	cfg.dir = filepath.Dir(absPath)
	return cfg, nil
}

// Discover loads the file at path, or at $UNILLM_CONFIG when path is empty.
// With neither set it returns an empty configuration.
func Discover(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return &Config{}, nil
	}
	return Load(path)
}

// Parse decodes and validates YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c *Config) Validate() error {
	switch ai.ReasoningEffort(c.Defaults.ReasoningEffort) {
	case "", ai.ReasoningMinimal, ai.ReasoningLow, ai.ReasoningMedium, ai.ReasoningHigh:
	default:
		return fmt.Errorf("defaults.reasoning_effort %q must be one of minimal, low, medium or high", c.Defaults.ReasoningEffort)
	}
	if c.Defaults.MaxTokens != nil && *c.Defaults.MaxTokens <= 0 {
		return fmt.Errorf("defaults.max_tokens must be positive, got %d", *c.Defaults.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retry != nil && c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}

	for alias, target := range c.Aliases {
		if strings.TrimSpace(alias) == "" {
			return errors.New("alias name must not be empty")
		}
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("alias %q target must not be empty", alias)
		}
		if namespace, ok := ai.ParseModelName(target).Namespace(); ok {
			if _, known := ai.KindFromTag(namespace); !known {
				return fmt.Errorf("alias %q: %w %q", alias, ai.ErrUnknownAdapterKind, namespace)
			}
		}
	}

	for tag, provider := range c.Providers {
		if err := validateProvider(tag, provider); err != nil {
			return err
		}
	}
	return nil
}

func validateProvider(tag string, provider ProviderConfig) error {
	if _, ok := ai.KindFromTag(tag); !ok {
		return fmt.Errorf("provider %s: %w", tag, ai.ErrUnknownAdapterKind)
	}
	if provider.BaseURL != "" {
		parsed, err := url.Parse(provider.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("provider %s: base_url %q must be an absolute URL", tag, provider.BaseURL)
		}
	}

	credentials := 0
	for _, set := range []bool{provider.APIKey != "", provider.APIKeyEnv != "", len(provider.AuthHeaders) > 0} {
		if set {
			credentials++
		}
	}
	if credentials > 1 {
		return fmt.Errorf("provider %s: api_key, api_key_env and auth_headers are mutually exclusive", tag)
	}

	for name := range provider.AuthHeaders {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("provider %s: header name must not be empty", tag)
		}
	}
	return nil
}

// ChatOptions returns the configured client defaults.
func (c *Config) ChatOptions() ai.ChatOptions {
	d := c.Defaults
	return ai.ChatOptions{
		Temperature:               d.Temperature,
		MaxTokens:                 d.MaxTokens,
		TopP:                      d.TopP,
		StopSequences:             slices.Clone(d.StopSequences),
		Seed:                      d.Seed,
		ReasoningEffort:           ai.ReasoningEffort(d.ReasoningEffort),
		CaptureUsage:              d.CaptureUsage,
		CaptureContent:            d.CaptureContent,
		CaptureReasoningContent:   d.CaptureReasoningContent,
		CaptureToolCalls:          d.CaptureToolCalls,
		NormalizeReasoningContent: d.NormalizeReasoningContent,
	}
}

// Lookup returns the variable lookup used to materialize API keys: the
// process environment first, then the env file when one is configured.
func (c *Config) Lookup() (ai.LookupFunc, error) {
	if c.EnvFile == "" {
		return os.LookupEnv, nil
	}

	path := c.EnvFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}

	return func(name string) (string, bool) {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value, true
		}
		value, ok := values[name]
		return value, ok
	}, nil
}

// Chain builds the resolver chain described by the configuration: aliases
// become the model mapper and provider overrides the service target stage.
func (c *Config) Chain() (resolver.Chain, error) {
	lookup, err := c.Lookup()
	if err != nil {
		return resolver.Chain{}, err
	}

	chain := resolver.Chain{Lookup: lookup}
	if len(c.Aliases) > 0 {
		chain.ModelMapper = resolver.Aliases(c.Aliases)
	}
	if len(c.Providers) > 0 {
		chain.TargetResolver = c.resolveTarget
	}
	return chain, nil
}

func (c *Config) provider(kind ai.AdapterKind) (ProviderConfig, bool) {
	provider, ok := c.Providers[kind.String()]
	return provider, ok
}

// resolveTarget applies provider overrides after the mapper, so an alias
// that switches kind picks up the settings of the new kind.
func (c *Config) resolveTarget(_ context.Context, target ai.ServiceTarget) (*ai.ServiceTarget, error) {
	provider, ok := c.provider(target.Model.Kind)
	if !ok {
		return nil, nil
	}
	if provider.BaseURL != "" {
		target.Endpoint = ai.Endpoint{BaseURL: provider.BaseURL}
	}
	switch {
	case provider.APIKey != "":
		target.Auth = ai.AuthKey(provider.APIKey)
	case provider.APIKeyEnv != "":
		target.Auth = ai.AuthFromEnv(provider.APIKeyEnv)
	case len(provider.AuthHeaders) > 0:
		names := slices.Sorted(maps.Keys(provider.AuthHeaders))
		headers := make([]ai.Header, 0, len(names))
		for _, name := range names {
			headers = append(headers, ai.Header{Name: name, Value: provider.AuthHeaders[name]})
		}
		target.Auth = ai.AuthRequestOverride("", headers)
	}
	return &target, nil
}

// ClientOptions returns the client options for this configuration: the
// resolver chain, default options and, when configured, the timeout and
// retry middlewares. Retry is outermost so each attempt gets the timeout.
func (c *Config) ClientOptions(logger *slog.Logger) ([]client.Option, error) {
	chain, err := c.Chain()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithResolver(chain),
		client.WithDefaultOptions(c.ChatOptions()),
	}
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if c.Retry != nil {
		opts = append(opts, client.WithMiddleware(middleware.NewRetryMiddleware(middleware.RetryConfig{
			MaxRetries:     c.Retry.MaxRetries,
			InitialBackoff: c.Retry.InitialBackoff,
			MaxBackoff:     c.Retry.MaxBackoff,
			Logger:         logger,
		})))
	}
	if c.Timeout > 0 {
		opts = append(opts, client.WithMiddleware(middleware.NewTimeoutMiddleware(c.Timeout)))
	}
	return opts, nil
}

// NewClient builds a client from the configuration. Extra options are
// applied after the configured ones.
func (c *Config) NewClient(logger *slog.Logger, extra ...client.Option) (*client.Client, error) {
	opts, err := c.ClientOptions(logger)
	if err != nil {
		return nil, err
	}
	return client.New(append(opts, extra...)...)
}
