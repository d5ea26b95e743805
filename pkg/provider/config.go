package provider

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"divwatch-api/pkg/confkit"
)

// Config describes the dividend data providers available to the application.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig represents configuration for a single provider.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	UserAgent string `yaml:"user_agent"`
	// Since bounds the history request for providers that need a start date
	// (format 2006-01-02). Empty means the provider default.
	Since string `yaml:"since"`

	TimeoutRaw   string        `yaml:"timeout"`
	Timeout      time.Duration `yaml:"-"`
	RateLimitRaw string        `yaml:"rate_limit"`
	RateLimit    time.Duration `yaml:"-"`
}

// ProviderBuilder constructs a Provider from configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Provider, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider registers a provider constructor under typeName.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open provider config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads provider configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/provider.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read provider config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal provider config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	c.Default = strings.TrimSpace(os.ExpandEnv(c.Default))
	for name, p := range c.Providers {
		if p == nil {
			p = &ProviderConfig{}
			c.Providers[name] = p
		}
		p.expandEnv()
		if err := p.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.Token = strings.TrimSpace(os.ExpandEnv(p.Token))
	p.UserAgent = strings.TrimSpace(os.ExpandEnv(p.UserAgent))
	p.Since = strings.TrimSpace(os.ExpandEnv(p.Since))
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
	p.RateLimitRaw = strings.TrimSpace(os.ExpandEnv(p.RateLimitRaw))
}

func (p *ProviderConfig) parseDurations(name string) error {
	if p.TimeoutRaw != "" {
		d, err := time.ParseDuration(p.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("provider %s: invalid timeout %q: %w", name, p.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("provider %s: timeout must be positive, got %s", name, d)
		}
		p.Timeout = d
	}
	if p.RateLimitRaw != "" {
		d, err := time.ParseDuration(p.RateLimitRaw)
		if err != nil {
			return fmt.Errorf("provider %s: invalid rate_limit %q: %w", name, p.RateLimitRaw, err)
		}
		if d < 0 {
			return fmt.Errorf("provider %s: rate_limit must not be negative, got %s", name, d)
		}
		p.RateLimit = d
	}
	return nil
}

// Limiter returns a limiter allowing one request per RateLimit, or nil when
// no rate limit is configured.
func (p *ProviderConfig) Limiter() *rate.Limiter {
	if p == nil || p.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(p.RateLimit), 1)
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("provider config: providers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("provider config: default provider %q not defined", c.Default)
		}
	}
	for name, p := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("provider config: provider name cannot be empty")
		}
		if err := p.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("provider config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("provider config: provider %s must specify type", name)
	}
	if _, ok := lookupProviderBuilder(p.Type); !ok {
		return fmt.Errorf("provider config: provider %s has unsupported type %q", name, p.Type)
	}
	if p.Since != "" {
		if _, err := time.Parse("2006-01-02", p.Since); err != nil {
			return fmt.Errorf("provider config: provider %s has invalid since %q", name, p.Since)
		}
	}
	return nil
}

// BuildProviders instantiates providers according to configuration.
func (c *Config) BuildProviders() (map[string]Provider, error) {
	result := make(map[string]Provider, len(c.Providers))
	for name, providerCfg := range c.Providers {
		builder, ok := lookupProviderBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("provider %s: unsupported type %q", name, providerCfg.Type)
		}
		p, err := builder(name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		result[name] = p
	}
	return result, nil
}

// BuildDefault instantiates only the default provider. When Default is empty
// and exactly one provider is configured, that one is used.
func (c *Config) BuildDefault() (Provider, error) {
	name := c.Default
	if name == "" {
		if len(c.Providers) != 1 {
			return nil, fmt.Errorf("provider config: default provider not set")
		}
		for n := range c.Providers {
			name = n
		}
	}
	providerCfg, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider config: default provider %q not defined", name)
	}
	builder, ok := lookupProviderBuilder(providerCfg.Type)
	if !ok {
		return nil, fmt.Errorf("provider %s: unsupported type %q", name, providerCfg.Type)
	}
	p, err := builder(name, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	return p, nil
}
