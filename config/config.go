// Package config loads the optional YAML settings file and translates it
// into the per-component configurations. Every field has a default; an
// absent file or an empty file yields a fully working setup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"servicewatch/audit"
	"servicewatch/discover"
	"servicewatch/pattern"
	"servicewatch/probe"
	"servicewatch/sitemap"
)

// Rules holds the regexp rule sets. A set given in the file replaces the
// built-in set wholesale; an omitted set keeps the defaults.
type Rules struct {
	Include       []pattern.RuleSpec `yaml:"include"`
	Exclude       []pattern.RuleSpec `yaml:"exclude"`
	Soft404Titles []pattern.RuleSpec `yaml:"soft404Titles"`
	Soft404Bodies []pattern.RuleSpec `yaml:"soft404Bodies"`
}

// Config is the file-facing settings surface. Durations are plain
// millisecond integers so the file needs no unit parsing.
type Config struct {
	Concurrency         int      `yaml:"concurrency"`
	InterBatchDelayMS   int      `yaml:"interBatchDelayMs"`
	ProbeTimeoutMS      int      `yaml:"probeTimeoutMs"`
	InfoTimeoutMS       int      `yaml:"infoTimeoutMs"`
	SitemapTimeoutMS    int      `yaml:"sitemapTimeoutMs"`
	SitemapChildDelayMS int      `yaml:"sitemapChildDelayMs"`
	Soft404ScanBytes    int      `yaml:"soft404ScanBytes"`
	UserAgent           string   `yaml:"userAgent"`
	DiscoveryLimit      int      `yaml:"discoveryLimit"`
	SitemapRoots        []string `yaml:"sitemapRoots"`
	Rules               Rules    `yaml:"rules"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Concurrency:         5,
		InterBatchDelayMS:   1000,
		ProbeTimeoutMS:      10_000,
		InfoTimeoutMS:       5000,
		SitemapTimeoutMS:    10_000,
		SitemapChildDelayMS: 500,
		Soft404ScanBytes:    pattern.DefaultScanBytes,
		UserAgent:           "servicewatch/1.0 (+https://github.com/servicewatch)",
		DiscoveryLimit:      500,
		Rules: Rules{
			Include:       pattern.DefaultIncludeSpecs(),
			Exclude:       pattern.DefaultExcludeSpecs(),
			Soft404Titles: pattern.DefaultSoft404TitleSpecs(),
			Soft404Bodies: pattern.DefaultSoft404BodySpecs(),
		},
	}
}

// Load reads path and overlays it on the defaults. Unknown keys are an
// error so typos surface instead of silently reverting to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate compiles every rule set so a malformed expression fails at
// startup rather than mid-run.
func (c *Config) Validate() error {
	sets := []struct {
		name  string
		specs []pattern.RuleSpec
	}{
		{"rules.include", c.Rules.Include},
		{"rules.exclude", c.Rules.Exclude},
		{"rules.soft404Titles", c.Rules.Soft404Titles},
		{"rules.soft404Bodies", c.Rules.Soft404Bodies},
	}
	for _, s := range sets {
		if _, err := pattern.CompileRules(s.specs); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// Matcher compiles the service-likeness matcher.
func (c *Config) Matcher() (*pattern.Matcher, error) {
	include, err := pattern.CompileRules(c.Rules.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := pattern.CompileRules(c.Rules.Exclude)
	if err != nil {
		return nil, err
	}
	return pattern.NewMatcher(include, exclude), nil
}

// Soft404 compiles the soft-404 detector.
func (c *Config) Soft404() (*pattern.Soft404Detector, error) {
	title, err := pattern.CompileRules(c.Rules.Soft404Titles)
	if err != nil {
		return nil, err
	}
	body, err := pattern.CompileRules(c.Rules.Soft404Bodies)
	if err != nil {
		return nil, err
	}
	return pattern.NewSoft404Detector(title, body, c.Soft404ScanBytes), nil
}

// ProbeConfig translates the file settings for the HTTP prober.
func (c *Config) ProbeConfig() probe.Config {
	return probe.Config{
		HealthTimeout: ms(c.ProbeTimeoutMS),
		InfoTimeout:   ms(c.InfoTimeoutMS),
		UserAgent:     c.UserAgent,
	}
}

// SitemapConfig translates the file settings for the sitemap resolver.
func (c *Config) SitemapConfig() sitemap.Config {
	return sitemap.Config{
		FetchTimeout: ms(c.SitemapTimeoutMS),
		ChildDelay:   ms(c.SitemapChildDelayMS),
		UserAgent:    c.UserAgent,
	}
}

// AuditConfig translates the file settings for the audit pipeline.
func (c *Config) AuditConfig(verbose bool) audit.Config {
	return audit.Config{
		Concurrency:     c.Concurrency,
		InterBatchDelay: ms(c.InterBatchDelayMS),
		Verbose:         verbose,
	}
}

// DiscoverConfig translates the file settings for the discovery pipeline.
func (c *Config) DiscoverConfig() discover.Config {
	return discover.Config{
		Limit:           c.DiscoveryLimit,
		Concurrency:     c.Concurrency,
		InterBatchDelay: ms(c.InterBatchDelayMS),
		UserAgent:       c.UserAgent,
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
