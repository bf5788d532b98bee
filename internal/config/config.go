package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Configuration errors reported before any scanning work begins.
var (
	ErrNoTargets       = errors.New("no valid target URLs")
	ErrNoPayloads      = errors.New("no payloads loaded")
	ErrWebhookRequired = errors.New("--webhook-url or --local-webhook is required when --blind is enabled")
	ErrInvalidThreads  = errors.New("thread count must be at least 1")
	ErrInvalidEngine   = errors.New("unknown browser engine")
)

// Browser engines
const (
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
)

// ScanConfig holds all configuration for a ShadowX scan
type ScanConfig struct {
	TargetURLs   []string
	URLListFile  string
	PayloadFile  string
	Engine       string
	VisibleMode  bool
	OutputDir    string
	OutputFormat string
	Threads      int
	Timeout      int // seconds, per navigation / probe
	Settle       time.Duration
	DOMSettle    time.Duration
	Delay        time.Duration // pause between tests of one URL
	RateLimit    int           // probe requests per second, 0 = unlimited
	Encode       bool          // expand the corpus with encoded variants
	Verbose      bool
	Silent       bool

	// Blind XSS
	BlindEnabled  bool
	WebhookURL    string
	LocalWebhook  string // listen address for the built-in receiver
	BlindTimeout  time.Duration
	PollInterval  time.Duration
	ConfirmStored bool
}

// DefaultConfig returns a default scan configuration
func DefaultConfig() *ScanConfig {
	return &ScanConfig{
		Engine:       EngineRod,
		OutputDir:    "./output",
		OutputFormat: "all",
		Threads:      5,
		Timeout:      30,
		Settle:       3 * time.Second,
		DOMSettle:    2 * time.Second,
		Delay:        time.Second,
		BlindTimeout: 60 * time.Second,
		PollInterval: 5 * time.Second,
	}
}

// TimeoutDuration returns the navigation/probe timeout as a duration.
func (c *ScanConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Validate checks the configuration and returns the first problem found.
func (c *ScanConfig) Validate() error {
	if len(c.TargetURLs) == 0 {
		return ErrNoTargets
	}
	if c.Threads < 1 {
		return ErrInvalidThreads
	}
	switch strings.ToLower(c.Engine) {
	case EngineRod, EnginePlaywright:
	default:
		return fmt.Errorf("%w: %s (valid: %s, %s)", ErrInvalidEngine, c.Engine, EngineRod, EnginePlaywright)
	}
	if c.BlindEnabled && c.WebhookURL == "" && c.LocalWebhook == "" {
		return ErrWebhookRequired
	}
	if c.WebhookURL != "" {
		if _, ok := ValidURL(c.WebhookURL); !ok {
			return fmt.Errorf("invalid webhook URL: %s", c.WebhookURL)
		}
	}
	return nil
}

// ValidURL reports whether raw has both a scheme and a host.
func ValidURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// FilterTargets splits raw targets into valid and invalid URLs, keeping order.
func FilterTargets(raw []string) (valid, invalid []string) {
	for _, t := range raw {
		if _, ok := ValidURL(t); ok {
			valid = append(valid, strings.TrimSpace(t))
		} else {
			invalid = append(invalid, t)
		}
	}
	return valid, invalid
}
