package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ScanConfig)
		wantErr error
	}{
		{"valid defaults", func(c *ScanConfig) {}, nil},
		{"no targets", func(c *ScanConfig) { c.TargetURLs = nil }, ErrNoTargets},
		{"zero threads", func(c *ScanConfig) { c.Threads = 0 }, ErrInvalidThreads},
		{"bad engine", func(c *ScanConfig) { c.Engine = "selenium" }, ErrInvalidEngine},
		{"playwright engine", func(c *ScanConfig) { c.Engine = EnginePlaywright }, nil},
		{"blind without webhook", func(c *ScanConfig) { c.BlindEnabled = true }, ErrWebhookRequired},
		{"blind with local webhook", func(c *ScanConfig) {
			c.BlindEnabled = true
			c.LocalWebhook = "127.0.0.1:8899"
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TargetURLs = []string{"http://example.com/?q=1"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsBadWebhook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetURLs = []string{"http://example.com"}
	cfg.BlindEnabled = true
	cfg.WebhookURL = "not a url"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid webhook URL") {
		t.Errorf("expected invalid webhook error, got %v", err)
	}
}

func TestFilterTargets(t *testing.T) {
	valid, invalid := FilterTargets([]string{
		"http://a.test/x",
		"a.test/no-scheme",
		" https://b.test ",
		"http://",
	})

	if len(valid) != 2 || valid[0] != "http://a.test/x" || valid[1] != "https://b.test" {
		t.Errorf("valid = %v", valid)
	}
	if len(invalid) != 2 {
		t.Errorf("invalid = %v", invalid)
	}
}

func TestContextKindText(t *testing.T) {
	for kind, name := range contextNames {
		if kind.String() != name {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), name)
		}
		if ParseContextKind(name) != kind {
			t.Errorf("ParseContextKind(%q) = %v", name, ParseContextKind(name))
		}
	}
	if ParseContextKind("bogus") != ContextUnknown {
		t.Error("unknown names must map to ContextUnknown")
	}

	c := ContextClassification{Kind: ContextStyleTag, Description: "d"}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"context_type":"style_tag"`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestSeverity(t *testing.T) {
	tests := map[VulnType]string{
		VulnStored:    SeverityHigh,
		VulnDOM:       SeverityHigh,
		VulnBlind:     SeverityHigh,
		VulnReflected: SeverityMedium,
	}
	for kind, want := range tests {
		if got := kind.Severity(); got != want {
			t.Errorf("%s.Severity() = %s, want %s", kind, got, want)
		}
	}
}
