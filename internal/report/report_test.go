package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Serdar715/shadowx/internal/config"
)

func sampleResult() *config.ScanResult {
	verified := true
	return &config.ScanResult{
		Info: config.ScanInfo{
			ToolName:  "ShadowX",
			Version:   "1.0",
			Author:    "ab12cd34",
			Timestamp: "2026-03-01 12:30:00",
		},
		TargetURLs:     []string{"http://t.test/?q=1"},
		ScanStartTime:  time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		ScanDuration:   "4.2s",
		TestedPayloads: 12,
		ErrorCount:     1,
		Vulnerabilities: []config.Vulnerability{
			{
				ID:             "0a1b2c3d",
				URL:            "http://t.test/?q=%3Cscript%3E",
				Type:           config.VulnReflected,
				Severity:       config.SeverityMedium,
				Payload:        `<script>alert("shadowx_ab12cd34")</script>`,
				InjectionPoint: config.PointQueryParam,
				Parameter:      "q",
				Evidence:       config.Evidence{Reflected: true, JavaScriptExecuted: true, JavaScriptDescription: "Alert executed: 1"},
				Timestamp:      "2026-03-01 12:30:02",
				Context:        config.ContextClassification{Kind: config.ContextScriptTag, Description: "Inside <script> tag", Recommendations: []string{"Encode output"}},
			},
			{
				ID:             "4e5f6a7b",
				URL:            "http://t.test/guestbook",
				Type:           config.VulnStored,
				Severity:       config.SeverityHigh,
				Payload:        "<img src=x onerror=alert(1)>",
				InjectionPoint: config.PointFormField,
				StoredVerified: &verified,
				Timestamp:      "2026-03-01 12:30:03",
			},
		},
	}
}

func TestGenerateAllFormats(t *testing.T) {
	dir := t.TempDir()
	paths, err := New("all", dir).Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{
		filepath.Join(dir, "shadowx_report_20260301_123000.json"),
		filepath.Join(dir, "shadowx_report_20260301_123000.html"),
		filepath.Join(dir, "shadowx_report_20260301_123000.txt"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	raw, err := os.ReadFile(want[0])
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Info            config.ScanInfo        `json:"scan_info"`
		Vulnerabilities []config.Vulnerability `json:"vulnerabilities"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("json report: %v", err)
	}
	if doc.Info.Author != "ab12cd34" || len(doc.Vulnerabilities) != 2 {
		t.Errorf("json doc = %+v", doc)
	}
	if doc.Vulnerabilities[1].StoredVerified == nil || !*doc.Vulnerabilities[1].StoredVerified {
		t.Error("stored confirmation lost")
	}

	html, _ := os.ReadFile(want[1])
	if strings.Contains(string(html), `<script>alert("shadowx_ab12cd34")</script>`) {
		t.Error("payload rendered unescaped in HTML report")
	}
	for _, s := range []string{"severity-medium", "Reflected XSS", "confirmed on revisit", "Encode output"} {
		if !strings.Contains(string(html), s) {
			t.Errorf("html report missing %q", s)
		}
	}

	txt, _ := os.ReadFile(want[2])
	for _, s := range []string{"ShadowX 1.0 scan report", "Vulnerabilities: 2", "Point:      query_param(q)", "Confirmed:  true"} {
		if !strings.Contains(string(txt), s) {
			t.Errorf("text report missing %q", s)
		}
	}
}

func TestGenerateSingleFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"json", ".json"},
		{"HTML", ".html"},
		{"txt", ".txt"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			paths, err := New(tt.format, t.TempDir()).Generate(sampleResult())
			if err != nil {
				t.Fatal(err)
			}
			if len(paths) != 1 || filepath.Ext(paths[0]) != tt.ext {
				t.Errorf("paths = %v", paths)
			}
		})
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	result := &config.ScanResult{Info: config.ScanInfo{ToolName: "ShadowX"}, Interrupted: true}

	paths, err := New("json", dir).Generate(result)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	raw, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"vulnerabilities": []`) {
		t.Errorf("empty result should serialize an empty list:\n%s", raw)
	}
	if !strings.Contains(string(raw), `"interrupted": true`) {
		t.Error("interrupt flag missing")
	}

	if _, err := New("json", dir).Generate(nil); err == nil {
		t.Error("nil result accepted")
	}
}
