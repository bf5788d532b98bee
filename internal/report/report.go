// Package report renders a finished scan as JSON, HTML and plain-text files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Serdar715/shadowx/internal/config"
)

// Supported formats
const (
	FormatAll  = "all"
	FormatJSON = "json"
	FormatHTML = "html"
	FormatText = "txt"
)

// fileStampLayout names report files: shadowx_report_20260301_123000.json
const fileStampLayout = "20060102_150405"

// Reporter generates scan reports in various formats
type Reporter struct {
	format string
	dir    string
}

// New creates a reporter writing format ("all", "json", "html" or "txt")
// into dir. Unknown formats fall back to all three.
func New(format, dir string) *Reporter {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatJSON, FormatHTML, FormatText:
	default:
		format = FormatAll
	}
	if dir == "" {
		dir = "."
	}
	return &Reporter{format: format, dir: dir}
}

// document is the serialized report. Statistics are left to the reader.
type document struct {
	Info            config.ScanInfo        `json:"scan_info"`
	TargetURLs      []string               `json:"target_urls"`
	ScanStartTime   time.Time              `json:"scan_start_time"`
	ScanDuration    string                 `json:"scan_duration"`
	TestedPayloads  int                    `json:"tested_payloads"`
	Interrupted     bool                   `json:"interrupted,omitempty"`
	ErrorCount      int                    `json:"error_count"`
	Vulnerabilities []config.Vulnerability `json:"vulnerabilities"`
}

func newDocument(result *config.ScanResult) document {
	vulns := result.Vulnerabilities
	if vulns == nil {
		vulns = []config.Vulnerability{}
	}
	return document{
		Info:            result.Info,
		TargetURLs:      result.TargetURLs,
		ScanStartTime:   result.ScanStartTime,
		ScanDuration:    result.ScanDuration,
		TestedPayloads:  result.TestedPayloads,
		Interrupted:     result.Interrupted,
		ErrorCount:      result.ErrorCount,
		Vulnerabilities: vulns,
	}
}

// Generate writes the report files and returns their paths. Every format is
// attempted; the first failure is returned alongside the files that were
// written.
func (r *Reporter) Generate(result *config.ScanResult) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("no scan result to report")
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := result.ScanStartTime
	if stamp.IsZero() {
		stamp = time.Now()
	}
	base := filepath.Join(r.dir, "shadowx_report_"+stamp.Format(fileStampLayout))
	doc := newDocument(result)

	type writer struct {
		format string
		ext    string
		write  func(document, string) error
	}
	writers := []writer{
		{FormatJSON, ".json", generateJSON},
		{FormatHTML, ".html", generateHTML},
		{FormatText, ".txt", generateText},
	}

	var paths []string
	var firstErr error
	for _, w := range writers {
		if r.format != FormatAll && r.format != w.format {
			continue
		}
		path := base + w.ext
		if err := w.write(doc, path); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s report: %w", w.format, err)
			}
			continue
		}
		paths = append(paths, path)
	}
	return paths, firstErr
}

// generateJSON creates a JSON report
func generateJSON(doc document, outputPath string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return os.WriteFile(outputPath, data, 0644)
}

// generateText creates a plain-text report
func generateText(doc document, outputPath string) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%s %s scan report\n", doc.Info.ToolName, doc.Info.Version)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Session:   %s\n", doc.Info.Author)
	fmt.Fprintf(&b, "Started:   %s\n", doc.Info.Timestamp)
	fmt.Fprintf(&b, "Duration:  %s\n", doc.ScanDuration)
	fmt.Fprintf(&b, "Targets:   %d\n", len(doc.TargetURLs))
	fmt.Fprintf(&b, "Tests:     %d\n", doc.TestedPayloads)
	fmt.Fprintf(&b, "Errors:    %d\n", doc.ErrorCount)
	if doc.Interrupted {
		fmt.Fprintln(&b, "Status:    interrupted, partial results")
	}
	fmt.Fprintln(&b)

	if len(doc.Vulnerabilities) == 0 {
		fmt.Fprintln(&b, "No vulnerabilities found.")
		return os.WriteFile(outputPath, []byte(b.String()), 0644)
	}

	fmt.Fprintf(&b, "Vulnerabilities: %d\n", len(doc.Vulnerabilities))
	for i, v := range doc.Vulnerabilities {
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		fmt.Fprintf(&b, "[%d] %s (%s)  id=%s\n", i+1, v.Type, v.Severity, v.ID)
		fmt.Fprintf(&b, "    URL:        %s\n", v.URL)
		fmt.Fprintf(&b, "    Point:      %s\n", config.InjectionPoint{Kind: v.InjectionPoint, Param: v.Parameter})
		fmt.Fprintf(&b, "    Payload:    %s\n", v.Payload)
		fmt.Fprintf(&b, "    Context:    %s\n", v.Context.Description)
		fmt.Fprintf(&b, "    Time:       %s\n", v.Timestamp)
		if v.Evidence.JavaScriptDescription != "" {
			fmt.Fprintf(&b, "    JS:         %s\n", v.Evidence.JavaScriptDescription)
		}
		if v.Evidence.DOMDescription != "" {
			fmt.Fprintf(&b, "    DOM:        %s\n", v.Evidence.DOMDescription)
		}
		if v.StoredVerified != nil {
			fmt.Fprintf(&b, "    Confirmed:  %t\n", *v.StoredVerified)
		}
		if v.Screenshot != "" {
			fmt.Fprintf(&b, "    Screenshot: %s\n", v.Screenshot)
		}
		for _, rec := range v.Context.Recommendations {
			fmt.Fprintf(&b, "    Fix:        %s\n", rec)
		}
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0644)
}
