// Package scanner - Vulnerability reporting abstraction
package scanner

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/Serdar715/shadowx/internal/config"
)

// VulnReporter announces findings as workers emit them.
type VulnReporter interface {
	// Report outputs a vulnerability finding
	Report(vuln *config.Vulnerability, count int)
	// ReportSummary outputs a summary of all findings
	ReportSummary(vulns []config.Vulnerability)
}

// ConsoleReporter implements VulnReporter for terminal output.
// Thread-safe for concurrent reporting.
type ConsoleReporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a console reporter writing to stdout.
func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return NewConsoleReporterWithWriter(os.Stdout, verbose)
}

// NewConsoleReporterWithWriter creates a console reporter writing to w.
func NewConsoleReporterWithWriter(w io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: w, verbose: verbose}
}

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	white  = color.New(color.FgWhite)
	green  = color.New(color.FgGreen)
)

// Report outputs a vulnerability to the console.
func (r *ConsoleReporter) Report(vuln *config.Vulnerability, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	red.Fprintln(r.out, "\n  ╔══════════════════════════════════════════════════════════╗")
	red.Fprintf(r.out, "  ║  XSS VULNERABILITY FOUND! (#%d)\n", count)
	red.Fprintln(r.out, "  ╚══════════════════════════════════════════════════════════╝")

	yellow.Fprintf(r.out, "  Type:      %s\n", vuln.Type)
	white.Fprintf(r.out, "  Severity:  %s\n", colorSeverity(vuln.Severity))
	white.Fprintf(r.out, "  Point:     %s\n", config.InjectionPoint{Kind: vuln.InjectionPoint, Param: vuln.Parameter})
	white.Fprintf(r.out, "  Context:   %s\n", vuln.Context.Description)
	if vuln.StoredVerified != nil {
		if *vuln.StoredVerified {
			green.Fprintln(r.out, "  Stored:    confirmed on revisit")
		} else {
			yellow.Fprintln(r.out, "  Stored:    heuristic, not confirmed")
		}
	}

	fmt.Fprintln(r.out)
	cyan.Fprintf(r.out, "  Payload: %s\n", truncateString(vuln.Payload, maxPayloadDisplay))
	cyan.Fprintf(r.out, "  URL:     %s\n", vuln.URL)

	if r.verbose {
		if vuln.Evidence.JavaScriptDescription != "" {
			white.Fprintf(r.out, "  JS:      %s\n", vuln.Evidence.JavaScriptDescription)
		}
		if vuln.Evidence.DOMDescription != "" {
			white.Fprintf(r.out, "  DOM:     %s\n", vuln.Evidence.DOMDescription)
		}
		if vuln.Screenshot != "" {
			white.Fprintf(r.out, "  Shot:    %s\n", vuln.Screenshot)
		}
	}
	fmt.Fprintln(r.out)
}

// ReportSummary outputs the finding count per kind.
func (r *ConsoleReporter) ReportSummary(vulns []config.Vulnerability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	cyan.Fprintln(r.out, "═══════════════════════════════════════════════════════════")
	cyan.Fprintln(r.out, "                    SCAN SUMMARY")
	cyan.Fprintln(r.out, "═══════════════════════════════════════════════════════════")

	if len(vulns) == 0 {
		green.Fprintln(r.out, "  ✓ No vulnerabilities found")
	} else {
		red.Fprintf(r.out, "  Total Vulnerabilities: %d\n", len(vulns))
		counts := make(map[config.VulnType]int)
		for _, v := range vulns {
			counts[v.Type]++
		}
		for _, t := range []config.VulnType{config.VulnReflected, config.VulnStored, config.VulnDOM, config.VulnBlind} {
			if counts[t] > 0 {
				yellow.Fprintf(r.out, "    %-14s %d\n", t+":", counts[t])
			}
		}
	}

	cyan.Fprintln(r.out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(r.out)
}

const maxPayloadDisplay = 100

// colorSeverity returns a colored severity string.
func colorSeverity(severity string) string {
	switch severity {
	case config.SeverityHigh:
		return color.RedString(severity)
	case config.SeverityMedium:
		return color.YellowString(severity)
	case config.SeverityLow:
		return color.WhiteString(severity)
	default:
		return severity
	}
}

// CollectingReporter keeps every reported finding in report order.
type CollectingReporter struct {
	mu    sync.Mutex
	vulns []config.Vulnerability
}

// NewCollectingReporter creates an empty collecting reporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

// Report stores a copy of the vulnerability.
func (r *CollectingReporter) Report(vuln *config.Vulnerability, count int) {
	r.mu.Lock()
	r.vulns = append(r.vulns, *vuln)
	r.mu.Unlock()
}

// ReportSummary does nothing; the collected slice is the summary.
func (r *CollectingReporter) ReportSummary(vulns []config.Vulnerability) {}

// Vulnerabilities returns a copy of the collected findings.
func (r *CollectingReporter) Vulnerabilities() []config.Vulnerability {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]config.Vulnerability, len(r.vulns))
	copy(out, r.vulns)
	return out
}

// multiReporter fans a finding out to several reporters
type multiReporter []VulnReporter

func (m multiReporter) Report(vuln *config.Vulnerability, count int) {
	for _, r := range m {
		r.Report(vuln, count)
	}
}

func (m multiReporter) ReportSummary(vulns []config.Vulnerability) {
	for _, r := range m {
		r.ReportSummary(vulns)
	}
}
