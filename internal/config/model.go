package config

import (
	"fmt"
	"time"
)

// InjectionKind names the place a payload is put.
type InjectionKind string

const (
	PointQueryParam InjectionKind = "query_param"
	PointFragment   InjectionKind = "fragment"
	PointPath       InjectionKind = "path"
	PointFormField  InjectionKind = "form_field"
	PointUnknown    InjectionKind = "unknown"
)

// InjectionPoint is one place in a target where a payload can be placed.
// Param is only meaningful for query parameters.
type InjectionPoint struct {
	Kind  InjectionKind `json:"kind"`
	Param string        `json:"parameter,omitempty"`
}

func (p InjectionPoint) String() string {
	if p.Param != "" {
		return fmt.Sprintf("%s(%s)", p.Kind, p.Param)
	}
	return string(p.Kind)
}

// VulnType is the classification kind of a record.
type VulnType string

const (
	VulnReflected VulnType = "Reflected XSS"
	VulnStored    VulnType = "Stored XSS"
	VulnDOM       VulnType = "DOM-based XSS"
	VulnBlind     VulnType = "Blind XSS"
)

// Severity levels
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
)

// Severity maps a record kind to its report severity.
func (t VulnType) Severity() string {
	switch t {
	case VulnStored, VulnDOM, VulnBlind:
		return SeverityHigh
	case VulnReflected:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Evidence holds the three execution signals gathered after an injection.
type Evidence struct {
	Reflected             bool   `json:"reflected"`
	DOMModified           bool   `json:"dom_modified"`
	DOMDescription        string `json:"dom,omitempty"`
	JavaScriptExecuted    bool   `json:"javascript_executed"`
	JavaScriptDescription string `json:"javascript,omitempty"`
}

// ContextKind is the syntactic position a marker landed in.
type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextScriptTag
	ContextScriptAttribute
	ContextHTMLAttribute
	ContextHTMLBody
	ContextHTMLComment
	ContextStyleTag
	ContextStyleAttribute
)

var contextNames = map[ContextKind]string{
	ContextUnknown:         "unknown",
	ContextScriptTag:       "script_tag",
	ContextScriptAttribute: "script_attribute",
	ContextHTMLAttribute:   "html_attribute",
	ContextHTMLBody:        "html_body",
	ContextHTMLComment:     "html_comment",
	ContextStyleTag:        "style_tag",
	ContextStyleAttribute:  "style_attribute",
}

func (k ContextKind) String() string {
	if name, ok := contextNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsScript reports whether the context executes JavaScript directly.
func (k ContextKind) IsScript() bool {
	return k == ContextScriptTag || k == ContextScriptAttribute
}

// MarshalText encodes the kind by name.
func (k ContextKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name; unknown names become ContextUnknown.
func (k *ContextKind) UnmarshalText(text []byte) error {
	*k = ParseContextKind(string(text))
	return nil
}

// ParseContextKind resolves a context name.
func ParseContextKind(name string) ContextKind {
	for kind, n := range contextNames {
		if n == name {
			return kind
		}
	}
	return ContextUnknown
}

// ContextClassification describes where a marker landed in a document.
type ContextClassification struct {
	Kind            ContextKind `json:"context_type"`
	Description     string      `json:"description"`
	Recommendations []string    `json:"recommendations"`
	Surrounding     string      `json:"surrounding_text,omitempty"`
}

// Interaction is one out-of-band callback recorded by a webhook receiver.
type Interaction struct {
	UniqueID   string            `json:"unique_id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers"`
	RemoteAddr string            `json:"remote_addr"`
	UserAgent  string            `json:"user_agent"`
	Timestamp  float64           `json:"timestamp"`
	Data       string            `json:"data,omitempty"`
}

// Vulnerability is an emitted finding. Records are never mutated after creation.
type Vulnerability struct {
	ID             string                `json:"id"`
	URL            string                `json:"url"`
	Type           VulnType              `json:"type"`
	Severity       string                `json:"severity"`
	Payload        string                `json:"payload"`
	InjectionPoint InjectionKind         `json:"injection_point"`
	Parameter      string                `json:"parameter,omitempty"`
	Evidence       Evidence              `json:"evidence"`
	Screenshot     string                `json:"screenshot,omitempty"`
	Timestamp      string                `json:"timestamp"`
	Context        ContextClassification `json:"context"`
	StoredVerified *bool                 `json:"stored_verified,omitempty"`
	Interaction    *Interaction          `json:"interaction_data,omitempty"`
}

// TimestampLayout is the record timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// ScanInfo is the metadata handed to the reporting collaborator.
type ScanInfo struct {
	ToolName  string `json:"tool_name"`
	Version   string `json:"version"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// ScanResult contains the complete scan results
type ScanResult struct {
	Info            ScanInfo        `json:"scan_info"`
	TargetURLs      []string        `json:"target_urls"`
	ScanStartTime   time.Time       `json:"scan_start_time"`
	ScanEndTime     time.Time       `json:"scan_end_time"`
	ScanDuration    string          `json:"scan_duration"`
	TestedPayloads  int             `json:"tested_payloads"`
	Interrupted     bool            `json:"interrupted"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	ErrorCount      int             `json:"error_count"`
	Errors          []string        `json:"errors,omitempty"`
}
