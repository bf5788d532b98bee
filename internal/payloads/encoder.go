package payloads

import (
	"fmt"
	"net/url"
	"strings"
)

// dangerous are the characters the entity and unicode encoders rewrite
const dangerous = "<>\"'()"

// Encoder produces encoded spellings of a payload template. The
// {{MARKER}} placeholder is left intact so the result can still be armed.
type Encoder struct{}

// NewEncoder creates a new payload encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// aroundMarker applies fn to every part of payload except the placeholder.
func aroundMarker(payload string, fn func(string) string) string {
	parts := strings.Split(payload, MarkerPlaceholder)
	for i, p := range parts {
		parts[i] = fn(p)
	}
	return strings.Join(parts, MarkerPlaceholder)
}

// URLEncode performs standard URL encoding
func (e *Encoder) URLEncode(payload string) string {
	return aroundMarker(payload, url.QueryEscape)
}

// DoubleURLEncode performs double URL encoding
func (e *Encoder) DoubleURLEncode(payload string) string {
	return aroundMarker(payload, func(s string) string {
		return url.QueryEscape(url.QueryEscape(s))
	})
}

// HTMLEntityEncode encodes characters to decimal entities, < -> &#60;
func (e *Encoder) HTMLEntityEncode(payload string) string {
	return aroundMarker(payload, func(s string) string {
		var sb strings.Builder
		for _, r := range s {
			if strings.ContainsRune(dangerous, r) {
				fmt.Fprintf(&sb, "&#%d;", r)
			} else {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	})
}

// UnicodeEncode encodes characters to JavaScript escapes, < -> \u003c
func (e *Encoder) UnicodeEncode(payload string) string {
	return aroundMarker(payload, func(s string) string {
		var sb strings.Builder
		for _, r := range s {
			if r > 127 || strings.ContainsRune(dangerous, r) {
				fmt.Fprintf(&sb, "\\u%04x", r)
			} else {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	})
}

// Variants returns every encoded spelling of payload.
func (e *Encoder) Variants(payload string) []string {
	out := []string{
		e.URLEncode(payload),
		e.DoubleURLEncode(payload),
		e.HTMLEntityEncode(payload),
	}
	if strings.Contains(strings.ToLower(payload), "<script") {
		out = append(out, e.UnicodeEncode(payload))
	}
	return out
}
