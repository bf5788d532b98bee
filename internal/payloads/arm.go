package payloads

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reFunc        = regexp.MustCompile(`(alert|confirm|prompt)\s*\([^)]*\)`)
	reTemplate    = regexp.MustCompile("(alert|confirm|prompt)\\s*`[^`]*`")
	reWrapped     = regexp.MustCompile(`\((confirm|alert|prompt)` + "``" + `\)`)
	reArrayMethod = regexp.MustCompile(`\[(\d+)\]\.(find|map|some|every|filter|findIndex)\((confirm|alert|prompt)\)`)
	reScriptTag   = regexp.MustCompile(`(?i)<script[^>]*>`)
)

// Arm binds a payload to marker. Templates carrying the {{MARKER}}
// placeholder get plain substitution. Other payloads have their dialog
// calls rewritten to show the marker and a window[marker]=true side effect
// inserted at the first script or handler position, so execution can be
// attributed to this test.
func Arm(payload, marker string) string {
	if strings.Contains(payload, MarkerPlaceholder) {
		return strings.ReplaceAll(payload, MarkerPlaceholder, marker)
	}

	// String.fromCharCode avoids quote escaping issues inside single vs double quoted contexts
	safeMarker := charCodes(marker)

	armed := payload
	armed = reFunc.ReplaceAllString(armed, fmt.Sprintf("${1}(%s)", safeMarker))
	armed = reTemplate.ReplaceAllString(armed, fmt.Sprintf("${1}(%s)", safeMarker))
	armed = reWrapped.ReplaceAllString(armed, fmt.Sprintf("(${1}(%s))", safeMarker))
	armed = reArrayMethod.ReplaceAllString(armed, fmt.Sprintf("[${1}].${2}(function(){${3}(%s)})", safeMarker))

	sideEffect := fmt.Sprintf("window[%s]=true;", safeMarker)
	lower := strings.ToLower(armed)

	switch {
	case reScriptTag.MatchString(armed):
		armed = reScriptTag.ReplaceAllStringFunc(armed, func(match string) string {
			return match + sideEffect
		})
	case strings.Contains(lower, "javascript:"):
		i := strings.Index(lower, "javascript:") + len("javascript:")
		armed = armed[:i] + sideEffect + armed[i:]
	default:
		for _, handler := range []string{"onerror=", "onload=", "onclick="} {
			if i := strings.Index(lower, handler); i >= 0 {
				i += len(handler)
				armed = armed[:i] + sideEffect + armed[i:]
				break
			}
		}
	}

	// Raw JS fragments with no markup
	if armed == payload && !strings.Contains(payload, "<") &&
		(strings.Contains(payload, ";") || strings.Contains(payload, "(")) {
		armed = sideEffect + armed
	}

	return armed
}

// charCodes converts a string to its String.fromCharCode(c1, c2...) form
func charCodes(input string) string {
	chars := make([]string, 0, len(input))
	for _, c := range input {
		chars = append(chars, fmt.Sprintf("%d", c))
	}
	return fmt.Sprintf("String.fromCharCode(%s)", strings.Join(chars, ","))
}
