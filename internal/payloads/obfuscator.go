package payloads

import (
	"math/rand"
	"strings"
)

// Obfuscator rewrites payload structure without changing what it executes
// in lenient parsers. Like Encoder it never touches the marker placeholder.
type Obfuscator struct {
	rnd *rand.Rand
}

// NewObfuscator creates an obfuscator; a fixed seed gives repeatable output.
func NewObfuscator(seed int64) *Obfuscator {
	return &Obfuscator{rnd: rand.New(rand.NewSource(seed))}
}

// InjectWhitespace pads the opening script tag, <script> -> <script >
func (o *Obfuscator) InjectWhitespace(payload string) string {
	i := strings.Index(strings.ToLower(payload), "<script")
	if i < 0 {
		return payload
	}
	i += len("<script")
	return payload[:i] + " " + payload[i:]
}

// InjectComments splits keywords in markup, <script> -> <scr<!--x-->ipt>
func (o *Obfuscator) InjectComments(payload string) string {
	keywords := []string{"script", "onerror", "onload"}
	return aroundMarker(payload, func(s string) string {
		for _, kw := range keywords {
			if i := strings.Index(s, kw); i >= 0 {
				half := i + len(kw)/2
				s = s[:half] + "<!--x-->" + s[half:]
			}
		}
		return s
	})
}

// RandomCase varies the casing of tag names and attributes, <script> -> <ScRiPt>
func (o *Obfuscator) RandomCase(payload string) string {
	return aroundMarker(payload, func(s string) string {
		var sb strings.Builder
		inTag := false
		for _, r := range s {
			switch {
			case r == '<':
				inTag = true
			case r == '>':
				inTag = false
			case inTag && o.rnd.Intn(2) == 0:
				r = []rune(strings.ToUpper(string(r)))[0]
			}
			sb.WriteRune(r)
		}
		return sb.String()
	})
}

// Variants returns the obfuscated versions that differ from payload.
func (o *Obfuscator) Variants(payload string) []string {
	var out []string
	for _, v := range []string{
		o.InjectWhitespace(payload),
		o.InjectComments(payload),
		o.RandomCase(payload),
	} {
		if v != payload {
			out = append(out, v)
		}
	}
	return out
}
