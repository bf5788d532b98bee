package payloads

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Serdar715/shadowx/internal/config"
)

// Placeholders substituted into payload templates
const (
	MarkerPlaceholder        = "{{MARKER}}"
	WebhookURLPlaceholder    = "{{WEBHOOK_URL}}"
	WebhookDomainPlaceholder = "{{WEBHOOK_DOMAIN}}"
	UniqueIDPlaceholder      = "{{UNIQUE_ID}}"
)

// Generator loads the payload corpus for a scan
type Generator struct{}

// NewGenerator creates a new payload generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Load returns the payloads from path, or the built-in set when path is empty.
// A file that yields nothing is a configuration error.
func (g *Generator) Load(path string) ([]string, error) {
	if path == "" {
		return g.Default(), nil
	}
	payloads, err := g.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: %s", config.ErrNoPayloads, path)
	}
	return payloads, nil
}

// LoadFromFile loads payloads from a custom file
func (g *Generator) LoadFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	defer file.Close()

	var payloads []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			payloads = append(payloads, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	return g.deduplicate(payloads), nil
}

// Default returns the built-in corpus: the html_body templates followed by
// a short slice of the bypass pool.
func (g *Generator) Default() []string {
	payloads := make([]string, 0, 32)
	payloads = append(payloads, contextPayloads[config.ContextHTMLBody]...)
	payloads = append(payloads, contextPayloads[config.ContextHTMLAttribute][:2]...)
	payloads = append(payloads, contextPayloads[config.ContextScriptTag][:3]...)
	payloads = append(payloads, bypassPool[:10]...)
	return g.deduplicate(payloads)
}

// Expand appends encoded and obfuscated spellings of every payload.
func (g *Generator) Expand(payloads []string) []string {
	encoder := NewEncoder()
	obfuscator := NewObfuscator(int64(len(payloads)))

	out := make([]string, 0, len(payloads)*6)
	out = append(out, payloads...)
	for _, p := range payloads {
		out = append(out, obfuscator.Variants(p)...)
		out = append(out, encoder.Variants(p)...)
	}
	return g.deduplicate(out)
}

// deduplicate removes duplicate payloads while preserving order
func (g *Generator) deduplicate(payloads []string) []string {
	seen := make(map[string]bool, len(payloads))
	result := make([]string, 0, len(payloads))

	for _, p := range payloads {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}
