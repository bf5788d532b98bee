package payloads

import (
	"strings"
	"testing"
)

func TestArm(t *testing.T) {
	marker := "M1"
	safe := charCodes(marker) // String.fromCharCode(77,49)
	side := "window[" + safe + "]=true;"

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "placeholder substitution",
			payload: `<svg onload=alert("{{MARKER}}")>{{MARKER}}`,
			want:    `<svg onload=alert("M1")>M1`,
		},
		{
			name:    "basic alert in script",
			payload: "<script>alert(1)</script>",
			want:    "<script>" + side + "alert(" + safe + ")</script>",
		},
		{
			name:    "confirm in onerror",
			payload: "<img src=x onerror=confirm('xss')>",
			want:    "<img src=x onerror=" + side + "confirm(" + safe + ")>",
		},
		{
			name:    "prompt with spaces in javascript uri",
			payload: "javascript:prompt(  1  )",
			want:    "javascript:" + side + "prompt(" + safe + ")",
		},
		{
			name:    "template literal",
			payload: "<script>alert`1`</script>",
			want:    "<script>" + side + "alert(" + safe + ")</script>",
		},
		{
			name:    "wrapped empty template",
			payload: "(confirm``)",
			want:    "(confirm(" + safe + "))",
		},
		{
			name:    "raw js without dialog",
			payload: "foo;bar",
			want:    side + "foo;bar",
		},
		{
			name:    "plain text is left alone",
			payload: "hello",
			want:    "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Arm(tt.payload, marker); got != tt.want {
				t.Errorf("Arm(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestCharCodes(t *testing.T) {
	if got := charCodes("AB"); got != "String.fromCharCode(65,66)" {
		t.Errorf("charCodes = %s", got)
	}
}

func TestArmedPayloadsCarryMarker(t *testing.T) {
	marker := "shadowx_abc_1_ff"
	for _, p := range NewGenerator().Default() {
		armed := Arm(p, marker)
		if !strings.Contains(armed, marker) {
			t.Errorf("armed payload lost marker: %q", armed)
		}
		if strings.Contains(armed, MarkerPlaceholder) {
			t.Errorf("placeholder left in %q", armed)
		}
	}
}
