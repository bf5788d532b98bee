package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Serdar715/shadowx/internal/browser"
	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/payloads"
)

// State is a step of the verification pipeline.
type State int

const (
	StateNavigate State = iota
	StateInjected
	StateSettled
	StateClassified
	StateEmit
	StateDiscard
	StateAlertShortCircuit
)

func (s State) String() string {
	switch s {
	case StateNavigate:
		return "NAVIGATE"
	case StateInjected:
		return "INJECTED"
	case StateSettled:
		return "SETTLED"
	case StateClassified:
		return "CLASSIFIED"
	case StateEmit:
		return "EMIT"
	case StateDiscard:
		return "DISCARD"
	case StateAlertShortCircuit:
		return "ALERT_SHORT_CIRCUIT"
	default:
		return "UNKNOWN"
	}
}

// ShouldEmit is the classification policy: a record is emitted when script
// execution was observed, or when the marker is reflected in a dangerous
// DOM position.
func ShouldEmit(ev config.Evidence) bool {
	return ev.JavaScriptExecuted || (ev.Reflected && ev.DOMModified)
}

// PipelineConfig configures a verification pipeline.
type PipelineConfig struct {
	Settle        time.Duration
	DOMSettle     time.Duration
	SessionID     string
	ConfirmStored bool
	Screenshots   ScreenshotWriter // nil disables screenshots
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithTrace registers a hook called on every state transition.
func WithTrace(fn func(target string, point config.InjectionPoint, s State)) PipelineOption {
	return func(p *Pipeline) { p.trace = fn }
}

// WithClock replaces the clock used for record ids and timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs one (target, point, payload) test from navigation to a
// record or a discard. A Pipeline holds no per-test state and may be shared
// by workers, each with its own browser.
type Pipeline struct {
	cfg        PipelineConfig
	injector   *Injector
	collector  *EvidenceCollector
	classifier *ContextClassifier
	trace      func(string, config.InjectionPoint, State)
	now        func() time.Time
}

// NewPipeline creates a verification pipeline.
func NewPipeline(cfg PipelineConfig, opts ...PipelineOption) *Pipeline {
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}
	p := &Pipeline{
		cfg:        cfg,
		injector:   NewInjector(),
		collector:  NewEvidenceCollector(cfg.DOMSettle),
		classifier: NewContextClassifier(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Injector returns the injector used by the pipeline.
func (p *Pipeline) Injector() *Injector {
	return p.injector
}

func (p *Pipeline) enter(target string, point config.InjectionPoint, s State) {
	if p.trace != nil {
		p.trace(target, point, s)
	}
}

// Run tests payload at point of target. It returns a record when the
// classification policy holds, nil when the test is discarded as inert,
// and an error when the test could not be carried out.
func (p *Pipeline) Run(ctx context.Context, b browser.Browser, target, payload string, point config.InjectionPoint) (*config.Vulnerability, error) {
	p.enter(target, point, StateNavigate)
	if err := b.Navigate(ctx, target); err != nil {
		p.enter(target, point, StateDiscard)
		return nil, NewPayloadError("navigate", target, point.String(), payload, err)
	}
	// Dialogs still queued here belong to earlier tests
	p.drainDialogs(ctx, b)
	prior, _ := b.Document(ctx)

	marker := NewMarker(p.cfg.SessionID)
	armed := payloads.Arm(payload, marker)

	res := p.injector.Inject(ctx, b, target, armed, point)
	switch res.Status {
	case InjectFailed:
		p.enter(target, point, StateDiscard)
		return nil, NewPayloadError("inject", target, point.String(), payload, res.Err)
	case InjectDialog:
		p.enter(target, point, StateInjected)
		return p.alertRecord(ctx, b, target, payload, armed, point, res.Dialog), nil
	}
	p.enter(target, point, StateInjected)

	if err := sleepCtx(ctx, p.cfg.Settle); err != nil {
		p.enter(target, point, StateDiscard)
		return nil, NewPayloadError("settle", target, point.String(), payload, err)
	}
	p.enter(target, point, StateSettled)
	if text, ok := b.PendingDialog(); ok {
		return p.alertRecord(ctx, b, target, payload, armed, point, text), nil
	}

	ev := p.collector.Collect(ctx, b, marker, prior)
	doc, _ := b.Document(ctx)
	cls := p.classifier.Classify(doc, marker)
	if err := ctx.Err(); err != nil {
		p.enter(target, point, StateDiscard)
		return nil, NewPayloadError("collect", target, point.String(), payload, err)
	}
	p.enter(target, point, StateClassified)

	if !ShouldEmit(ev) {
		p.enter(target, point, StateDiscard)
		return nil, nil
	}

	vuln := p.newRecord(target, payload, armed, point)
	vuln.Evidence = ev
	vuln.Context = cls
	vuln.Type = config.VulnReflected
	switch {
	case point.Kind == config.PointFragment:
		vuln.Type = config.VulnDOM
	case point.Kind == config.PointFormField && !ev.Reflected:
		vuln.Type = config.VulnStored
	}
	vuln.Screenshot = p.screenshot(ctx, b, vuln.ID, ShotReflected)

	if vuln.Type == config.VulnStored {
		verified := false
		if p.cfg.ConfirmStored {
			verified = p.confirmStored(ctx, b, target, marker)
			if !verified {
				vuln.Type = config.VulnReflected
			}
		}
		vuln.StoredVerified = &verified
	}
	vuln.Severity = vuln.Type.Severity()

	p.enter(target, point, StateEmit)
	return vuln, nil
}

// alertRecord builds the record for a dialog that opened during injection
// or settling. The dialog alone proves execution.
func (p *Pipeline) alertRecord(ctx context.Context, b browser.Browser, target, payload, armed string, point config.InjectionPoint, text string) *config.Vulnerability {
	p.enter(target, point, StateAlertShortCircuit)
	_ = b.DismissDialog(ctx)

	vuln := p.newRecord(target, payload, armed, point)
	vuln.Type = config.VulnReflected
	vuln.Severity = vuln.Type.Severity()
	vuln.Evidence = config.Evidence{
		Reflected:             true,
		JavaScriptExecuted:    true,
		JavaScriptDescription: "Alert executed: " + truncateString(text, DialogSnippetLimit),
	}
	vuln.Context = config.ContextClassification{
		Kind:        config.ContextUnknown,
		Description: AlertContextDescription,
	}
	vuln.Screenshot = p.screenshot(ctx, b, vuln.ID, ShotAlert)

	p.enter(target, point, StateEmit)
	return vuln
}

// confirmStored revisits target without injecting and reports whether the
// marker is served back.
func (p *Pipeline) confirmStored(ctx context.Context, b browser.Browser, target, marker string) bool {
	if err := b.Navigate(ctx, target); err != nil {
		if text, ok := b.PendingDialog(); ok {
			_ = b.DismissDialog(ctx)
			return strings.Contains(text, marker)
		}
		return false
	}
	for i := 0; i < maxDrainDialogs; i++ {
		text, ok := b.PendingDialog()
		if !ok {
			break
		}
		_ = b.DismissDialog(ctx)
		if strings.Contains(text, marker) {
			return true
		}
	}
	doc, err := b.Document(ctx)
	return err == nil && strings.Contains(doc, marker)
}

func (p *Pipeline) newRecord(target, payload, armed string, point config.InjectionPoint) *config.Vulnerability {
	now := p.now()
	return &config.Vulnerability{
		ID:             recordID(fmt.Sprintf("%s_%s_%d", target, payload, now.UnixNano())),
		URL:            target,
		Payload:        armed,
		InjectionPoint: point.Kind,
		Parameter:      point.Param,
		Timestamp:      now.Format(config.TimestampLayout),
	}
}

// screenshot captures and stores the viewport. Failures leave the path empty.
func (p *Pipeline) screenshot(ctx context.Context, b browser.Browser, id, label string) string {
	if p.cfg.Screenshots == nil {
		return ""
	}
	png, err := b.Screenshot(ctx)
	if err != nil || len(png) == 0 {
		return ""
	}
	name := fmt.Sprintf("xss_%s_%s_%d.png", id, label, p.now().Unix())
	path, err := p.cfg.Screenshots.Save(name, png)
	if err != nil {
		return ""
	}
	return path
}

func (p *Pipeline) drainDialogs(ctx context.Context, b browser.Browser) {
	for i := 0; i < maxDrainDialogs; i++ {
		if _, ok := b.PendingDialog(); !ok {
			return
		}
		_ = b.DismissDialog(ctx)
	}
}

// maxDrainDialogs bounds dialog draining against pages that re-open them
const maxDrainDialogs = 16

// recordID is the first 8 hex characters of the md5 of seed.
func recordID(seed string) string {
	return hashHex(seed, 8)
}

func hashHex(seed string, n int) string {
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:n]
}
