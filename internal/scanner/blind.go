package scanner

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Serdar715/shadowx/internal/browser"
	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/payloads"
)

// blindIssue is one blind payload handed to a target
type blindIssue struct {
	URL     string
	Payload string
	Issued  time.Time
}

// BlindOption customizes a BlindSession.
type BlindOption func(*BlindSession)

// WithBlindSessionID sets the session label mixed into unique ids.
func WithBlindSessionID(id string) BlindOption {
	return func(s *BlindSession) { s.sessionID = id }
}

// WithBlindPause sets the pause after each successful injection.
func WithBlindPause(d time.Duration) BlindOption {
	return func(s *BlindSession) { s.pause = d }
}

// WithPollErrorHandler receives reconciliation poll failures. Each error
// wraps ErrWebhookUnreachable.
func WithPollErrorHandler(fn func(error)) BlindOption {
	return func(s *BlindSession) { s.onPollError = fn }
}

// BlindSession correlates blind payloads issued to targets with callbacks
// observed by a webhook. The issued-id map and the interaction log are
// guarded by one mutex that is never held across a network call.
type BlindSession struct {
	webhookURL  string
	domain      string
	templates   []string
	sessionID   string
	pause       time.Duration
	onPollError func(error)

	mu       sync.Mutex
	issued   map[string]blindIssue
	received []config.Interaction
}

// NewBlindSession creates a session for webhookURL. Nil templates select
// the built-in callback templates.
func NewBlindSession(webhookURL string, templates []string, opts ...BlindOption) (*BlindSession, error) {
	u, ok := config.ValidURL(webhookURL)
	if !ok {
		return nil, fmt.Errorf("%w: invalid webhook URL %q", config.ErrWebhookRequired, webhookURL)
	}
	if len(templates) == 0 {
		templates = payloads.BlindTemplates()
	}

	s := &BlindSession{
		webhookURL: strings.TrimSpace(webhookURL),
		domain:     u.Host,
		templates:  templates,
		pause:      BlindInjectPause,
		issued:     make(map[string]blindIssue),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WebhookURL returns the callback address payloads are filled with.
func (s *BlindSession) WebhookURL() string {
	return s.webhookURL
}

// Issue fills every template with a fresh unique id, records it, and
// injects it at every point of target. Injection faults are swallowed per
// attempt. It returns the number of injections that were placed.
func (s *BlindSession) Issue(ctx context.Context, b browser.Browser, inj *Injector, target string, points []config.InjectionPoint) int {
	placed := 0
	for i, tpl := range s.templates {
		uid := s.uniqueID(target, i)
		payload := payloads.FillBlind(tpl, s.webhookURL, s.domain, uid)
		s.Track(uid, target, payload)

		for _, point := range points {
			if ctx.Err() != nil {
				return placed
			}
			if point.Kind == config.PointFormField {
				if err := b.Navigate(ctx, target); err != nil {
					continue
				}
			}
			res := inj.Inject(ctx, b, target, payload, point)
			for j := 0; j < maxDrainDialogs; j++ {
				if _, ok := b.PendingDialog(); !ok {
					break
				}
				_ = b.DismissDialog(ctx)
			}
			if res.Status == InjectFailed {
				continue
			}
			placed++
			if err := sleepCtx(ctx, s.pause); err != nil {
				return placed
			}
		}
	}
	return placed
}

// uniqueID returns a DNS-label-safe id for template i of target
func (s *BlindSession) uniqueID(target string, i int) string {
	seed := fmt.Sprintf("%s_%s_%d_%d", s.sessionID, target, i, nextStamp())
	return hashHex(seed, BlindIDLength)
}

// Track records that payload carrying id was issued to url.
func (s *BlindSession) Track(id, url, payload string) {
	s.mu.Lock()
	s.issued[id] = blindIssue{URL: url, Payload: payload, Issued: time.Now()}
	s.mu.Unlock()
}

// Observe appends the interactions not already in the log and returns how
// many were new.
func (s *BlindSession) Observe(interactions []config.Interaction) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, in := range interactions {
		if s.seen(in) {
			continue
		}
		s.received = append(s.received, in)
		added++
	}
	return added
}

func (s *BlindSession) seen(in config.Interaction) bool {
	for _, r := range s.received {
		if reflect.DeepEqual(r, in) {
			return true
		}
	}
	return false
}

// Poll fetches the feed immediately and then every interval until ctx is
// done. Fetch errors are reported to the poll error handler and retried on
// the next tick.
func (s *BlindSession) Poll(ctx context.Context, feed InteractionFeed, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.pollOnce(ctx, feed)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BlindSession) pollOnce(ctx context.Context, feed InteractionFeed) {
	interactions, err := feed.Interactions(ctx)
	if err != nil {
		if ctx.Err() == nil && s.onPollError != nil {
			s.onPollError(fmt.Errorf("%w: %v", ErrWebhookUnreachable, err))
		}
		return
	}
	s.Observe(interactions)
}

// Records returns one Blind record per received interaction whose unique
// id was issued by this session. Repeat callbacks for one id get distinct
// record ids.
func (s *BlindSession) Records() []config.Vulnerability {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []config.Vulnerability
	hits := make(map[string]int)
	for _, in := range s.received {
		issue, ok := s.issued[in.UniqueID]
		if !ok {
			continue
		}
		hits[in.UniqueID]++
		seed := "blind_" + issue.URL + "_" + in.UniqueID
		if n := hits[in.UniqueID]; n > 1 {
			seed += "_" + strconv.Itoa(n)
		}
		interaction := in
		out = append(out, config.Vulnerability{
			ID:             recordID(seed),
			URL:            issue.URL,
			Type:           config.VulnBlind,
			Severity:       config.VulnBlind.Severity(),
			Payload:        issue.Payload,
			InjectionPoint: config.PointUnknown,
			Evidence: config.Evidence{
				JavaScriptExecuted:    true,
				JavaScriptDescription: "Blind XSS callback received: " + summarizeInteraction(in),
			},
			Timestamp: time.Now().Format(config.TimestampLayout),
			Context: config.ContextClassification{
				Kind:        config.ContextUnknown,
				Description: BlindContextDescription,
			},
			Interaction: &interaction,
		})
	}
	return out
}

// summarizeInteraction renders method, path, headers and time of a callback.
func summarizeInteraction(in config.Interaction) string {
	keys := make([]string, 0, len(in.Headers))
	for k := range in.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]string, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, k+"="+in.Headers[k])
	}

	sec := int64(in.Timestamp)
	at := time.Unix(sec, int64((in.Timestamp-float64(sec))*1e9)).Format(config.TimestampLayout)
	return fmt.Sprintf("%s %s at %s [%s]", in.Method, in.Path, at, strings.Join(headers, ", "))
}

// Cleanup empties the issued-id map and the interaction log. It is safe
// to call repeatedly and on a session that never issued anything.
func (s *BlindSession) Cleanup() {
	s.mu.Lock()
	s.issued = make(map[string]blindIssue)
	s.received = nil
	s.mu.Unlock()
}

// Issued returns the number of tracked ids.
func (s *BlindSession) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}

// Received returns the number of logged interactions.
func (s *BlindSession) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}
