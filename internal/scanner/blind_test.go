package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/payloads"
)

func newTestBlindSession(t *testing.T, opts ...BlindOption) *BlindSession {
	t.Helper()
	opts = append([]BlindOption{WithBlindPause(0)}, opts...)
	s, err := NewBlindSession("http://hook.test/webhook/", []string{`<img src="{{WEBHOOK_URL}}/img/{{UNIQUE_ID}}">`}, opts...)
	if err != nil {
		t.Fatalf("NewBlindSession: %v", err)
	}
	return s
}

func TestNewBlindSessionRejectsBadURL(t *testing.T) {
	_, err := NewBlindSession("not a url", nil)
	if !errors.Is(err, config.ErrWebhookRequired) {
		t.Errorf("err = %v", err)
	}
}

func TestNewBlindSessionDefaultTemplates(t *testing.T) {
	s, err := NewBlindSession("http://hook.test", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.templates) != len(payloads.BlindTemplates()) {
		t.Errorf("templates = %d", len(s.templates))
	}
}

func TestBlindCorrelation(t *testing.T) {
	s := newTestBlindSession(t)
	s.Track("abc123", "http://t.test/contact", "<img src=x>")

	interaction := config.Interaction{
		UniqueID:  "abc123",
		Method:    "GET",
		Path:      "img/abc123",
		Headers:   map[string]string{"Referer": "http://admin.t.test/", "User-Agent": "Chrome"},
		Timestamp: 1700000000,
	}
	if n := s.Observe([]config.Interaction{interaction}); n != 1 {
		t.Fatalf("Observe = %d", n)
	}

	records := s.Records()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.URL != "http://t.test/contact" || r.Payload != "<img src=x>" {
		t.Errorf("record = %s %q", r.URL, r.Payload)
	}
	if r.Type != config.VulnBlind || r.Severity != config.SeverityHigh || r.InjectionPoint != config.PointUnknown {
		t.Errorf("type=%s severity=%s point=%s", r.Type, r.Severity, r.InjectionPoint)
	}
	want := config.Evidence{JavaScriptExecuted: true, JavaScriptDescription: r.Evidence.JavaScriptDescription}
	if r.Evidence != want {
		t.Errorf("evidence = %+v", r.Evidence)
	}
	for _, part := range []string{"GET", "img/abc123", "Referer=http://admin.t.test/"} {
		if !strings.Contains(r.Evidence.JavaScriptDescription, part) {
			t.Errorf("evidence %q lacks %q", r.Evidence.JavaScriptDescription, part)
		}
	}
	if r.ID != recordID("blind_http://t.test/contact_abc123") {
		t.Errorf("id = %s", r.ID)
	}
	if r.Context.Description != BlindContextDescription {
		t.Errorf("context = %q", r.Context.Description)
	}
	if r.Interaction == nil || r.Interaction.UniqueID != "abc123" {
		t.Errorf("interaction = %+v", r.Interaction)
	}
}

func TestBlindNoCallbackNoRecord(t *testing.T) {
	s := newTestBlindSession(t)
	s.Track("abc123", "http://t.test/", "p")
	s.Observe([]config.Interaction{{UniqueID: "zzz999", Method: "GET"}})

	if records := s.Records(); len(records) != 0 {
		t.Errorf("got %d records for an unmatched id", len(records))
	}
}

func TestBlindObserveIsIdempotent(t *testing.T) {
	s := newTestBlindSession(t)
	in := config.Interaction{UniqueID: "a", Method: "GET", Headers: map[string]string{"X": "1"}}

	s.Observe([]config.Interaction{in})
	if n := s.Observe([]config.Interaction{in, {UniqueID: "a", Method: "POST"}}); n != 1 {
		t.Errorf("second Observe added %d, want 1", n)
	}
	if s.Received() != 2 {
		t.Errorf("received = %d", s.Received())
	}
}

func TestBlindRepeatCallbacksGetDistinctIDs(t *testing.T) {
	s := newTestBlindSession(t)
	s.Track("abc123", "http://t.test/contact", "p")
	s.Observe([]config.Interaction{
		{UniqueID: "abc123", Method: "GET", Timestamp: 1},
		{UniqueID: "abc123", Method: "GET", Timestamp: 2},
		{UniqueID: "abc123", Method: "POST", Timestamp: 3},
	})

	records := s.Records()
	if len(records) != 3 {
		t.Fatalf("got %d records, want one per callback", len(records))
	}
	ids := make(map[string]bool)
	for _, r := range records {
		if ids[r.ID] {
			t.Errorf("duplicate record id %s", r.ID)
		}
		ids[r.ID] = true
	}
	if records[0].ID != recordID("blind_http://t.test/contact_abc123") {
		t.Errorf("first callback id = %s", records[0].ID)
	}
}

func TestBlindCleanupTwice(t *testing.T) {
	s := newTestBlindSession(t)
	s.Cleanup()

	s.Track("a", "http://t.test/", "p")
	s.Observe([]config.Interaction{{UniqueID: "a"}})
	s.Cleanup()
	s.Cleanup()

	if s.Issued() != 0 || s.Received() != 0 {
		t.Errorf("issued=%d received=%d after cleanup", s.Issued(), s.Received())
	}
	if len(s.Records()) != 0 {
		t.Error("records after cleanup")
	}
}

func TestBlindIssue(t *testing.T) {
	s := newTestBlindSession(t)
	form := &fakeForm{fields: []*fakeElement{{typ: "text"}}}
	fb := &fakeBrowser{forms: []*fakeForm{form}}
	points := []config.InjectionPoint{
		{Kind: config.PointQueryParam, Param: "q"},
		{Kind: config.PointFormField},
	}

	placed := s.Issue(context.Background(), fb, NewInjector(), "http://t.test/?q=1", points)

	if placed != 2 {
		t.Errorf("placed = %d, want 2", placed)
	}
	if s.Issued() != 1 {
		t.Fatalf("issued = %d, want 1", s.Issued())
	}
	var uid string
	for id := range s.issued {
		uid = id
	}
	if len(uid) != BlindIDLength {
		t.Errorf("uid = %q", uid)
	}
	want := `<img src="http://hook.test/webhook/img/` + uid + `">`
	if form.fields[0].value != want {
		t.Errorf("form value = %q, want %q", form.fields[0].value, want)
	}
}

func TestBlindIssueSwallowsFailures(t *testing.T) {
	s := newTestBlindSession(t)
	fb := &fakeBrowser{navErr: errors.New("refused")}
	points := []config.InjectionPoint{{Kind: config.PointPath}, {Kind: config.PointFormField}}

	if placed := s.Issue(context.Background(), fb, NewInjector(), "http://t.test/", points); placed != 0 {
		t.Errorf("placed = %d", placed)
	}
	if s.Issued() != 1 {
		t.Errorf("issued = %d", s.Issued())
	}
}

func TestBlindPoll(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var pollErrs []error

	feed := InteractionFeedFunc(func(ctx context.Context) ([]config.Interaction, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return []config.Interaction{{UniqueID: "abc123", Method: "GET"}}, nil
	})

	s := newTestBlindSession(t, WithPollErrorHandler(func(err error) {
		mu.Lock()
		pollErrs = append(pollErrs, err)
		mu.Unlock()
	}))
	s.Track("abc123", "http://t.test/", "p")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	s.Poll(ctx, feed, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Fatalf("feed polled %d times", calls)
	}
	if len(pollErrs) != 1 || !errors.Is(pollErrs[0], ErrWebhookUnreachable) {
		t.Errorf("poll errors = %v", pollErrs)
	}
	if s.Received() != 1 || len(s.Records()) != 1 {
		t.Errorf("received=%d records=%d", s.Received(), len(s.Records()))
	}
}

func TestBlindConcurrentAccess(t *testing.T) {
	s := newTestBlindSession(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			s.Track(id, "http://t.test/", "p")
			s.Observe([]config.Interaction{{UniqueID: id}})
			_ = s.Records()
		}(i)
	}
	wg.Wait()
	if s.Issued() != 8 || len(s.Records()) != 8 {
		t.Errorf("issued=%d records=%d", s.Issued(), len(s.Records()))
	}
}
