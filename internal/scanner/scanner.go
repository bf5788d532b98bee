package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Serdar715/shadowx/internal/browser"
	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/logger"
	"github.com/Serdar715/shadowx/internal/probe"
	"github.com/Serdar715/shadowx/internal/webhook"
)

// Scan metadata handed to the reporting collaborator
const (
	ToolName    = "ShadowX"
	ToolVersion = "1.0"
)

// Option customizes a Scanner.
type Option func(*Scanner)

// WithLogger sets the console logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// WithBrowserFactory replaces the engine selected by the configuration.
func WithBrowserFactory(f browser.Factory) Option {
	return func(s *Scanner) { s.factory = f }
}

// WithProber replaces the HTTP probe used for enumeration.
func WithProber(p Prober) Option {
	return func(s *Scanner) { s.prober = p }
}

// WithReporter adds a live finding reporter.
func WithReporter(r VulnReporter) Option {
	return func(s *Scanner) { s.reporters = append(s.reporters, r) }
}

// WithScreenshots replaces the screenshot store. Nil disables screenshots.
func WithScreenshots(w ScreenshotWriter) Option {
	return func(s *Scanner) {
		s.shots = w
		s.shotsSet = true
	}
}

// WithInteractionFeed sets where blind reconciliation reads callbacks.
func WithInteractionFeed(f InteractionFeed) Option {
	return func(s *Scanner) { s.feed = f }
}

// WithSessionID fixes the session label used in markers and blind ids.
func WithSessionID(id string) Option {
	return func(s *Scanner) { s.sessionID = id }
}

// WithBlindOptions passes options through to the blind session.
func WithBlindOptions(opts ...BlindOption) Option {
	return func(s *Scanner) { s.blindOpts = append(s.blindOpts, opts...) }
}

// WithPipelineOptions passes options through to the verification pipeline.
func WithPipelineOptions(opts ...PipelineOption) Option {
	return func(s *Scanner) { s.pipelineOpts = append(s.pipelineOpts, opts...) }
}

// Scanner schedules one browser-owning worker per target URL from a
// bounded pool and collects the records the pipeline emits.
type Scanner struct {
	cfg          *config.ScanConfig
	log          *logger.Logger
	factory      browser.Factory
	prober       Prober
	enumerator   *Enumerator
	pipeline     *Pipeline
	pipelineOpts []PipelineOption
	reporters    multiReporter
	shots        ScreenshotWriter
	shotsSet     bool
	feed         InteractionFeed
	blind        *BlindSession
	blindOpts    []BlindOption
	errs         *ErrorAggregator
	sessionID    string

	mu     sync.Mutex
	vulns  []config.Vulnerability
	tested int
	failed int
}

// New creates a scanner for cfg.
func New(cfg *config.ScanConfig, opts ...Option) (*Scanner, error) {
	if cfg == nil {
		return nil, errors.New("nil scan configuration")
	}
	if cfg.Threads < 1 {
		return nil, config.ErrInvalidThreads
	}

	s := &Scanner{
		cfg:  cfg,
		errs: NewErrorAggregator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.sessionID == "" {
		s.sessionID = NewSessionID()
	}

	if s.factory == nil {
		bopts := browser.Options{Headless: !cfg.VisibleMode, Timeout: cfg.TimeoutDuration()}
		switch strings.ToLower(cfg.Engine) {
		case config.EnginePlaywright:
			s.factory = browser.NewPlaywrightFactory(bopts)
		case config.EngineRod, "":
			s.factory = browser.NewRodFactory(bopts)
		default:
			return nil, fmt.Errorf("%w: %s", config.ErrInvalidEngine, cfg.Engine)
		}
	}
	if s.prober == nil {
		s.prober = probe.New(probe.Options{
			Timeout:   cfg.TimeoutDuration(),
			RateLimit: cfg.RateLimit,
		})
	}
	if !s.shotsSet && cfg.OutputDir != "" {
		s.shots = NewScreenshotDir(filepath.Join(cfg.OutputDir, "screenshots"))
	}

	if cfg.BlindEnabled {
		bopts := append([]BlindOption{
			WithBlindSessionID(s.sessionID),
			WithPollErrorHandler(func(err error) { s.log.Debug("%v", err) }),
		}, s.blindOpts...)
		blind, err := NewBlindSession(cfg.WebhookURL, nil, bopts...)
		if err != nil {
			return nil, err
		}
		s.blind = blind
		if s.feed == nil {
			s.feed = webhook.NewClient(cfg.WebhookURL, cfg.TimeoutDuration())
		}
	}

	s.enumerator = NewEnumerator(s.prober, cfg.TimeoutDuration())
	s.pipeline = NewPipeline(PipelineConfig{
		Settle:        cfg.Settle,
		DOMSettle:     cfg.DOMSettle,
		SessionID:     s.sessionID,
		ConfirmStored: cfg.ConfirmStored,
		Screenshots:   s.shots,
	}, s.pipelineOpts...)
	return s, nil
}

// SessionID returns the session label of this scan.
func (s *Scanner) SessionID() string {
	return s.sessionID
}

// Blind returns the blind session, nil when blind mode is off.
func (s *Scanner) Blind() *BlindSession {
	return s.blind
}

// Run scans every target with every payload. Cancelling ctx lets in-flight
// tests finish, stops new ones, and still returns the records emitted so
// far.
func (s *Scanner) Run(ctx context.Context, targets, payloadList []string) *config.ScanResult {
	start := time.Now()
	result := &config.ScanResult{
		Info: config.ScanInfo{
			ToolName:  ToolName,
			Version:   ToolVersion,
			Author:    s.sessionID,
			Timestamp: start.Format(config.TimestampLayout),
		},
		TargetURLs:    targets,
		ScanStartTime: start,
	}

	var pollWG sync.WaitGroup
	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	if s.blind != nil && s.feed != nil {
		pollWG.Add(1)
		go func() {
			defer pollWG.Done()
			s.blind.Poll(pollCtx, s.feed, s.cfg.PollInterval)
		}()
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	workers := s.cfg.Threads
	if workers > len(targets) {
		workers = len(targets)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, jobs, payloadList)
	}

dispatch:
	for _, target := range targets {
		select {
		case jobs <- target:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if s.blind != nil {
		s.reconcile(ctx, stopPoll, &pollWG)
	}
	stopPoll()
	pollWG.Wait()

	s.mu.Lock()
	result.Vulnerabilities = make([]config.Vulnerability, len(s.vulns))
	copy(result.Vulnerabilities, s.vulns)
	result.TestedPayloads = s.tested
	s.mu.Unlock()

	result.Interrupted = ctx.Err() != nil
	s.mu.Lock()
	result.ErrorCount = s.errs.Count() + s.failed
	s.mu.Unlock()
	result.Errors = s.errs.Messages()
	result.ScanEndTime = time.Now()
	result.ScanDuration = result.ScanEndTime.Sub(start).Round(time.Millisecond).String()
	return result
}

// reconcile keeps the poll running for the blind wait window, then emits
// the correlated records and clears the session.
func (s *Scanner) reconcile(ctx context.Context, stopPoll context.CancelFunc, pollWG *sync.WaitGroup) {
	window := s.cfg.BlindTimeout
	if window <= 0 {
		window = DefaultBlindTimeout
	}
	s.log.Info("Waiting %s for blind XSS callbacks (%d payloads issued)", window, s.blind.Issued())
	_ = sleepCtx(ctx, window)
	stopPoll()
	pollWG.Wait()

	for _, v := range s.blind.Records() {
		vuln := v
		s.emit(&vuln)
	}
	s.blind.Cleanup()
}

func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan string, payloadList []string) {
	defer wg.Done()
	for target := range jobs {
		if ctx.Err() != nil {
			continue
		}
		s.scanURL(ctx, target, payloadList)
	}
}

// testBudget bounds one test: navigation, settling and evidence collection.
func (s *Scanner) testBudget() time.Duration {
	t := s.cfg.TimeoutDuration()
	return 2*t + s.cfg.Settle + s.cfg.DOMSettle
}

// scanURL owns one browser for the whole life of target.
func (s *Scanner) scanURL(ctx context.Context, target string, payloadList []string) {
	b, err := s.factory(ctx)
	if err != nil {
		s.errs.Add(NewScanError("launch browser", target, fmt.Errorf("%w: %v", ErrDriverInit, err)))
		s.log.Error("Browser failed to start for %s: %v", target, err)
		return
	}
	defer func() { _ = b.Close() }()

	points := s.enumerator.Enumerate(ctx, target)
	s.log.Info("Testing %s (%d injection points, %d payloads)", target, len(points), len(payloadList))

	health := NewBrowserHealth(BreakerThreshold, BreakerCooldown)
	first := true
	for _, point := range points {
		for _, payload := range payloadList {
			if ctx.Err() != nil {
				return
			}
			if !first {
				if err := sleepCtx(ctx, s.cfg.Delay); err != nil {
					return
				}
			}
			first = false

			if health.State() != CircuitClosed {
				nb, err := s.relaunch(ctx, b, health)
				if err != nil {
					if ctx.Err() == nil {
						s.errs.Add(NewScanError("relaunch browser", target, err))
						s.log.Error("Giving up on %s: %v", target, err)
					}
					return
				}
				b = nb
			}

			s.runTest(ctx, b, health, target, payload, point)
		}
	}

	if s.blind != nil && ctx.Err() == nil {
		placed := s.blind.Issue(ctx, b, s.pipeline.Injector(), target, points)
		s.log.Debug("Issued blind payloads to %s (%d placed)", target, placed)
	}
}

func (s *Scanner) runTest(ctx context.Context, b browser.Browser, health *BrowserHealth, target, payload string, point config.InjectionPoint) {
	// In-flight tests finish after an interrupt
	testCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.testBudget())
	defer cancel()

	vuln, err := s.pipeline.Run(testCtx, b, target, payload, point)

	s.mu.Lock()
	s.tested++
	if err != nil {
		s.failed++
	}
	s.mu.Unlock()

	// A failed test only counts; its detail goes no further than the debug log
	if err != nil {
		if breaksBrowser(err) {
			health.RecordFailure()
		}
		s.log.Debug("%v", err)
		return
	}
	health.RecordSuccess()
	if vuln != nil {
		s.emit(vuln)
	}
}

// breaksBrowser reports whether a failed test counts against the browser's
// health: deadlines and other retryable failures, plus any navigation error.
func breaksBrowser(err error) bool {
	var se *ScanError
	return IsRetryable(err) || errors.As(err, &se) && se.Operation == "navigate"
}

// relaunch waits out the breaker cooldown and replaces the browser.
func (s *Scanner) relaunch(ctx context.Context, old browser.Browser, health *BrowserHealth) (browser.Browser, error) {
	if err := sleepCtx(ctx, health.Wait()); err != nil {
		return old, err
	}
	s.log.Warn("Browser unhealthy after %d failures, relaunching", health.FailureCount())

	b, err := s.factory(ctx)
	if err != nil {
		return old, fmt.Errorf("%w: %v", ErrDriverInit, err)
	}
	_ = old.Close()
	health.Reset()
	return b, nil
}

func (s *Scanner) emit(vuln *config.Vulnerability) {
	s.mu.Lock()
	s.vulns = append(s.vulns, *vuln)
	count := len(s.vulns)
	s.mu.Unlock()

	s.reporters.Report(vuln, count)
}
