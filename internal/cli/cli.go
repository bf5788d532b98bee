package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Serdar715/shadowx/internal/banner"
	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/logger"
	"github.com/Serdar715/shadowx/internal/payloads"
	"github.com/Serdar715/shadowx/internal/report"
	"github.com/Serdar715/shadowx/internal/scanner"
	"github.com/Serdar715/shadowx/internal/webhook"
)

var (
	// Target options
	targetURL   string
	urlListFile string

	// Payload options
	payloadFile string
	encode      bool

	// Browser options
	engine      string
	visibleMode bool
	timeout     int

	// Timing options
	threads   int
	settleMS  int
	domSettle int
	delayMS   int
	rateLimit int

	// Blind XSS options
	blindMode    bool
	webhookURL   string
	localWebhook string
	blindTimeout int
	pollInterval int

	// Verification options
	confirmStored bool

	// Output options
	outputDir    string
	outputFormat string
	verbose      bool
	silent       bool
)

// prepared holds what PreRunE validated, so RunE starts no work on a bad
// configuration.
var prepared struct {
	cfg      *config.ScanConfig
	payloads []string
	log      *logger.Logger
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shadowx [target_url]",
		Short: "Browser-verified XSS scanner",
		Long: banner.GetBanner() + `
ShadowX - Browser-Verified Cross-Site Scripting Scanner

Every candidate is confirmed in a real browser before it is reported:
a unique marker is injected, the page is left to settle, and only
executed script or a marker-driven DOM change counts as a finding.

Features:
  • Reflected, stored and DOM-based XSS detection
  • Query, fragment, path and form injection
  • Context classification with remediation advice
  • Blind XSS via webhook callbacks (built-in receiver available)
  • Rod (Chromium) or Playwright engines
  • JSON, HTML and text reports
`,
		Example: `  # Basic scan
  shadowx "https://example.com/search?q=test"

  # Batch scan from URL list with 10 workers
  shadowx -l urls.txt -t 10

  # Custom payloads with encoded variants
  shadowx "https://example.com/?q=1" -p payloads.txt --encode

  # Blind XSS with an external collector
  shadowx "https://example.com/contact" --blind --webhook-url https://collector.example/webhook/

  # Blind XSS with the built-in receiver
  shadowx "https://example.com/contact" --blind --local-webhook :8080

  # Confirm stored findings with a second visit, HTML report only
  shadowx "https://example.com/guestbook" --confirm-stored --format html -o reports`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logger.FromFlags(verbose, silent))

			cfg, err := buildConfig(args, log)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			gen := payloads.NewGenerator()
			list, err := gen.Load(cfg.PayloadFile)
			if err != nil {
				return err
			}
			if cfg.Encode {
				list = gen.Expand(list)
			}

			prepared.cfg = cfg
			prepared.payloads = list
			prepared.log = log
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), prepared.cfg, prepared.payloads, prepared.log)
		},
	}

	flags := rootCmd.Flags()

	// Target flags
	flags.StringVarP(&targetURL, "url", "u", "", "Target URL to scan")
	flags.StringVarP(&urlListFile, "url-file", "l", "", "File containing URLs to scan (one per line)")

	// Payload flags
	flags.StringVarP(&payloadFile, "payloads", "p", "", "Custom payload file ({{MARKER}} is replaced per test)")
	flags.BoolVar(&encode, "encode", false, "Add encoded and obfuscated variants of every payload")

	// Browser flags
	flags.StringVar(&engine, "engine", config.EngineRod, "Browser engine (rod, playwright)")
	flags.BoolVar(&visibleMode, "gui", false, "Run the browser with a visible window")
	flags.IntVar(&timeout, "timeout", 30, "Navigation and probe timeout in seconds")

	// Performance flags
	flags.IntVarP(&threads, "threads", "t", scanner.DefaultThreads, "Number of concurrent workers (one browser each)")
	flags.IntVar(&settleMS, "settle", int(scanner.DefaultSettle/time.Millisecond), "Wait after injection in milliseconds")
	flags.IntVar(&domSettle, "dom-settle", int(scanner.DefaultDOMSettle/time.Millisecond), "Wait before the DOM re-read in milliseconds")
	flags.IntVar(&delayMS, "delay", int(scanner.DefaultDelay/time.Millisecond), "Pause between tests of one URL in milliseconds")
	flags.IntVar(&rateLimit, "rate-limit", 0, "Probe requests per second (0 = unlimited)")

	// Blind XSS flags
	flags.BoolVar(&blindMode, "blind", false, "Enable blind XSS detection")
	flags.StringVar(&webhookURL, "webhook-url", "", "Webhook base URL for blind callbacks")
	flags.StringVar(&localWebhook, "local-webhook", "", "Start a local webhook receiver on this address (e.g. :8080)")
	flags.IntVar(&blindTimeout, "blind-timeout", int(scanner.DefaultBlindTimeout/time.Second), "Seconds to wait for blind callbacks")
	flags.IntVar(&pollInterval, "poll-interval", int(scanner.DefaultPollInterval/time.Second), "Seconds between webhook polls")

	// Verification flags
	flags.BoolVar(&confirmStored, "confirm-stored", false, "Revisit the page to confirm stored findings")

	// Output flags
	flags.StringVarP(&outputDir, "output-dir", "o", "./output", "Directory for reports and screenshots")
	flags.StringVar(&outputFormat, "format", report.FormatAll, "Report format (all, json, html, txt)")
	flags.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flags.BoolVar(&silent, "silent", false, "Silence all output except findings")

	return rootCmd
}

// buildConfig assembles the scan configuration from the parsed flags.
// Invalid targets are dropped with a warning.
func buildConfig(args []string, log *logger.Logger) (*config.ScanConfig, error) {
	var raw []string
	if len(args) > 0 {
		raw = append(raw, args[0])
	}
	if targetURL != "" {
		raw = append(raw, targetURL)
	}
	if urlListFile != "" {
		urls, err := loadURLsFromFile(urlListFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load URL list: %w", err)
		}
		log.Info("Loaded %d URLs from %s", len(urls), urlListFile)
		raw = append(raw, urls...)
	}

	valid, invalid := config.FilterTargets(raw)
	for _, u := range invalid {
		log.Warn("Skipping invalid URL (scheme and host required): %s", u)
	}

	cfg := config.DefaultConfig()
	cfg.TargetURLs = dedupe(valid)
	cfg.URLListFile = urlListFile
	cfg.PayloadFile = payloadFile
	cfg.Encode = encode
	cfg.Engine = strings.ToLower(engine)
	cfg.VisibleMode = visibleMode
	cfg.Timeout = timeout
	cfg.Threads = threads
	cfg.Settle = millis(settleMS)
	cfg.DOMSettle = millis(domSettle)
	cfg.Delay = millis(delayMS)
	cfg.RateLimit = rateLimit
	cfg.BlindEnabled = blindMode
	cfg.WebhookURL = strings.TrimSpace(webhookURL)
	cfg.LocalWebhook = localWebhook
	cfg.BlindTimeout = time.Duration(blindTimeout) * time.Second
	cfg.PollInterval = time.Duration(pollInterval) * time.Second
	cfg.ConfirmStored = confirmStored
	cfg.OutputDir = outputDir
	cfg.OutputFormat = outputFormat
	cfg.Verbose = verbose
	cfg.Silent = silent
	return cfg, nil
}

// run performs the scan and always hands the result to the report writer,
// including after an interrupt.
func run(parent context.Context, cfg *config.ScanConfig, payloadList []string, log *logger.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	if !cfg.Silent {
		fmt.Println(banner.GetBanner())
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := scanner.NewConsoleReporter(cfg.Verbose)
	opts := []scanner.Option{
		scanner.WithLogger(log),
		scanner.WithReporter(console),
	}

	if cfg.BlindEnabled && cfg.LocalWebhook != "" {
		srv := webhook.NewServer(cfg.LocalWebhook, webhook.NewRecorder())
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		srv.Recorder().OnRecord(func(in config.Interaction) {
			log.Success("Blind callback received for %s (%s /%s)", in.UniqueID, in.Method, in.Path)
		})
		log.Info("Local webhook receiver listening on %s", srv.URL())

		if cfg.WebhookURL == "" {
			cfg.WebhookURL = srv.URL()
			opts = append(opts, scanner.WithInteractionFeed(srv.Recorder()))
		}
	}

	sc, err := scanner.New(cfg, opts...)
	if err != nil {
		return err
	}

	printConfigSummary(cfg, len(payloadList), sc.SessionID())

	result := sc.Run(ctx, cfg.TargetURLs, payloadList)
	if result.Interrupted {
		color.Yellow("\n[!] Scan interrupted by user, reporting partial results")
	}

	console.ReportSummary(result.Vulnerabilities)
	printSummary(result, log)

	paths, err := report.New(cfg.OutputFormat, cfg.OutputDir).Generate(result)
	for _, p := range paths {
		log.Success("Report saved to: %s", p)
	}
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return nil
}

// loadURLsFromFile loads URLs from a file (one per line)
func loadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// Skip empty lines and comments
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func millis(ms int) time.Duration {
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// printConfigSummary prints the scan configuration
func printConfigSummary(cfg *config.ScanConfig, payloadCount int, sessionID string) {
	if cfg.Silent {
		return
	}
	color.Yellow("\n┌─────────────────────────────────────────────────┐")
	color.Yellow("│              SCAN CONFIGURATION                 │")
	color.Yellow("└─────────────────────────────────────────────────┘")

	if len(cfg.TargetURLs) > 1 {
		color.White("  📋 Mode:        Batch Scan (%d URLs)", len(cfg.TargetURLs))
	} else {
		color.White("  📋 Target:      %s", truncateURL(cfg.TargetURLs[0], 60))
	}
	color.White("  🔖 Session:     %s", sessionID)
	color.White("  🌐 Engine:      %s", cfg.Engine)
	color.White("  🧵 Threads:     %d", cfg.Threads)
	color.White("  💉 Payloads:    %d", payloadCount)
	color.White("  ⏱️  Timeout:     %ds (settle %s, dom settle %s)", cfg.Timeout, cfg.Settle, cfg.DOMSettle)

	if cfg.Delay > 0 {
		color.White("  ⏳ Delay:       %s between tests", cfg.Delay)
	}
	if cfg.BlindEnabled {
		color.White("  🪝 Webhook:     %s (wait %s)", cfg.WebhookURL, cfg.BlindTimeout)
	}
	if cfg.ConfirmStored {
		color.White("  🔁 Stored:      confirmed on revisit")
	}

	color.Yellow("─────────────────────────────────────────────────")
}

// printSummary prints the final scan statistics
func printSummary(result *config.ScanResult, log *logger.Logger) {
	log.Info("URLs scanned:    %d", len(result.TargetURLs))
	log.Info("Tests run:       %d", result.TestedPayloads)
	log.Info("Duration:        %s", result.ScanDuration)
	if result.ErrorCount > 0 {
		log.Warn("Errors:          %d", result.ErrorCount)
		for _, msg := range result.Errors {
			log.Debug("%s", msg)
		}
	}
}

func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen] + "..."
}

func init() {
	// Disable color if not a terminal
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}
