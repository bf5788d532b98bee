package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightBrowser is the alternate engine backed by playwright-go.
type PlaywrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration

	events
}

// NewPlaywrightFactory returns a Factory that launches Playwright Chromium.
func NewPlaywrightFactory(opts Options) Factory {
	return func(ctx context.Context) (Browser, error) {
		return LaunchPlaywright(opts)
	}
}

// LaunchPlaywright starts the Playwright driver and opens one page.
func LaunchPlaywright(opts Options) (*PlaywrightBrowser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	b := &PlaywrightBrowser{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		timeout: opts.Timeout,
	}
	if b.timeout <= 0 {
		b.timeout = 30 * time.Second
	}

	page.On("dialog", func(dialog playwright.Dialog) {
		b.addDialog(dialog.Message())
		_ = dialog.Accept()
	})
	page.On("console", func(msg playwright.ConsoleMessage) {
		b.addConsole(msg.Type(), msg.Text())
	})
	page.OnPageError(func(err error) {
		b.addConsole("error", err.Error())
	})

	return b, nil
}

// timeoutMS converts the context deadline into a Playwright timeout.
func (b *PlaywrightBrowser) timeoutMS(ctx context.Context) *float64 {
	d := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func (b *PlaywrightBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.resetConsole()
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   b.timeoutMS(ctx),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *PlaywrightBrowser) Document(ctx context.Context) (string, error) {
	if err := b.open(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.page.Content()
}

func (b *PlaywrightBrowser) Evaluate(ctx context.Context, js string) (interface{}, error) {
	if err := b.open(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.page.Evaluate(js)
}

func (b *PlaywrightBrowser) PendingDialog() (string, bool) {
	return b.pendingDialog()
}

func (b *PlaywrightBrowser) DismissDialog(ctx context.Context) error {
	if err := b.open(); err != nil {
		return err
	}
	b.popDialog()
	return nil
}

func (b *PlaywrightBrowser) ConsoleLog() []ConsoleEntry {
	return b.consoleLog()
}

func (b *PlaywrightBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := b.open(); err != nil {
		return nil, err
	}
	return b.page.Screenshot(playwright.PageScreenshotOptions{
		Timeout: b.timeoutMS(ctx),
	})
}

func (b *PlaywrightBrowser) Forms(ctx context.Context) ([]Form, error) {
	if err := b.open(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := b.page.QuerySelectorAll("form")
	if err != nil {
		return nil, err
	}
	forms := make([]Form, 0, len(handles))
	for _, h := range handles {
		forms = append(forms, pwForm{h})
	}
	return forms, nil
}

func (b *PlaywrightBrowser) Close() error {
	if !b.markClosed() {
		return ErrClosed
	}
	var errs []string
	if err := b.page.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := b.context.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := b.browser.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close browser: %s", strings.Join(errs, "; "))
	}
	return nil
}

type pwForm struct{ h playwright.ElementHandle }

func (f pwForm) Fields() ([]Element, error) {
	handles, err := f.h.QuerySelectorAll(FieldSelector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, pwElement{h})
	}
	return out, nil
}

func (f pwForm) SubmitControl() (Element, error) {
	handles, err := f.h.QuerySelectorAll(SubmitSelector)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, ErrNoSubmitControl
	}
	return pwElement{handles[0]}, nil
}

func (f pwForm) Submit() error {
	_, err := f.h.Evaluate(`(form) => HTMLFormElement.prototype.submit.call(form)`)
	return err
}

type pwElement struct{ h playwright.ElementHandle }

func (e pwElement) Type() string {
	t, err := e.h.GetAttribute("type")
	if err != nil {
		return ""
	}
	return strings.ToLower(t)
}

func (e pwElement) Fill(value string) error {
	return e.h.Fill(value)
}

func (e pwElement) Click() error {
	return e.h.Click()
}
