package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser drives a Chromium instance over CDP with go-rod.
type RodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	events
	stopEvents context.CancelFunc
}

// NewRodFactory returns a Factory that launches rod-controlled Chromium.
func NewRodFactory(opts Options) Factory {
	return func(ctx context.Context) (Browser, error) {
		return LaunchRod(ctx, opts)
	}
}

// LaunchRod starts a browser, opens one page and attaches the dialog and
// console listeners.
func LaunchRod(ctx context.Context, opts Options) (*RodBrowser, error) {
	l := launcher.New().Headless(opts.Headless).NoSandbox(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	// Enable Page events to ensure dialogs are reported
	if err := (proto.PageEnable{}).Call(page); err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to enable page events: %w", err)
	}
	_ = (proto.RuntimeEnable{}).Call(page)

	r := &RodBrowser{launcher: l, browser: b, page: page}

	listenCtx, cancel := context.WithCancel(context.Background())
	r.stopEvents = cancel
	wait := page.Context(listenCtx).EachEvent(
		func(e *proto.PageJavascriptDialogOpening) {
			r.addDialog(e.Message)
			// Accept right away so navigation and evaluation never block on it
			_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			parts := make([]string, 0, len(e.Args))
			for _, arg := range e.Args {
				if arg.Value.Nil() {
					parts = append(parts, arg.Description)
					continue
				}
				parts = append(parts, arg.Value.Str())
			}
			r.addConsole(string(e.Type), strings.Join(parts, " "))
		},
		func(e *proto.RuntimeExceptionThrown) {
			if e.ExceptionDetails == nil {
				return
			}
			msg := e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				msg = e.ExceptionDetails.Exception.Description
			}
			r.addConsole("error", msg)
		},
	)
	go wait()

	return r, nil
}

func (r *RodBrowser) Navigate(ctx context.Context, url string) error {
	if err := r.open(); err != nil {
		return err
	}
	r.resetConsole()
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	// A load timeout still leaves a usable, partially loaded page
	_ = p.WaitLoad()
	return nil
}

func (r *RodBrowser) Document(ctx context.Context) (string, error) {
	if err := r.open(); err != nil {
		return "", err
	}
	return r.page.Context(ctx).HTML()
}

func (r *RodBrowser) Evaluate(ctx context.Context, js string) (interface{}, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	res, err := r.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.Value.Val(), nil
}

func (r *RodBrowser) PendingDialog() (string, bool) {
	return r.pendingDialog()
}

// DismissDialog drops the oldest queued dialog; the page side was already
// accepted by the listener.
func (r *RodBrowser) DismissDialog(ctx context.Context) error {
	if err := r.open(); err != nil {
		return err
	}
	r.popDialog()
	return nil
}

func (r *RodBrowser) ConsoleLog() []ConsoleEntry {
	return r.consoleLog()
}

func (r *RodBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	return r.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (r *RodBrowser) Forms(ctx context.Context) ([]Form, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	els, err := r.page.Context(ctx).Elements("form")
	if err != nil {
		return nil, err
	}
	forms := make([]Form, 0, len(els))
	for _, el := range els {
		forms = append(forms, rodForm{el})
	}
	return forms, nil
}

func (r *RodBrowser) Close() error {
	if !r.markClosed() {
		return ErrClosed
	}
	if r.stopEvents != nil {
		r.stopEvents()
	}
	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}

type rodForm struct{ el *rod.Element }

func (f rodForm) Fields() ([]Element, error) {
	els, err := f.el.Elements(FieldSelector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, rodElement{el})
	}
	return out, nil
}

// SubmitControl uses Elements rather than Element, which would retry until
// the context deadline when the form has no control.
func (f rodForm) SubmitControl() (Element, error) {
	els, err := f.el.Elements(SubmitSelector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoSubmitControl
	}
	return rodElement{els.First()}, nil
}

func (f rodForm) Submit() error {
	_, err := f.el.Eval(`() => HTMLFormElement.prototype.submit.call(this)`)
	return err
}

type rodElement struct{ el *rod.Element }

func (e rodElement) Type() string {
	t, err := e.el.Attribute("type")
	if err != nil || t == nil {
		return ""
	}
	return strings.ToLower(*t)
}

func (e rodElement) Fill(value string) error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Input(value)
}

func (e rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
