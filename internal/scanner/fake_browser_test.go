package scanner

import (
	"context"
	"errors"
	"sync"

	"github.com/Serdar715/shadowx/internal/browser"
)

// fakeBrowser is an in-memory browser.Browser. onNavigate lets a test
// model the target page: it runs on every navigation and may set the
// document, queue dialogs or log console entries.
type fakeBrowser struct {
	mu sync.Mutex

	navigated  []string
	navErr     error
	document   string
	docErr     error
	dialogs    []string
	dismissed  int
	console    []browser.ConsoleEntry
	evalResult interface{}
	evalErr    error
	evals      int
	forms      []*fakeForm
	formsErr   error
	shot       []byte
	shotErr    error
	closed     bool

	onNavigate func(fb *fakeBrowser, url string)
}

func (fb *fakeBrowser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fb.navigated = append(fb.navigated, url)
	fb.console = nil
	if fb.onNavigate != nil {
		fb.onNavigate(fb, url)
	}
	return fb.navErr
}

func (fb *fakeBrowser) Document(ctx context.Context) (string, error) {
	return fb.document, fb.docErr
}

func (fb *fakeBrowser) Evaluate(ctx context.Context, js string) (interface{}, error) {
	fb.evals++
	return fb.evalResult, fb.evalErr
}

func (fb *fakeBrowser) PendingDialog() (string, bool) {
	if len(fb.dialogs) == 0 {
		return "", false
	}
	return fb.dialogs[0], true
}

func (fb *fakeBrowser) DismissDialog(ctx context.Context) error {
	if len(fb.dialogs) > 0 {
		fb.dialogs = fb.dialogs[1:]
		fb.dismissed++
	}
	return nil
}

func (fb *fakeBrowser) ConsoleLog() []browser.ConsoleEntry {
	return fb.console
}

func (fb *fakeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	return fb.shot, fb.shotErr
}

func (fb *fakeBrowser) Forms(ctx context.Context) ([]browser.Form, error) {
	if fb.formsErr != nil {
		return nil, fb.formsErr
	}
	out := make([]browser.Form, len(fb.forms))
	for i, f := range fb.forms {
		out[i] = f
	}
	return out, nil
}

func (fb *fakeBrowser) Close() error {
	fb.mu.Lock()
	fb.closed = true
	fb.mu.Unlock()
	return nil
}

type fakeForm struct {
	fields    []*fakeElement
	fieldsErr error
	control   *fakeElement
	submitted bool
	submitErr error
	onSubmit  func()
}

func (f *fakeForm) Fields() ([]browser.Element, error) {
	out := make([]browser.Element, len(f.fields))
	for i, el := range f.fields {
		out[i] = el
	}
	return out, f.fieldsErr
}

func (f *fakeForm) SubmitControl() (browser.Element, error) {
	if f.control == nil {
		return nil, browser.ErrNoSubmitControl
	}
	return f.control, nil
}

func (f *fakeForm) Submit() error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = true
	if f.onSubmit != nil {
		f.onSubmit()
	}
	return nil
}

type fakeElement struct {
	typ      string
	value    string
	fillErr  error
	clickErr error
	clicked  bool
	onClick  func()
}

func (e *fakeElement) Type() string { return e.typ }

func (e *fakeElement) Fill(value string) error {
	if e.fillErr != nil {
		return e.fillErr
	}
	e.value = value
	return nil
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicked = true
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

var errBroken = errors.New("element detached")
