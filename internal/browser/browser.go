// Package browser provides the browser-control capability used by the
// verification pipeline: navigation, document access, script evaluation,
// dialog handling, console capture, screenshots and form interaction.
package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoSubmitControl is returned when a form has no explicit submit control
	ErrNoSubmitControl = errors.New("no submit control in form")

	// ErrClosed is returned by calls on a closed browser
	ErrClosed = errors.New("browser closed")
)

// ConsoleEntry is one console message or uncaught exception observed in the page.
type ConsoleEntry struct {
	Level   string
	Message string
}

// IsError reports whether the entry is an error-level message.
func (e ConsoleEntry) IsError() bool {
	return strings.Contains(strings.ToLower(e.Level), "error")
}

// Browser is one exclusively owned browser session. Implementations are not
// required to be safe for concurrent use by several workers.
type Browser interface {
	// Navigate loads url and waits for the load event or the context deadline.
	Navigate(ctx context.Context, url string) error
	// Document returns the current serialized DOM.
	Document(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression or function and returns its value.
	Evaluate(ctx context.Context, js string) (interface{}, error)
	// PendingDialog returns the text of an unhandled alert/confirm/prompt.
	PendingDialog() (string, bool)
	// DismissDialog accepts the pending dialog.
	DismissDialog(ctx context.Context) error
	// ConsoleLog returns console entries seen since the last navigation.
	ConsoleLog() []ConsoleEntry
	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Forms returns the forms of the current document.
	Forms(ctx context.Context) ([]Form, error)
	Close() error
}

// Form is a <form> element of the current document.
type Form interface {
	// Fields returns the input and textarea elements of the form.
	Fields() ([]Element, error)
	// SubmitControl returns the first submit control, or ErrNoSubmitControl.
	SubmitControl() (Element, error)
	// Submit submits the form directly without a control.
	Submit() error
}

// Element is an interactive element of a form.
type Element interface {
	// Type returns the lower-cased type attribute, empty when absent.
	Type() string
	// Fill clears the element and types value into it.
	Fill(value string) error
	Click() error
}

// SubmitSelector locates explicit submit controls inside a form.
const SubmitSelector = `input[type="submit"], button[type="submit"], button:not([type])`

// FieldSelector locates fillable elements inside a form.
const FieldSelector = "input, textarea"

// Options configures a browser launch.
type Options struct {
	Headless bool
	Timeout  time.Duration
}

// Factory launches a fresh browser session.
type Factory func(ctx context.Context) (Browser, error)

// events is the dialog and console state shared by the engine adapters.
// Dialogs are accepted by the adapter as they open so navigation never
// blocks; their text is queued here until PendingDialog/DismissDialog.
type events struct {
	mu      sync.Mutex
	dialogs []string
	console []ConsoleEntry
	closed  bool
}

// open returns ErrClosed once the session has been closed.
func (e *events) open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// markClosed flips the session to closed and reports whether it was open.
func (e *events) markClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.closed = true
	return true
}

func (e *events) addDialog(text string) {
	e.mu.Lock()
	e.dialogs = append(e.dialogs, text)
	e.mu.Unlock()
}

func (e *events) addConsole(level, message string) {
	e.mu.Lock()
	e.console = append(e.console, ConsoleEntry{Level: level, Message: message})
	e.mu.Unlock()
}

func (e *events) pendingDialog() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.dialogs) == 0 {
		return "", false
	}
	return e.dialogs[0], true
}

func (e *events) popDialog() {
	e.mu.Lock()
	if len(e.dialogs) > 0 {
		e.dialogs = e.dialogs[1:]
	}
	e.mu.Unlock()
}

func (e *events) consoleLog() []ConsoleEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ConsoleEntry, len(e.console))
	copy(out, e.console)
	return out
}

func (e *events) resetConsole() {
	e.mu.Lock()
	e.console = nil
	e.mu.Unlock()
}
