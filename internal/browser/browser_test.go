package browser

import (
	"context"
	"errors"
	"testing"
)

func TestEventsDialogQueue(t *testing.T) {
	var e events

	if _, ok := e.pendingDialog(); ok {
		t.Fatal("empty queue reported a dialog")
	}

	e.addDialog("first")
	e.addDialog("second")

	text, ok := e.pendingDialog()
	if !ok || text != "first" {
		t.Fatalf("pendingDialog() = %q, %v; want first", text, ok)
	}

	e.popDialog()
	if text, _ := e.pendingDialog(); text != "second" {
		t.Errorf("after pop got %q, want second", text)
	}

	e.popDialog()
	e.popDialog() // popping an empty queue is a no-op
	if _, ok := e.pendingDialog(); ok {
		t.Error("queue should be empty")
	}
}

func TestEventsConsoleSnapshot(t *testing.T) {
	var e events
	e.addConsole("log", "hello")
	e.addConsole("error", "boom")

	snap := e.consoleLog()
	if len(snap) != 2 {
		t.Fatalf("got %d entries, want 2", len(snap))
	}
	if snap[0].IsError() || !snap[1].IsError() {
		t.Errorf("unexpected levels: %+v", snap)
	}

	snap[0].Message = "mutated"
	if e.consoleLog()[0].Message != "hello" {
		t.Error("consoleLog must return a copy")
	}

	e.resetConsole()
	if len(e.consoleLog()) != 0 {
		t.Error("resetConsole did not clear entries")
	}
}

func TestClosedSessionRejectsCalls(t *testing.T) {
	ctx := context.Background()
	sessions := map[string]Browser{
		"rod":        &RodBrowser{},
		"playwright": &PlaywrightBrowser{},
	}
	for name, b := range sessions {
		t.Run(name, func(t *testing.T) {
			// Zero-value sessions have no engine behind them, so any call that
			// got past the closed check would panic.
			switch s := b.(type) {
			case *RodBrowser:
				s.markClosed()
			case *PlaywrightBrowser:
				s.markClosed()
			}

			if err := b.Navigate(ctx, "http://t.test/"); !errors.Is(err, ErrClosed) {
				t.Errorf("Navigate err = %v", err)
			}
			if _, err := b.Document(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("Document err = %v", err)
			}
			if _, err := b.Evaluate(ctx, "1"); !errors.Is(err, ErrClosed) {
				t.Errorf("Evaluate err = %v", err)
			}
			if _, err := b.Screenshot(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("Screenshot err = %v", err)
			}
			if _, err := b.Forms(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("Forms err = %v", err)
			}
			if err := b.DismissDialog(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("DismissDialog err = %v", err)
			}
			if err := b.Close(); !errors.Is(err, ErrClosed) {
				t.Errorf("second Close err = %v", err)
			}
		})
	}
}

func TestEventsMarkClosed(t *testing.T) {
	var e events
	if err := e.open(); err != nil {
		t.Fatalf("fresh session reported %v", err)
	}
	if !e.markClosed() {
		t.Fatal("first markClosed should report the session was open")
	}
	if e.markClosed() {
		t.Error("second markClosed should report already closed")
	}
	if !errors.Is(e.open(), ErrClosed) {
		t.Error("closed session still open")
	}
}
