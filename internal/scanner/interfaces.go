// Package scanner - Interface definitions for XSS scanning components
package scanner

import (
	"context"
	"time"

	"github.com/Serdar715/shadowx/internal/config"
	"github.com/Serdar715/shadowx/internal/probe"
)

// Prober performs the lightweight GET used during enumeration
type Prober interface {
	Get(ctx context.Context, url string, timeout time.Duration) (*probe.Response, error)
}

// InteractionFeed returns every interaction recorded by a webhook so far
type InteractionFeed interface {
	Interactions(ctx context.Context) ([]config.Interaction, error)
}

// InteractionFeedFunc adapts a function to InteractionFeed
type InteractionFeedFunc func(ctx context.Context) ([]config.Interaction, error)

// Interactions implements InteractionFeed
func (f InteractionFeedFunc) Interactions(ctx context.Context) ([]config.Interaction, error) {
	return f(ctx)
}

// ScreenshotWriter persists a screenshot and returns its reference
type ScreenshotWriter interface {
	Save(name string, png []byte) (string, error)
}
