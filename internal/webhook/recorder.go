// Package webhook receives and serves out-of-band callbacks for blind XSS
// correlation: a fasthttp receiver that records every hit, and a client that
// polls a receiver's interaction log.
package webhook

import (
	"context"
	"sync"

	"github.com/Serdar715/shadowx/internal/config"
)

// Recorder is an append-only, concurrency-safe interaction log.
type Recorder struct {
	mu           sync.Mutex
	interactions []config.Interaction
	onRecord     func(config.Interaction)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnRecord registers a callback run after each interaction is stored.
func (r *Recorder) OnRecord(fn func(config.Interaction)) {
	r.mu.Lock()
	r.onRecord = fn
	r.mu.Unlock()
}

// Record appends an interaction.
func (r *Recorder) Record(in config.Interaction) {
	r.mu.Lock()
	r.interactions = append(r.interactions, in)
	fn := r.onRecord
	r.mu.Unlock()

	if fn != nil {
		fn(in)
	}
}

// Interactions returns a copy of everything recorded so far. It lets a
// Recorder serve directly as the scanner's interaction feed.
func (r *Recorder) Interactions(ctx context.Context) ([]config.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]config.Interaction, len(r.interactions))
	copy(out, r.interactions)
	return out, nil
}

// Len returns the number of recorded interactions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.interactions)
}
