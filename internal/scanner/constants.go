package scanner

import "time"

const (
	// Pipeline timing defaults
	DefaultSettle    = 3 * time.Second
	DefaultDOMSettle = 2 * time.Second
	DefaultDelay     = time.Second
	DefaultTimeout   = 30 * time.Second
	DefaultThreads   = 5

	// Context classifier windows
	ClassifyWindowRadius   = 500
	SurroundingRadius      = 100
	FallbackWindowRadius   = 50
	StructuralSnippetLimit = 200

	// Marker format
	MarkerPrefix    = "shadowx"
	MarkerRandBytes = 8
	SessionIDBytes  = 4

	// Evidence
	DiffTimeout        = time.Second
	DiffSnippetLimit   = 120
	DialogSnippetLimit = 100

	// Blind reconciliation defaults
	DefaultBlindTimeout = 60 * time.Second
	DefaultPollInterval = 5 * time.Second
	BlindInjectPause    = time.Second
	BlindIDLength       = 12

	// Health
	BreakerThreshold = 3
	BreakerCooldown  = 10 * time.Second

	// Screenshot labels
	ShotReflected = "reflected"
	ShotAlert     = "alert"

	// Record texts
	BlindContextDescription = "Blind XSS - external callback"
	AlertContextDescription = "Alert popup"
)
