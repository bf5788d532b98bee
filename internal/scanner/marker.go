package scanner

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// lastStamp is the most recent time component handed out
var lastStamp atomic.Int64

// nextStamp returns a nanosecond timestamp strictly greater than any
// previously returned one, even when the clock stalls or steps back.
func nextStamp() int64 {
	for {
		now := time.Now().UnixNano()
		prev := lastStamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, now) {
			return now
		}
	}
}

// randomHex returns n random bytes hex-encoded
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; the stamp still
		// keeps the token unique
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}

// NewMarker returns a URL-safe token unique within the process:
// shadowx_<session>_<base36 stamp>_<random hex>.
func NewMarker(sessionID string) string {
	var sb strings.Builder
	sb.WriteString(MarkerPrefix)
	sb.WriteByte('_')
	if sessionID != "" {
		sb.WriteString(sessionID)
		sb.WriteByte('_')
	}
	sb.WriteString(strconv.FormatInt(nextStamp(), 36))
	sb.WriteByte('_')
	sb.WriteString(randomHex(MarkerRandBytes))
	return sb.String()
}

// NewSessionID returns an 8 character hex session label.
func NewSessionID() string {
	return randomHex(SessionIDBytes)
}
