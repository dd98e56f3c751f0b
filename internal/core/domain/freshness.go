package domain

import "time"

// FreshnessWindow is the validity period shared by session tokens and email
// verification tokens.
const FreshnessWindow = 24 * time.Hour

// Window evaluates a rolling validity period against wall-clock time at
// check time. There are no scheduled expiry events.
type Window struct {
	Length time.Duration
}

// DefaultWindow returns the 24-hour freshness window.
func DefaultWindow() Window {
	return Window{Length: FreshnessWindow}
}

// Cutoff returns the oldest issue time that is still fresh at now,
// exclusive: a value issued exactly at the cutoff is already expired.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.Add(-w.Length)
}

// Fresh reports whether something issued at issuedAt is still valid at now.
func (w Window) Fresh(issuedAt, now time.Time) bool {
	if issuedAt.IsZero() {
		return false
	}
	return issuedAt.After(w.Cutoff(now))
}
