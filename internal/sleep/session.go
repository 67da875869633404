// Package sleep defines the sleep session domain model shared by the
// store, the state holders, and the CLI renderers.
package sleep

import (
	"fmt"
	"time"
)

// Unrated is the quality value of a session that has not been scored yet.
const Unrated = -1

// Session is a single tracked night.
//
// A session is "open" (still being tracked) exactly when its start and end
// timestamps are equal at millisecond precision. There is no separate status
// column; openness is always derived from the timestamps so that every reader
// of the store reaches the same conclusion.
type Session struct {
	ID      int64     `json:"id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Quality int       `json:"quality"`
}

// NewOpen returns an unsaved open session starting at t.
func NewOpen(t time.Time) *Session {
	return &Session{Start: t, End: t, Quality: Unrated}
}

// Open reports whether the session is still being tracked.
// Timestamps are persisted at millisecond precision, so the comparison
// happens at that precision too.
func (s *Session) Open() bool {
	return s.Start.UnixMilli() == s.End.UnixMilli()
}

// Rated reports whether a quality score has been recorded.
func (s *Session) Rated() bool {
	return s.Quality >= 0
}

// Duration returns the tracked time span. Zero while the session is open.
func (s *Session) Duration() time.Duration {
	return time.UnixMilli(s.End.UnixMilli()).Sub(time.UnixMilli(s.Start.UnixMilli()))
}

// Validate checks field values before the session is persisted.
func (s *Session) Validate() error {
	if s.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if s.End.IsZero() {
		return fmt.Errorf("end is required")
	}
	if s.End.Before(s.Start) {
		return fmt.Errorf("end %s is before start %s", s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	if s.Quality != Unrated && !ValidQuality(s.Quality) {
		return fmt.Errorf("invalid quality %d (must be %d..%d)", s.Quality, QualityMin, QualityMax)
	}
	return nil
}

// Clone returns a deep copy. State holders hand copies to observers so a
// caller mutating the result cannot corrupt published state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// CloneAll deep-copies a session slice.
func CloneAll(sessions []*Session) []*Session {
	if sessions == nil {
		return nil
	}
	out := make([]*Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}
