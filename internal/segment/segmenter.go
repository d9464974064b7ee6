// Package segment groups the transcription fragment stream into
// dispatch-ready utterances. Partial fragments only revise the pending
// hypothesis; final fragments and silence timeouts close it.
package segment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/voxctl/voxctl/internal/logging"
)

// Fragment is one record from the transcription source.
type Fragment struct {
	Text      string
	IsFinal   bool
	Timestamp time.Time
}

// Utterance is one finalized unit of speech, consumed exactly once by the
// resolver.
type Utterance struct {
	ID         string
	Text       string
	IsFinal    bool
	CapturedAt time.Time
}

// Segmenter owns the rolling buffer between fragments and utterances.
// It is not safe for concurrent use; the engine drives it from its single
// pipeline goroutine.
type Segmenter struct {
	threshold time.Duration
	pending   string
	lastAt    time.Time
}

// New creates a segmenter with the given silence threshold. A non-empty
// buffer older than the threshold is force-closed as a final utterance.
func New(threshold time.Duration) *Segmenter {
	return &Segmenter{threshold: threshold}
}

// SetThreshold changes the silence threshold for subsequent checks.
func (s *Segmenter) SetThreshold(d time.Duration) {
	s.threshold = d
}

// Pending returns the current unclosed hypothesis, for live display only.
func (s *Segmenter) Pending() string {
	return s.pending
}

// Feed consumes one fragment. Partials update the pending buffer and
// return nil; finals close the buffer and return the utterance.
func (s *Segmenter) Feed(f Fragment) *Utterance {
	text := strings.TrimSpace(f.Text)
	when := f.Timestamp
	if when.IsZero() {
		when = time.Now()
	}

	if !f.IsFinal {
		if text != "" {
			s.pending = text
			s.lastAt = when
		}
		return nil
	}

	// Final fragment. Its text is authoritative; fall back to the last
	// hypothesis when the backend sends an empty final.
	if text == "" {
		text = s.pending
	}
	s.pending = ""
	if text == "" {
		return nil
	}

	return &Utterance{
		ID:         uuid.NewString(),
		Text:       text,
		IsFinal:    true,
		CapturedAt: when,
	}
}

// CheckSilence force-closes a pending buffer that has seen no activity for
// at least the silence threshold. Returns nil when there is nothing to
// close; a closed buffer is emitted exactly once.
func (s *Segmenter) CheckSilence(now time.Time) *Utterance {
	if s.pending == "" || s.threshold <= 0 {
		return nil
	}
	if now.Sub(s.lastAt) < s.threshold {
		return nil
	}

	text := s.pending
	s.pending = ""
	L_debug("segment: silence timeout, closing buffer", "text", text)

	return &Utterance{
		ID:         uuid.NewString(),
		Text:       text,
		IsFinal:    true,
		CapturedAt: s.lastAt,
	}
}

// Deadline returns when the pending buffer would be force-closed.
// ok is false when no deadline is armed.
func (s *Segmenter) Deadline() (time.Time, bool) {
	if s.pending == "" || s.threshold <= 0 {
		return time.Time{}, false
	}
	return s.lastAt.Add(s.threshold), true
}

// Abandon discards the pending buffer without emitting it, returning the
// discarded text. Used on session stop.
func (s *Segmenter) Abandon() string {
	text := s.pending
	s.pending = ""
	if text != "" {
		L_debug("segment: abandoned pending buffer", "text", text)
	}
	return text
}
