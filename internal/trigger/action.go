// Package trigger holds the voice trigger vocabulary: the mapping from
// spoken phrases to terminal actions. Built-in phrases are fixed at compile
// time; user phrases overlay them at runtime.
package trigger

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of action variants.
type Kind int

const (
	// KindInsertText types the payload verbatim into the target.
	KindInsertText Kind = iota
	// KindKeyPress sends a named key (payload: "Enter", "Up", "Tab", ...).
	KindKeyPress
	// KindControlChar sends a control character (payload: "c", "d", "z").
	KindControlChar
	// KindPunctuation inserts a literal punctuation character.
	KindPunctuation
	// KindRecording toggles recording state (payload: "start", "stop", "pause").
	KindRecording
)

// Recording control payloads.
const (
	RecordingStart = "start"
	RecordingStop  = "stop"
	RecordingPause = "pause"
)

func (k Kind) String() string {
	switch k {
	case KindInsertText:
		return "text"
	case KindKeyPress:
		return "key"
	case KindControlChar:
		return "control"
	case KindPunctuation:
		return "punctuation"
	case KindRecording:
		return "recording"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a persisted kind name back to its Kind value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return KindInsertText, nil
	case "key":
		return KindKeyPress, nil
	case "control":
		return KindControlChar, nil
	case "punctuation":
		return KindPunctuation, nil
	case "recording":
		return KindRecording, nil
	default:
		return 0, fmt.Errorf("unknown action kind %q", s)
	}
}

// Action is what a matched trigger phrase resolves to.
type Action struct {
	Kind    Kind   // variant discriminator
	Payload string // key name, control letter, literal char, or text
}

// Entry binds a normalized phrase to an action. Custom entries carry the
// Override flag when they intentionally shadow a built-in phrase.
type Entry struct {
	Phrase   string `json:"phrase"`
	Kind     string `json:"action"`
	Payload  string `json:"payload,omitempty"`
	Override bool   `json:"override,omitempty"`
}

// ToAction converts the persisted entry form into an Action.
func (e Entry) ToAction() (Action, error) {
	kind, err := ParseKind(e.Kind)
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: kind, Payload: e.Payload}, nil
}

// Normalize canonicalizes text for phrase matching: lowercase, collapsed
// internal whitespace, and trailing/leading punctuation stripped (speech
// backends like to append a period to everything).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,!?;:")
	return strings.Join(strings.Fields(s), " ")
}

// WordCount returns the number of whitespace-separated words in a
// normalized phrase.
func WordCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, " ") + 1
}
