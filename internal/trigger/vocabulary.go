package trigger

import (
	"fmt"
	"sort"
	"sync"

	. "github.com/voxctl/voxctl/internal/logging"
)

// builtins is the fixed phrase table. Keys are already normalized.
// Phrases map whole utterances only - an embedded phrase inside longer
// dictated text never triggers.
var builtins = map[string]Action{
	// Navigation
	"up arrow":    {Kind: KindKeyPress, Payload: "Up"},
	"down arrow":  {Kind: KindKeyPress, Payload: "Down"},
	"left arrow":  {Kind: KindKeyPress, Payload: "Left"},
	"right arrow": {Kind: KindKeyPress, Payload: "Right"},
	"home":        {Kind: KindKeyPress, Payload: "Home"},
	"end":         {Kind: KindKeyPress, Payload: "End"},
	"page up":     {Kind: KindKeyPress, Payload: "PageUp"},
	"page down":   {Kind: KindKeyPress, Payload: "PageDown"},

	// Editing
	"enter":        {Kind: KindKeyPress, Payload: "Enter"},
	"press enter":  {Kind: KindKeyPress, Payload: "Enter"},
	"hit enter":    {Kind: KindKeyPress, Payload: "Enter"},
	"new line":     {Kind: KindKeyPress, Payload: "Enter"},
	"tab":          {Kind: KindKeyPress, Payload: "Tab"},
	"press tab":    {Kind: KindKeyPress, Payload: "Tab"},
	"backspace":    {Kind: KindKeyPress, Payload: "Backspace"},
	"delete":       {Kind: KindKeyPress, Payload: "Delete"},
	"escape":       {Kind: KindKeyPress, Payload: "Escape"},
	"press escape": {Kind: KindKeyPress, Payload: "Escape"},
	"clear screen": {Kind: KindKeyPress, Payload: "Clear"},

	// Control characters
	"control c": {Kind: KindControlChar, Payload: "c"},
	"control d": {Kind: KindControlChar, Payload: "d"},
	"control z": {Kind: KindControlChar, Payload: "z"},

	// Punctuation
	"period":            {Kind: KindPunctuation, Payload: "."},
	"dot":               {Kind: KindPunctuation, Payload: "."},
	"comma":             {Kind: KindPunctuation, Payload: ","},
	"question mark":     {Kind: KindPunctuation, Payload: "?"},
	"exclamation mark":  {Kind: KindPunctuation, Payload: "!"},
	"exclamation point": {Kind: KindPunctuation, Payload: "!"},
	"colon":             {Kind: KindPunctuation, Payload: ":"},
	"semicolon":         {Kind: KindPunctuation, Payload: ";"},
	"quote":             {Kind: KindPunctuation, Payload: `"`},
	"single quote":      {Kind: KindPunctuation, Payload: "'"},
	"apostrophe":        {Kind: KindPunctuation, Payload: "'"},
	"open parenthesis":  {Kind: KindPunctuation, Payload: "("},
	"close parenthesis": {Kind: KindPunctuation, Payload: ")"},
	"open bracket":      {Kind: KindPunctuation, Payload: "["},
	"close bracket":     {Kind: KindPunctuation, Payload: "]"},
	"open brace":        {Kind: KindPunctuation, Payload: "{"},
	"close brace":       {Kind: KindPunctuation, Payload: "}"},
	"slash":             {Kind: KindPunctuation, Payload: "/"},
	"backslash":         {Kind: KindPunctuation, Payload: `\`},
	"pipe":              {Kind: KindPunctuation, Payload: "|"},
	"ampersand":         {Kind: KindPunctuation, Payload: "&"},
	"at sign":           {Kind: KindPunctuation, Payload: "@"},
	"hashtag":           {Kind: KindPunctuation, Payload: "#"},
	"dollar sign":       {Kind: KindPunctuation, Payload: "$"},
	"percent":           {Kind: KindPunctuation, Payload: "%"},
	"caret":             {Kind: KindPunctuation, Payload: "^"},
	"asterisk":          {Kind: KindPunctuation, Payload: "*"},
	"plus":              {Kind: KindPunctuation, Payload: "+"},
	"minus":             {Kind: KindPunctuation, Payload: "-"},
	"equals":            {Kind: KindPunctuation, Payload: "="},
	"underscore":        {Kind: KindPunctuation, Payload: "_"},
	"tilde":             {Kind: KindPunctuation, Payload: "~"},
	"backtick":          {Kind: KindPunctuation, Payload: "`"},
	"less than":         {Kind: KindPunctuation, Payload: "<"},
	"greater than":      {Kind: KindPunctuation, Payload: ">"},
	"space":             {Kind: KindPunctuation, Payload: " "},

	// Recording control
	"start recording":  {Kind: KindRecording, Payload: RecordingStart},
	"resume recording": {Kind: KindRecording, Payload: RecordingStart},
	"stop recording":   {Kind: KindRecording, Payload: RecordingStop},
	"pause recording":  {Kind: KindRecording, Payload: RecordingPause},
}

// Vocabulary is the trigger lookup table: the built-in phrases plus the
// user's custom overlay. Custom phrases win on collision.
type Vocabulary struct {
	mu      sync.RWMutex
	custom  map[string]Action
	order   []Entry // custom entries in insertion order (persisted as-is)
	lengths []int   // distinct phrase word counts, longest first
}

// NewVocabulary returns a vocabulary containing only the built-in phrases.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		custom: make(map[string]Action),
	}
	v.rebuildLengths()
	return v
}

// rebuildLengths recomputes the distinct word-count buckets, longest first.
// Matching walks these greedily so a two-word phrase always wins over any
// one-word interpretation. Caller must hold the write lock.
func (v *Vocabulary) rebuildLengths() {
	seen := make(map[int]bool)
	for phrase := range builtins {
		seen[WordCount(phrase)] = true
	}
	for phrase := range v.custom {
		seen[WordCount(phrase)] = true
	}

	lengths := make([]int, 0, len(seen))
	for n := range seen {
		lengths = append(lengths, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))
	v.lengths = lengths
}

// Resolve looks up a normalized utterance against the vocabulary.
// Matching is greedy by decreasing phrase length (in words) and requires
// whole-phrase equality; custom phrases take precedence over built-ins.
// Returns false if the text matches no trigger phrase.
func (v *Vocabulary) Resolve(normalized string) (Action, bool) {
	if normalized == "" {
		return Action{}, false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	words := WordCount(normalized)
	for _, n := range v.lengths {
		if n != words {
			continue
		}
		if action, ok := v.custom[normalized]; ok {
			return action, true
		}
		if action, ok := builtins[normalized]; ok {
			return action, true
		}
	}
	return Action{}, false
}

// RecordingControl reports whether a normalized utterance is a recording
// control phrase, returning its payload ("start", "stop", "pause").
// Recording phrases are always evaluated regardless of gate state, so this
// lookup is exposed separately from Resolve.
func (v *Vocabulary) RecordingControl(normalized string) (string, bool) {
	action, ok := v.Resolve(normalized)
	if !ok || action.Kind != KindRecording {
		return "", false
	}
	return action.Payload, true
}

// IsBuiltin reports whether the normalized phrase is part of the built-in
// table.
func IsBuiltin(phrase string) bool {
	_, ok := builtins[Normalize(phrase)]
	return ok
}

// BuiltinPhrases returns all built-in phrases, sorted.
func BuiltinPhrases() []string {
	phrases := make([]string, 0, len(builtins))
	for p := range builtins {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)
	return phrases
}

// AddCustom registers a user trigger. The phrase is normalized before
// insertion. Colliding with a built-in phrase requires entry.Override;
// re-adding an existing custom phrase updates it in place.
func (v *Vocabulary) AddCustom(entry Entry) error {
	phrase := Normalize(entry.Phrase)
	if phrase == "" {
		return fmt.Errorf("trigger phrase is empty after normalization")
	}

	action, err := entry.ToAction()
	if err != nil {
		return err
	}
	if err := validateAction(action); err != nil {
		return fmt.Errorf("trigger %q: %w", phrase, err)
	}

	if _, clash := builtins[phrase]; clash && !entry.Override {
		return fmt.Errorf("trigger %q collides with a built-in phrase (set override to shadow it)", phrase)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	entry.Phrase = phrase
	if _, exists := v.custom[phrase]; exists {
		for i := range v.order {
			if v.order[i].Phrase == phrase {
				v.order[i] = entry
				break
			}
		}
	} else {
		v.order = append(v.order, entry)
	}
	v.custom[phrase] = action
	v.rebuildLengths()

	L_info("trigger: custom phrase added", "phrase", phrase, "kind", action.Kind.String())
	return nil
}

// RemoveCustom deletes a user trigger. Built-in phrases cannot be removed;
// removing a custom phrase that shadowed a built-in restores the built-in.
func (v *Vocabulary) RemoveCustom(phrase string) bool {
	phrase = Normalize(phrase)

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.custom[phrase]; !ok {
		return false
	}
	delete(v.custom, phrase)
	for i := range v.order {
		if v.order[i].Phrase == phrase {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	v.rebuildLengths()

	L_info("trigger: custom phrase removed", "phrase", phrase)
	return true
}

// Custom returns the user triggers in insertion order.
func (v *Vocabulary) Custom() []Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Entry, len(v.order))
	copy(out, v.order)
	return out
}

// SetCustom replaces the custom overlay from a persisted list, preserving
// order. Invalid entries abort the load so a bad config cannot half-apply.
func (v *Vocabulary) SetCustom(entries []Entry) error {
	fresh := NewVocabulary()
	for _, e := range entries {
		if err := fresh.AddCustom(e); err != nil {
			return err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.custom = fresh.custom
	v.order = fresh.order
	v.rebuildLengths()
	return nil
}

// validateAction checks that an action is expressible by the dispatcher.
func validateAction(a Action) error {
	switch a.Kind {
	case KindInsertText:
		if a.Payload == "" {
			return fmt.Errorf("text action requires a payload")
		}
	case KindKeyPress:
		if a.Payload == "" {
			return fmt.Errorf("key action requires a key name")
		}
	case KindControlChar:
		if len(a.Payload) != 1 || a.Payload[0] < 'a' || a.Payload[0] > 'z' {
			return fmt.Errorf("control action requires a single letter a-z, got %q", a.Payload)
		}
	case KindPunctuation:
		if len(a.Payload) != 1 {
			return fmt.Errorf("punctuation action requires a single character, got %q", a.Payload)
		}
	case KindRecording:
		switch a.Payload {
		case RecordingStart, RecordingStop, RecordingPause:
		default:
			return fmt.Errorf("recording action requires start/stop/pause, got %q", a.Payload)
		}
	default:
		return fmt.Errorf("unsupported action kind %d", int(a.Kind))
	}
	return nil
}
