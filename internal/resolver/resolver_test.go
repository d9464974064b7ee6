package resolver

import (
	"testing"

	"github.com/voxctl/voxctl/internal/segment"
	"github.com/voxctl/voxctl/internal/trigger"
)

func TestResolve(t *testing.T) {
	vocab := trigger.NewVocabulary()
	if err := vocab.AddCustom(trigger.Entry{Phrase: "ship it", Kind: "text", Payload: "git push"}); err != nil {
		t.Fatal(err)
	}
	r := New(vocab)

	tests := []struct {
		name     string
		text     string
		wantKind trigger.Kind
		wantLoad string
	}{
		{"punctuation", "period", trigger.KindPunctuation, "."},
		{"punctuation with stt period", "Period.", trigger.KindPunctuation, "."},
		{"key press", "press enter", trigger.KindKeyPress, "Enter"},
		{"control char", "control c", trigger.KindControlChar, "c"},
		{"custom", "ship it", trigger.KindInsertText, "git push"},

		// Whole-phrase policy: a trigger inside dictation is literal text
		{"embedded trigger", "please press enter now", trigger.KindInsertText, "please press enter now"},
		{"plain dictation", "refactor the parser", trigger.KindInsertText, "refactor the parser"},
		{"dictation keeps punctuation", "fix it, then ship.", trigger.KindInsertText, "fix it, then ship."},
		{"dictation keeps case", "Use HTTPS everywhere", trigger.KindInsertText, "Use HTTPS everywhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := segment.Utterance{ID: "u1", Text: tt.text, IsFinal: true}
			cmd := r.Resolve(u)

			if cmd.Action.Kind != tt.wantKind {
				t.Fatalf("Resolve(%q).Kind = %s, want %s", tt.text, cmd.Action.Kind, tt.wantKind)
			}
			if cmd.Action.Payload != tt.wantLoad {
				t.Errorf("Resolve(%q).Payload = %q, want %q", tt.text, cmd.Action.Payload, tt.wantLoad)
			}
			if cmd.Source.ID != "u1" {
				t.Error("resolved command must carry its source utterance")
			}
		})
	}
}

func TestResolveTrimsFallbackText(t *testing.T) {
	r := New(trigger.NewVocabulary())
	cmd := r.Resolve(segment.Utterance{Text: "  hello there  "})
	if cmd.Action.Payload != "hello there" {
		t.Errorf("fallback text = %q, want trimmed original", cmd.Action.Payload)
	}
}
