package trigger

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Press Enter", "press enter"},
		{"trailing period", "period.", "period"},
		{"trailing punctuation", "stop recording!", "stop recording"},
		{"collapse whitespace", "  control   c  ", "control c"},
		{"already clean", "up arrow", "up arrow"},
		{"empty", "", ""},
		{"only punctuation", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveBuiltins(t *testing.T) {
	v := NewVocabulary()

	tests := []struct {
		name      string
		utterance string
		wantKind  Kind
		wantLoad  string
		wantMatch bool
	}{
		{"punctuation period", "period", KindPunctuation, ".", true},
		{"punctuation comma", "comma", KindPunctuation, ",", true},
		{"key enter", "press enter", KindKeyPress, "Enter", true},
		{"key enter alias", "hit enter", KindKeyPress, "Enter", true},
		{"key bare enter", "enter", KindKeyPress, "Enter", true},
		{"navigation", "up arrow", KindKeyPress, "Up", true},
		{"control char", "control c", KindControlChar, "c", true},
		{"clear screen", "clear screen", KindKeyPress, "Clear", true},
		{"recording stop", "stop recording", KindRecording, RecordingStop, true},
		{"recording resume", "resume recording", KindRecording, RecordingStart, true},

		// Whole-phrase only: embedded triggers never fire
		{"embedded trigger", "please press enter now", 0, "", false},
		{"trigger with prefix", "now period", 0, "", false},
		{"plain dictation", "write a function that sorts a list", 0, "", false},
		{"empty", "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok := v.Resolve(Normalize(tt.utterance))
			if ok != tt.wantMatch {
				t.Fatalf("Resolve(%q) match = %v, want %v", tt.utterance, ok, tt.wantMatch)
			}
			if !ok {
				return
			}
			if action.Kind != tt.wantKind || action.Payload != tt.wantLoad {
				t.Errorf("Resolve(%q) = {%s %q}, want {%s %q}",
					tt.utterance, action.Kind, action.Payload, tt.wantKind, tt.wantLoad)
			}
		})
	}
}

func TestAddCustom(t *testing.T) {
	v := NewVocabulary()

	err := v.AddCustom(Entry{Phrase: "Deploy It", Kind: "text", Payload: "make deploy"})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}

	action, ok := v.Resolve("deploy it")
	if !ok || action.Kind != KindInsertText || action.Payload != "make deploy" {
		t.Fatalf("custom phrase not resolved, got %+v ok=%v", action, ok)
	}

	// Re-adding the same phrase updates in place
	if err := v.AddCustom(Entry{Phrase: "deploy it", Kind: "text", Payload: "make release"}); err != nil {
		t.Fatalf("update in place: %v", err)
	}
	action, _ = v.Resolve("deploy it")
	if action.Payload != "make release" {
		t.Errorf("update not applied, payload = %q", action.Payload)
	}
	if got := len(v.Custom()); got != 1 {
		t.Errorf("custom entries = %d, want 1", got)
	}
}

func TestAddCustomBuiltinCollision(t *testing.T) {
	v := NewVocabulary()

	err := v.AddCustom(Entry{Phrase: "period", Kind: "text", Payload: "full stop"})
	if err == nil {
		t.Fatal("expected collision error without override")
	}

	err = v.AddCustom(Entry{Phrase: "period", Kind: "text", Payload: "full stop", Override: true})
	if err != nil {
		t.Fatalf("override should be allowed: %v", err)
	}

	action, ok := v.Resolve("period")
	if !ok || action.Kind != KindInsertText || action.Payload != "full stop" {
		t.Errorf("custom override should shadow built-in, got %+v", action)
	}

	// Removing the shadow restores the built-in
	if !v.RemoveCustom("period") {
		t.Fatal("RemoveCustom returned false")
	}
	action, ok = v.Resolve("period")
	if !ok || action.Kind != KindPunctuation || action.Payload != "." {
		t.Errorf("built-in not restored, got %+v", action)
	}
}

func TestAddCustomValidation(t *testing.T) {
	v := NewVocabulary()

	tests := []struct {
		name  string
		entry Entry
	}{
		{"empty phrase", Entry{Phrase: "...", Kind: "text", Payload: "x"}},
		{"unknown kind", Entry{Phrase: "do thing", Kind: "macro", Payload: "x"}},
		{"empty text payload", Entry{Phrase: "do thing", Kind: "text"}},
		{"bad control letter", Entry{Phrase: "do thing", Kind: "control", Payload: "ctrl"}},
		{"bad punctuation", Entry{Phrase: "do thing", Kind: "punctuation", Payload: "--"}},
		{"bad recording payload", Entry{Phrase: "do thing", Kind: "recording", Payload: "halt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.AddCustom(tt.entry); err == nil {
				t.Errorf("AddCustom(%+v) should fail", tt.entry)
			}
		})
	}
}

func TestSetCustomAllOrNothing(t *testing.T) {
	v := NewVocabulary()
	if err := v.AddCustom(Entry{Phrase: "keep me", Kind: "text", Payload: "kept"}); err != nil {
		t.Fatal(err)
	}

	bad := []Entry{
		{Phrase: "fine", Kind: "text", Payload: "ok"},
		{Phrase: "broken", Kind: "nope", Payload: "x"},
	}
	if err := v.SetCustom(bad); err == nil {
		t.Fatal("SetCustom with invalid entry should fail")
	}

	// Existing overlay untouched after failed load
	if _, ok := v.Resolve("keep me"); !ok {
		t.Error("failed SetCustom must not clobber existing overlay")
	}
	if _, ok := v.Resolve("fine"); ok {
		t.Error("failed SetCustom must not half-apply")
	}
}

func TestRecordingControl(t *testing.T) {
	v := NewVocabulary()

	if control, ok := v.RecordingControl("pause recording"); !ok || control != RecordingPause {
		t.Errorf("RecordingControl(pause recording) = %q, %v", control, ok)
	}
	if _, ok := v.RecordingControl("press enter"); ok {
		t.Error("non-recording phrase must not report as recording control")
	}
	if _, ok := v.RecordingControl("please stop recording now"); ok {
		t.Error("embedded recording phrase must not match")
	}
}
