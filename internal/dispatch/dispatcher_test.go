package dispatch

import (
	"errors"
	"testing"

	"github.com/voxctl/voxctl/internal/trigger"
)

// fakeTarget records writes and can simulate a dead process.
type fakeTarget struct {
	writes [][]byte
	alive  bool
	err    error
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{alive: true}
}

func (f *fakeTarget) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	buf := append([]byte(nil), p...)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakeTarget) Close() error { f.alive = false; return nil }
func (f *fakeTarget) Alive() bool  { return f.alive }

func (f *fakeTarget) written() string {
	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return string(out)
}

func TestDispatchEncoding(t *testing.T) {
	tests := []struct {
		name   string
		action trigger.Action
		want   string
	}{
		{"text", trigger.Action{Kind: trigger.KindInsertText, Payload: "hello world"}, "hello world"},
		{"punctuation", trigger.Action{Kind: trigger.KindPunctuation, Payload: "."}, "."},
		{"enter", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Enter"}, "\n"},
		{"tab", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Tab"}, "\t"},
		{"backspace", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Backspace"}, "\b"},
		{"escape", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Escape"}, "\x1b"},
		{"up arrow", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Up"}, "\x1b[A"},
		{"page down", trigger.Action{Kind: trigger.KindKeyPress, Payload: "PageDown"}, "\x1b[6~"},
		{"clear screen", trigger.Action{Kind: trigger.KindKeyPress, Payload: "Clear"}, "\x0c"},
		{"ctrl-c", trigger.Action{Kind: trigger.KindControlChar, Payload: "c"}, "\x03"},
		{"ctrl-d", trigger.Action{Kind: trigger.KindControlChar, Payload: "d"}, "\x04"},
		{"ctrl-z", trigger.Action{Kind: trigger.KindControlChar, Payload: "z"}, "\x1a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			target := newFakeTarget()
			d.Attach(target)

			if err := d.Dispatch(tt.action); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if got := target.written(); got != tt.want {
				t.Errorf("wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatchNoTarget(t *testing.T) {
	d := New()
	err := d.Dispatch(trigger.Action{Kind: trigger.KindInsertText, Payload: "x"})
	if !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("err = %v, want ErrTargetUnavailable", err)
	}
}

func TestDispatchClosedTarget(t *testing.T) {
	d := New()
	target := newFakeTarget()
	target.alive = false
	d.Attach(target)

	err := d.Dispatch(trigger.Action{Kind: trigger.KindInsertText, Payload: "x"})
	if !errors.Is(err, ErrTargetClosed) {
		t.Errorf("err = %v, want ErrTargetClosed", err)
	}
}

func TestDispatchUnsupported(t *testing.T) {
	d := New()
	d.Attach(newFakeTarget())

	cases := []trigger.Action{
		{Kind: trigger.KindKeyPress, Payload: "Hyperspace"},
		{Kind: trigger.KindControlChar, Payload: "ctrl"},
		{Kind: trigger.KindRecording, Payload: trigger.RecordingStop},
	}
	for _, action := range cases {
		if err := d.Dispatch(action); !errors.Is(err, ErrUnsupportedAction) {
			t.Errorf("Dispatch(%+v) err = %v, want ErrUnsupportedAction", action, err)
		}
	}
}

func TestDispatchDetach(t *testing.T) {
	d := New()
	target := newFakeTarget()
	d.Attach(target)
	d.Detach()

	err := d.Dispatch(trigger.Action{Kind: trigger.KindPunctuation, Payload: "."})
	if !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("err after detach = %v, want ErrTargetUnavailable", err)
	}
	if len(target.writes) != 0 {
		t.Error("detached target must receive nothing")
	}
}

func TestControlChar(t *testing.T) {
	tests := []struct {
		in     string
		want   byte
		wantOK bool
	}{
		{"a", 0x01, true},
		{"c", 0x03, true},
		{"z", 0x1a, true},
		{"C", 0x03, true},
		{"", 0, false},
		{"cc", 0, false},
		{"1", 0, false},
	}
	for _, tt := range tests {
		got, ok := ControlChar(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ControlChar(%q) = %#x, %v, want %#x, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
