package recording

import (
	"testing"

	"github.com/voxctl/voxctl/internal/trigger"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		current State
		control string
		want    State
		wantErr bool
	}{
		{"pause while listening", StateListening, trigger.RecordingPause, StatePaused, false},
		{"stop phrase while listening", StateListening, trigger.RecordingStop, StatePaused, false},
		{"resume while paused", StatePaused, trigger.RecordingStart, StateListening, false},
		{"pause while paused", StatePaused, trigger.RecordingPause, StatePaused, false},
		{"start while listening", StateListening, trigger.RecordingStart, StateListening, false},
		{"unknown control", StateListening, "halt", StateListening, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.current, tt.control)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply(%s, %s) error = %v, wantErr %v", tt.current, tt.control, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Apply(%s, %s) = %s, want %s", tt.current, tt.control, got, tt.want)
			}
		})
	}
}

func TestStoppedIsTerminal(t *testing.T) {
	for _, control := range []string{trigger.RecordingStart, trigger.RecordingStop, trigger.RecordingPause, "junk"} {
		got, err := Apply(StateStopped, control)
		if err != nil {
			t.Errorf("Apply(stopped, %s) error = %v", control, err)
		}
		if got != StateStopped {
			t.Errorf("Apply(stopped, %s) = %s, nothing may leave stopped", control, got)
		}
	}
}

func TestStop(t *testing.T) {
	for _, s := range []State{StateListening, StatePaused, StateStopped} {
		if got := Stop(s); got != StateStopped {
			t.Errorf("Stop(%s) = %s", s, got)
		}
	}
}

func TestGated(t *testing.T) {
	if Gated(StateListening) {
		t.Error("listening must not be gated")
	}
	if !Gated(StatePaused) {
		t.Error("paused must be gated")
	}
	if !Gated(StateStopped) {
		t.Error("stopped must be gated")
	}
}
