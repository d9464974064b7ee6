// Package dispatch delivers resolved actions to the controlled terminal
// as raw byte writes. It owns the encoding from named actions to wire
// bytes; everything above it deals in Actions, everything below in bytes.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"sync"

	. "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/trigger"
)

var (
	// ErrTargetUnavailable means no target is attached.
	ErrTargetUnavailable = errors.New("dispatch: no target attached")
	// ErrTargetClosed means the target process has exited or its pty is gone.
	ErrTargetClosed = errors.New("dispatch: target closed")
	// ErrUnsupportedAction means the action cannot be encoded for the target.
	ErrUnsupportedAction = errors.New("dispatch: unsupported action")
)

// Target is anything that accepts raw input bytes. *PtyTarget is the
// production implementation.
type Target interface {
	io.WriteCloser
	// Alive reports whether the target can still accept writes.
	Alive() bool
}

// Dispatcher serializes action delivery to a single target. Writes from
// concurrent callers never interleave mid-sequence.
type Dispatcher struct {
	mu     sync.Mutex
	target Target

	// unsupported keys we already warned about, to keep the log quiet
	// when the same unknown key fires repeatedly
	warned map[string]bool
}

// New creates a dispatcher with no target attached.
func New() *Dispatcher {
	return &Dispatcher{warned: make(map[string]bool)}
}

// Attach sets the delivery target, replacing any previous one. The old
// target is not closed; its owner decides its lifecycle.
func (d *Dispatcher) Attach(t Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = t
}

// Detach removes the current target. Subsequent dispatches fail with
// ErrTargetUnavailable.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = nil
}

// Dispatch encodes one action and writes it to the target. Recording
// actions never reach the target; the engine consumes them before
// dispatch, so seeing one here is a bug upstream.
func (d *Dispatcher) Dispatch(action trigger.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if action.Kind == trigger.KindRecording {
		return fmt.Errorf("%w: recording control must not be dispatched", ErrUnsupportedAction)
	}

	if d.target == nil {
		return ErrTargetUnavailable
	}
	if !d.target.Alive() {
		return ErrTargetClosed
	}

	payload, err := d.encode(action)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	if _, err := d.target.Write(payload); err != nil {
		if !d.target.Alive() {
			return fmt.Errorf("%w: %v", ErrTargetClosed, err)
		}
		return fmt.Errorf("dispatch: write failed: %w", err)
	}

	L_trace("dispatched", "kind", action.Kind.String(), "bytes", len(payload))
	return nil
}

func (d *Dispatcher) encode(action trigger.Action) ([]byte, error) {
	switch action.Kind {
	case trigger.KindInsertText, trigger.KindPunctuation:
		return []byte(action.Payload), nil

	case trigger.KindKeyPress:
		seq, ok := KeySequence(action.Payload)
		if !ok {
			if !d.warned[action.Payload] {
				d.warned[action.Payload] = true
				L_warn("unknown key name", "key", action.Payload)
			}
			return nil, fmt.Errorf("%w: key %q", ErrUnsupportedAction, action.Payload)
		}
		return []byte(seq), nil

	case trigger.KindControlChar:
		ch, ok := ControlChar(action.Payload)
		if !ok {
			return nil, fmt.Errorf("%w: control char %q", ErrUnsupportedAction, action.Payload)
		}
		return []byte{ch}, nil

	default:
		return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedAction, action.Kind)
	}
}
