// Package engine wires the whole pipeline together: recognition
// fragments in, keystrokes to the selected CLI out. It owns the session
// configuration lifecycle and the recording state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/voxctl/voxctl/internal/bus"
	"github.com/voxctl/voxctl/internal/config"
	"github.com/voxctl/voxctl/internal/dispatch"
	"github.com/voxctl/voxctl/internal/history"
	. "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/recording"
	"github.com/voxctl/voxctl/internal/registry"
	"github.com/voxctl/voxctl/internal/resolver"
	"github.com/voxctl/voxctl/internal/segment"
	"github.com/voxctl/voxctl/internal/trigger"
)

// ErrStopped is returned by mutators after the engine has shut down.
var ErrStopped = errors.New("engine: stopped")

// Engine is the orchestrator. All configuration mutation goes through
// its methods; the pipeline runs on a single goroutine so resolution
// and dispatch are naturally serialized.
type Engine struct {
	cfg        *config.Config
	vocab      *trigger.Vocabulary
	reg        *registry.Registry
	segmenter  *segment.Segmenter
	resolver   *resolver.Resolver
	dispatcher *dispatch.Dispatcher
	hist       *history.Store

	// stateMu guards state: the pipeline goroutine reads it per utterance
	// while Stop may be called from a signal handler.
	stateMu sync.Mutex
	state   recording.State

	stopped bool
}

// Options configures engine construction.
type Options struct {
	Config  *config.Config
	History *history.Store // optional
}

// New builds an engine from a loaded configuration. Custom triggers
// from the config are installed into the vocabulary; a bad entry fails
// construction rather than silently dropping user phrases.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("engine: config required")
	}

	vocab := trigger.NewVocabulary()
	if err := vocab.SetCustom(cfg.CustomTriggers); err != nil {
		return nil, fmt.Errorf("engine: load custom triggers: %w", err)
	}

	reg := registry.Detect()
	bus.PublishEventWithSource(bus.TopicRegistryDetected, reg, "engine")

	threshold := time.Duration(cfg.Voice.SilenceThreshold * float64(time.Second))
	e := &Engine{
		cfg:        cfg,
		vocab:      vocab,
		reg:        reg,
		segmenter:  segment.New(threshold),
		resolver:   resolver.New(vocab),
		dispatcher: dispatch.New(),
		hist:       opts.History,
		state:      recording.StateListening,
	}

	if cfg.SelectedCLI != "" && reg.CLI(cfg.SelectedCLI) == nil {
		L_warn("engine: configured CLI unknown", "cli", cfg.SelectedCLI)
	}

	return e, nil
}

// Registry returns the detection snapshot taken at startup.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Vocabulary exposes the active trigger vocabulary.
func (e *Engine) Vocabulary() *trigger.Vocabulary {
	return e.vocab
}

// Config returns the live session configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// State returns the current recording state.
func (e *Engine) State() recording.State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// AttachTarget points the dispatcher at a delivery target.
func (e *Engine) AttachTarget(t dispatch.Target) {
	e.dispatcher.Attach(t)
}

// Run consumes recognition fragments until the context is cancelled or
// the fragment source closes. It blocks; callers run it on a goroutine
// when they need to keep working.
func (e *Engine) Run(ctx context.Context, fragments <-chan segment.Fragment) error {
	defer e.shutdown()

	for {
		timer, deadline := e.silenceTimer()
		var timerC <-chan time.Time
		if deadline {
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if pending := e.segmenter.Abandon(); pending != "" {
				L_debug("engine: abandoned pending text on shutdown", "text", pending)
			}
			stopTimer(timer)
			return ctx.Err()

		case f, ok := <-fragments:
			stopTimer(timer)
			if !ok {
				if pending := e.segmenter.Abandon(); pending != "" {
					L_debug("engine: abandoned pending text on source close", "text", pending)
				}
				return nil
			}
			if u := e.segmenter.Feed(f); u != nil {
				e.handleUtterance(*u)
			} else if !f.IsFinal && f.Text != "" {
				bus.PublishEventWithSource(bus.TopicPartial, e.segmenter.Pending(), "engine")
			}

		case now := <-timerC:
			if u := e.segmenter.CheckSilence(now); u != nil {
				e.handleUtterance(*u)
			}
		}

		if e.State() == recording.StateStopped {
			return nil
		}
	}
}

func (e *Engine) silenceTimer() (*time.Timer, bool) {
	deadline, ok := e.segmenter.Deadline()
	if !ok {
		return nil, false
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	return time.NewTimer(d), true
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// handleUtterance runs one finalized utterance through the gate, the
// resolver, and the dispatcher.
func (e *Engine) handleUtterance(u segment.Utterance) {
	normalized := trigger.Normalize(u.Text)
	if normalized == "" {
		return
	}

	bus.PublishEventWithSource(bus.TopicUtterance, u.Text, "engine")

	// Recording control is consumed here, in every state, and never
	// dispatched. Everything else is gated while paused.
	if control, ok := e.vocab.RecordingControl(normalized); ok {
		e.applyRecordingControl(control)
		return
	}

	if state := e.State(); recording.Gated(state) {
		L_debug("engine: utterance gated", "state", string(state), "text", u.Text)
		return
	}

	cmd := e.resolver.Resolve(u)
	err := e.dispatcher.Dispatch(cmd.Action)
	if err != nil {
		L_warn("engine: dispatch failed", "kind", cmd.Action.Kind.String(), "error", err)
		bus.PublishEventWithSource(bus.TopicDispatchFailed, err.Error(), "engine")
	}
	e.record(cmd, err)
}

func (e *Engine) applyRecordingControl(control string) {
	e.stateMu.Lock()
	next, err := recording.Apply(e.state, control)
	if err != nil {
		e.stateMu.Unlock()
		L_warn("engine: bad recording control", "control", control, "error", err)
		return
	}
	if next == e.state {
		e.stateMu.Unlock()
		return
	}
	prev := e.state
	e.state = next
	e.stateMu.Unlock()

	L_info("engine: recording state changed", "from", string(prev), "to", string(next))

	switch next {
	case recording.StateListening:
		bus.PublishEventWithSource(bus.TopicRecordingResumed, string(next), "engine")
	case recording.StatePaused:
		bus.PublishEventWithSource(bus.TopicRecordingPaused, string(next), "engine")
	}
}

// Stop moves the engine to the terminal Stopped state. Safe to call from
// any goroutine; the next pipeline iteration exits, and pending segmenter
// text is abandoned, not dispatched.
func (e *Engine) Stop() {
	e.stateMu.Lock()
	if e.state == recording.StateStopped {
		e.stateMu.Unlock()
		return
	}
	e.state = recording.Stop(e.state)
	e.stateMu.Unlock()
	bus.PublishEventWithSource(bus.TopicRecordingStopped, string(recording.StateStopped), "engine")
}

func (e *Engine) record(cmd resolver.ResolvedCommand, dispatchErr error) {
	if e.hist == nil {
		return
	}

	entry := &history.Entry{
		Utterance:  cmd.Source.Text,
		ActionKind: cmd.Action.Kind.String(),
		Payload:    cmd.Action.Payload,
		TargetCLI:  e.cfg.SelectedCLI,
		Dispatched: dispatchErr == nil,
	}
	if dispatchErr != nil {
		entry.Error = dispatchErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.hist.Record(ctx, entry); err != nil {
		L_warn("engine: history record failed", "error", err)
	}
}

func (e *Engine) shutdown() {
	if e.stopped {
		return
	}
	e.stopped = true
	e.dispatcher.Detach()
	if err := e.cfg.Save(); err != nil {
		L_warn("engine: config save on shutdown failed", "error", err)
	} else {
		bus.PublishEventWithSource(bus.TopicConfigSaved, e.cfg.Path(), "engine")
	}
}
