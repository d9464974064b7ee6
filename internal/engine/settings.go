package engine

import (
	"fmt"
	"time"

	"github.com/voxctl/voxctl/internal/bus"
	. "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/trigger"
)

// Configuration mutators. Callers invoke these from the same thread of
// control that owns the engine; the configuration is never mutated
// concurrently.

// SetCLI selects the target CLI. Selecting an undetected CLI is allowed
// (the user may install it later) but warned about.
func (e *Engine) SetCLI(id string) error {
	if e.stopped {
		return ErrStopped
	}
	desc := e.reg.CLI(id)
	if desc == nil {
		return fmt.Errorf("engine: unknown CLI %q", id)
	}
	if !desc.Detected {
		L_warn("engine: selected CLI not detected", "cli", id, "install", desc.InstallURL)
	}
	e.cfg.SelectedCLI = id
	return nil
}

// SetTerminal selects the terminal emulator used for windowed launches.
func (e *Engine) SetTerminal(id string) error {
	if e.stopped {
		return ErrStopped
	}
	desc := e.reg.Terminal(id)
	if desc == nil {
		return fmt.Errorf("engine: unknown terminal %q", id)
	}
	if !desc.Detected {
		L_warn("engine: selected terminal not detected", "terminal", id)
	}
	e.cfg.SelectedTerminal = id
	return nil
}

// SetProvider selects the transcription backend.
func (e *Engine) SetProvider(name string) error {
	if e.stopped {
		return ErrStopped
	}
	switch name {
	case "whispercpp", "openai":
	default:
		return fmt.Errorf("engine: unknown stt provider %q (want whispercpp or openai)", name)
	}
	e.cfg.Voice.Provider = name
	return nil
}

// SetModel changes the speech model.
func (e *Engine) SetModel(model string) error {
	if e.stopped {
		return ErrStopped
	}
	if model == "" {
		return fmt.Errorf("engine: model cannot be empty")
	}
	e.cfg.Voice.Model = model
	return nil
}

// SetLanguage changes the recognition language.
func (e *Engine) SetLanguage(lang string) error {
	if e.stopped {
		return ErrStopped
	}
	if lang == "" {
		return fmt.Errorf("engine: language cannot be empty")
	}
	e.cfg.Voice.Language = lang
	return nil
}

// SetSilenceThreshold changes the silence window, in seconds, that
// finalizes an utterance. Takes effect for the next utterance.
func (e *Engine) SetSilenceThreshold(seconds float64) error {
	if e.stopped {
		return ErrStopped
	}
	if seconds <= 0 {
		return fmt.Errorf("engine: silence threshold must be positive, got %v", seconds)
	}
	e.cfg.Voice.SilenceThreshold = seconds
	e.segmenter.SetThreshold(time.Duration(seconds * float64(time.Second)))
	return nil
}

// AddCustomTrigger installs a user trigger phrase and mirrors it into
// the configuration.
func (e *Engine) AddCustomTrigger(entry trigger.Entry) error {
	if e.stopped {
		return ErrStopped
	}
	if err := e.vocab.AddCustom(entry); err != nil {
		return err
	}
	e.cfg.CustomTriggers = e.vocab.Custom()
	return nil
}

// RemoveCustomTrigger removes a user trigger phrase.
func (e *Engine) RemoveCustomTrigger(phrase string) error {
	if e.stopped {
		return ErrStopped
	}
	if !e.vocab.RemoveCustom(phrase) {
		return fmt.Errorf("engine: no custom trigger %q", phrase)
	}
	e.cfg.CustomTriggers = e.vocab.Custom()
	return nil
}

// Save flushes the configuration to disk.
func (e *Engine) Save() error {
	if err := e.cfg.Save(); err != nil {
		return err
	}
	bus.PublishEventWithSource(bus.TopicConfigSaved, e.cfg.Path(), "engine")
	return nil
}
