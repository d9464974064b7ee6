package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxctl/voxctl/internal/config"
	"github.com/voxctl/voxctl/internal/recording"
	"github.com/voxctl/voxctl/internal/segment"
	"github.com/voxctl/voxctl/internal/trigger"
)

// spyTarget collects everything the dispatcher writes.
type spyTarget struct {
	mu     sync.Mutex
	writes []string
}

func (s *spyTarget) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, string(p))
	return len(p), nil
}

func (s *spyTarget) Close() error { return nil }
func (s *spyTarget) Alive() bool  { return true }

func (s *spyTarget) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.writes))
	copy(out, s.writes)
	return out
}

func newTestEngine(t *testing.T) (*Engine, *spyTarget) {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "voxctl.json"))
	require.NoError(t, err)

	eng, err := New(Options{Config: cfg})
	require.NoError(t, err)

	target := &spyTarget{}
	eng.AttachTarget(target)
	return eng, target
}

// runPipeline feeds the given utterance texts as final fragments and
// waits for the pipeline to drain.
func runPipeline(t *testing.T, eng *Engine, texts ...string) {
	t.Helper()
	fragments := make(chan segment.Fragment, len(texts))
	for _, text := range texts {
		fragments <- segment.Fragment{Text: text, IsFinal: true, Timestamp: time.Now()}
	}
	close(fragments)

	err := eng.Run(context.Background(), fragments)
	require.NoError(t, err)
}

func TestPipelineDispatchesResolvedActions(t *testing.T) {
	eng, target := newTestEngine(t)

	runPipeline(t, eng,
		"write a sort function",
		"period",
		"press enter",
		"control c",
	)

	require.Equal(t, []string{
		"write a sort function",
		".",
		"\n",
		"\x03",
	}, target.written())
}

func TestPauseGatesDispatch(t *testing.T) {
	eng, target := newTestEngine(t)

	runPipeline(t, eng,
		"before pause",
		"pause recording",
		"this must not be typed",
		"press enter",
		"resume recording",
		"after resume",
	)

	require.Equal(t, []string{"before pause", "after resume"}, target.written())
	require.Equal(t, recording.StateListening, eng.State())
}

func TestRecordingControlNeverDispatched(t *testing.T) {
	eng, target := newTestEngine(t)

	runPipeline(t, eng,
		"stop recording",
		"start recording",
	)

	require.Empty(t, target.written(), "recording control phrases must never reach the target")
}

func TestStopRecordingPausesNotStops(t *testing.T) {
	eng, _ := newTestEngine(t)

	runPipeline(t, eng, "stop recording")
	require.Equal(t, recording.StatePaused, eng.State())
}

func TestPipelineSilenceTimeout(t *testing.T) {
	eng, target := newTestEngine(t)
	require.NoError(t, eng.SetSilenceThreshold(0.05))

	fragments := make(chan segment.Fragment)
	go func() {
		// A partial hypothesis with no final after it: only the silence
		// deadline can close the buffer.
		fragments <- segment.Fragment{Text: "trailing thought", IsFinal: false, Timestamp: time.Now()}
		time.Sleep(500 * time.Millisecond)
		close(fragments)
	}()

	require.NoError(t, eng.Run(context.Background(), fragments))
	require.Equal(t, []string{"trailing thought"}, target.written())
}

func TestStopIsTerminal(t *testing.T) {
	eng, target := newTestEngine(t)
	eng.Stop()

	runPipeline(t, eng, "start recording", "press enter")

	require.Empty(t, target.written(), "nothing may dispatch after session stop")
	require.Equal(t, recording.StateStopped, eng.State())
	require.ErrorIs(t, eng.SetModel("small.en"), ErrStopped)
}

func TestStopFromAnotherGoroutine(t *testing.T) {
	eng, target := newTestEngine(t)

	fragments := make(chan segment.Fragment)
	done := make(chan error, 1)
	go func() {
		done <- eng.Run(context.Background(), fragments)
	}()

	eng.Stop()
	// The next event wakes the pipeline, which sees the stopped state,
	// gates the utterance, and exits.
	fragments <- segment.Fragment{Text: "after stop", IsFinal: true, Timestamp: time.Now()}

	require.NoError(t, <-done)
	require.Empty(t, target.written())
	require.Equal(t, recording.StateStopped, eng.State())
}

func TestCustomTriggersFromConfig(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "voxctl.json"))
	require.NoError(t, err)
	cfg.CustomTriggers = []trigger.Entry{
		{Phrase: "ship it", Kind: "text", Payload: "git push"},
	}

	eng, err := New(Options{Config: cfg})
	require.NoError(t, err)
	target := &spyTarget{}
	eng.AttachTarget(target)

	runPipeline(t, eng, "ship it")
	require.Equal(t, []string{"git push"}, target.written())
}

func TestBadCustomTriggerFailsConstruction(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "voxctl.json"))
	require.NoError(t, err)
	cfg.CustomTriggers = []trigger.Entry{
		{Phrase: "broken", Kind: "nope", Payload: "x"},
	}

	_, err = New(Options{Config: cfg})
	require.Error(t, err)
}

func TestMutators(t *testing.T) {
	eng, _ := newTestEngine(t)

	require.Error(t, eng.SetCLI("nonesuch"))
	require.Error(t, eng.SetProvider("siri"))
	require.Error(t, eng.SetModel(""))
	require.Error(t, eng.SetLanguage(""))
	require.Error(t, eng.SetSilenceThreshold(0))
	require.Error(t, eng.SetSilenceThreshold(-1))

	require.NoError(t, eng.SetProvider("openai"))
	require.Equal(t, "openai", eng.Config().Voice.Provider)
	require.NoError(t, eng.SetModel("small.en"))
	require.NoError(t, eng.SetLanguage("de"))
	require.NoError(t, eng.SetSilenceThreshold(1.5))
	require.Equal(t, "small.en", eng.Config().Voice.Model)
	require.Equal(t, "de", eng.Config().Voice.Language)
	require.Equal(t, 1.5, eng.Config().Voice.SilenceThreshold)

	require.NoError(t, eng.AddCustomTrigger(trigger.Entry{Phrase: "ship it", Kind: "text", Payload: "go"}))
	require.Len(t, eng.Config().CustomTriggers, 1)

	require.NoError(t, eng.RemoveCustomTrigger("ship it"))
	require.Empty(t, eng.Config().CustomTriggers)
	require.Error(t, eng.RemoveCustomTrigger("ship it"))
}

func TestConfigSavedOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxctl.json")
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	eng, err := New(Options{Config: cfg})
	require.NoError(t, err)
	eng.AttachTarget(&spyTarget{})
	require.NoError(t, eng.SetModel("small.en"))

	runPipeline(t, eng)

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "small.en", loaded.Voice.Model)
}

func TestPendingAbandonedOnSourceClose(t *testing.T) {
	eng, target := newTestEngine(t)

	fragments := make(chan segment.Fragment, 1)
	fragments <- segment.Fragment{Text: "half finished thought", IsFinal: false, Timestamp: time.Now()}
	close(fragments)

	require.NoError(t, eng.Run(context.Background(), fragments))
	require.Empty(t, target.written(), "pending hypothesis must be abandoned, not dispatched")
}
