package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/voxctl/voxctl/internal/bus"
	"github.com/voxctl/voxctl/internal/config"
	"github.com/voxctl/voxctl/internal/dispatch"
	"github.com/voxctl/voxctl/internal/engine"
	"github.com/voxctl/voxctl/internal/history"
	. "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/paths"
	"github.com/voxctl/voxctl/internal/registry"
	"github.com/voxctl/voxctl/internal/stt"
)

const version = "0.1.0"

type cli struct {
	Debug bool `help:"Enable debug logging." short:"d"`

	Run           runCmd           `cmd:"" default:"withargs" help:"Start voice control of an AI CLI."`
	ListClis      listCLIsCmd      `cmd:"" name:"list-clis" help:"List known AI CLIs and whether they are installed."`
	ListTerminals listTerminalsCmd `cmd:"" name:"list-terminals" help:"List known terminal emulators."`
	DownloadModel downloadModelCmd `cmd:"" name:"download-model" help:"Download a whisper.cpp model."`
	Transcribe    transcribeCmd    `cmd:"" help:"Transcribe an audio file and print the text."`
	History       historyCmd       `cmd:"" help:"Show or clear the dispatched command history."`
	Config        configCmd        `cmd:"" help:"Inspect the configuration file and its backups."`
	Version       versionCmd       `cmd:"" help:"Print the version."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("voxctl"),
		kong.Description("Voice control for AI CLIs: dictate text and commands into a terminal."),
		kong.UsageOnError(),
	)

	level := LevelInfo
	if root.Debug {
		level = LevelDebug
	}
	Init(&Config{Level: level})

	if err := ctx.Run(); err != nil {
		L_error("%v", err)
		os.Exit(1)
	}
}

type runCmd struct {
	CLI              string  `help:"Target AI CLI id (see list-clis)." placeholder:"ID"`
	Terminal         string  `help:"Terminal emulator id for windowed launch." placeholder:"ID"`
	Provider         string  `help:"Transcription backend: whispercpp or openai."`
	Model            string  `help:"Whisper model name, e.g. base.en."`
	Language         string  `help:"Recognition language code."`
	SilenceThreshold float64 `help:"Seconds of silence that finalize an utterance." name:"silence-threshold"`
	Window           bool    `help:"Launch the CLI in a separate terminal window instead of an attached pty."`
	ProbeVersions    bool    `help:"Run --version probes on detected CLIs at startup." name:"probe-versions"`
}

func (r *runCmd) Run() error {
	L_info("voxctl %s starting", version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	histPath, err := paths.HistoryPath()
	if err != nil {
		return fmt.Errorf("resolve history path: %w", err)
	}
	hist, err := history.NewStore(history.StoreConfig{Path: histPath})
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	eng, err := engine.New(engine.Options{Config: cfg, History: hist})
	if err != nil {
		return err
	}

	if err := r.applyOverrides(eng); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := eng.Registry()
	if r.ProbeVersions {
		reg.ProbeVersions(ctx)
	}

	cliDesc, err := pickCLI(reg, cfg.SelectedCLI)
	if err != nil {
		return err
	}
	cfg.SelectedCLI = cliDesc.ID

	if r.Window || cfg.SelectedTerminal != "" {
		term := reg.Terminal(cfg.SelectedTerminal)
		if term == nil {
			terms := reg.DetectedTerminals()
			if len(terms) == 0 {
				return fmt.Errorf("no terminal emulator detected for windowed launch")
			}
			term = terms[0]
			cfg.SelectedTerminal = term.ID
		}
		if err := dispatch.LaunchInTerminal(term, cliDesc); err != nil {
			return err
		}
		L_info("launched %s in %s; voxctl cannot type into a detached window, attach mode recommended",
			cliDesc.ID, term.ID)
	}

	target, err := dispatch.LaunchCLI(cliDesc, func(exitErr error) {
		bus.PublishEventWithSource(bus.TopicTargetExited, fmt.Sprint(exitErr), "main")
		L_info("target CLI exited; run 'voxctl list-clis' and restart with --cli to pick another target",
			"cli", cliDesc.ID)
		cancel()
	})
	if err != nil {
		return err
	}
	defer target.Close()
	eng.AttachTarget(target)

	provider, err := stt.NewProvider(stt.Config{
		Provider: cfg.Voice.Provider,
		WhisperCpp: stt.WhisperCppConfig{
			Model:    cfg.Voice.Model,
			Language: cfg.Voice.Language,
		},
		OpenAI: stt.OpenAIConfig{
			Language: cfg.Voice.Language,
		},
	})
	if err != nil {
		return err
	}
	defer provider.Close()

	mic, err := stt.NewMicSource(provider, stt.MicConfig{
		SilenceThreshold: cfg.Voice.SilenceThreshold,
	})
	if err != nil {
		return err
	}
	defer mic.Close()

	watcher, err := config.Watch(cfg.Path())
	if err != nil {
		L_warn("config watch unavailable", "error", err)
	} else {
		defer watcher.Close()
		sub := bus.SubscribeEvent(bus.TopicConfigChanged, func(ev bus.Event) {
			L_warn("config file changed on disk; restart voxctl to apply external edits")
		})
		defer bus.UnsubscribeEvent(sub)
	}

	L_info("listening", "cli", cliDesc.ID, "model", cfg.Voice.Model,
		"silenceThreshold", cfg.Voice.SilenceThreshold)

	err = eng.Run(ctx, mic.Fragments())
	if err != nil && err != context.Canceled {
		return err
	}
	L_info("voxctl stopped")
	return nil
}

func (r *runCmd) applyOverrides(eng *engine.Engine) error {
	if r.CLI != "" {
		if err := eng.SetCLI(r.CLI); err != nil {
			return err
		}
	}
	if r.Provider != "" {
		if err := eng.SetProvider(r.Provider); err != nil {
			return err
		}
	}
	if r.Terminal != "" {
		if err := eng.SetTerminal(r.Terminal); err != nil {
			return err
		}
	}
	if r.Model != "" {
		if err := eng.SetModel(r.Model); err != nil {
			return err
		}
	}
	if r.Language != "" {
		if err := eng.SetLanguage(r.Language); err != nil {
			return err
		}
	}
	if r.SilenceThreshold > 0 {
		if err := eng.SetSilenceThreshold(r.SilenceThreshold); err != nil {
			return err
		}
	}
	return nil
}

// pickCLI resolves the configured CLI, falling back to the first
// detected one.
func pickCLI(reg *registry.Registry, selected string) (*registry.CLIDescriptor, error) {
	if selected != "" {
		desc := reg.CLI(selected)
		if desc == nil {
			return nil, fmt.Errorf("unknown CLI %q", selected)
		}
		if !desc.Detected {
			return nil, fmt.Errorf("CLI %q is not installed (%s)", selected, desc.InstallURL)
		}
		return desc, nil
	}

	detected := reg.DetectedCLIs()
	if len(detected) == 0 {
		return nil, fmt.Errorf("no AI CLI detected; run 'voxctl list-clis' for install links")
	}
	return detected[0], nil
}

type listCLIsCmd struct {
	Versions bool `help:"Probe each detected CLI with --version."`
}

func (l *listCLIsCmd) Run() error {
	reg := registry.Detect()
	if l.Versions {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		reg.ProbeVersions(ctx)
	}

	for _, c := range reg.AllCLIs() {
		status := "not installed"
		if c.Detected {
			status = c.Path
			if c.Version != "" {
				status += " (" + c.Version + ")"
			}
		}
		fmt.Printf("%-12s %-24s %s\n", c.ID, c.DisplayName, status)
		if !c.Detected && c.InstallURL != "" {
			fmt.Printf("%-12s %-24s install: %s\n", "", "", c.InstallURL)
		}
	}
	return nil
}

type listTerminalsCmd struct{}

func (l *listTerminalsCmd) Run() error {
	reg := registry.Detect()
	for _, t := range reg.AllTerminals() {
		status := "not installed"
		if t.Detected {
			status = t.Path
		}
		fmt.Printf("%-16s %-20s %s\n", t.ID, t.DisplayName, status)
	}
	return nil
}

type downloadModelCmd struct {
	Model string `arg:"" help:"Model name, e.g. base.en or ggml-base.en.bin."`
	Dir   string `help:"Models directory (default ~/.voxctl/stt/whisper)."`
}

func (d *downloadModelCmd) Run() error {
	dir := d.Dir
	if dir == "" {
		var err error
		dir, err = paths.DefaultModelsDir()
		if err != nil {
			return err
		}
	}
	return stt.EnsureModel(context.Background(), dir, d.Model)
}

type transcribeCmd struct {
	File     string `arg:"" type:"existingfile" help:"Audio file to transcribe."`
	Provider string `help:"Transcription backend: whispercpp or openai." default:"whispercpp"`
	Model    string `help:"Whisper model name." default:"base.en"`
	Language string `help:"Recognition language code." default:"en"`
}

func (t *transcribeCmd) Run() error {
	provider, err := stt.NewProvider(stt.Config{
		Provider:   t.Provider,
		WhisperCpp: stt.WhisperCppConfig{Model: t.Model, Language: t.Language},
		OpenAI:     stt.OpenAIConfig{Language: t.Language},
	})
	if err != nil {
		return err
	}
	defer provider.Close()

	text, err := provider.Transcribe(t.File)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

type historyCmd struct {
	Limit int  `help:"Number of entries to show." default:"20"`
	Clear bool `help:"Delete all history entries."`
}

func (h *historyCmd) Run() error {
	path, err := paths.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.NewStore(history.StoreConfig{Path: path})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if h.Clear {
		return store.Clear(ctx)
	}

	entries, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		status := "ok"
		if !e.Dispatched {
			status = "failed: " + e.Error
		}
		fmt.Printf("%s  %-12s %-30q %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.ActionKind, e.Utterance, status)
	}
	return nil
}

type configCmd struct {
	Backups bool `help:"List config backups instead of the live config."`
	Restore int  `help:"Restore backup by index (0 = newest)." default:"-1"`
}

func (c *configCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if c.Restore >= 0 {
		return config.RestoreBackup(cfg.Path(), c.Restore)
	}

	if c.Backups {
		for _, b := range config.ListBackups(cfg.Path()) {
			fmt.Printf("%d  %s  %d bytes  %s\n", b.Index, b.Path, b.Size, b.ModTime.Format(time.RFC3339))
		}
		return nil
	}

	fmt.Println("path:", cfg.Path())
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type versionCmd struct{}

func (v *versionCmd) Run() error {
	fmt.Printf("voxctl %s\n", version)
	return nil
}
