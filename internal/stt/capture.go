package stt

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	logging "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/segment"
)

const (
	// frameSamples is 100ms of 16kHz mono audio per read.
	frameSamples = targetSampleRate / 10

	// defaultEnergyThreshold is the RMS floor (on [-1,1] samples) below
	// which a frame counts as silence.
	defaultEnergyThreshold = 0.01

	// defaultPartialInterval spaces out interim transcriptions while the
	// user is still speaking.
	defaultPartialInterval = time.Second

	// maxUtteranceSamples caps one buffered utterance at 30s so a stuck
	// VAD cannot grow the buffer without bound.
	maxUtteranceSamples = targetSampleRate * 30
)

// MicConfig configures the microphone capture loop.
type MicConfig struct {
	Device           string        // recorder device, recorder-specific ("" = default)
	SilenceThreshold float64       // seconds of quiet that ends an utterance
	EnergyThreshold  float64       // RMS floor that counts as speech (0 = default)
	PartialInterval  time.Duration // interim transcription spacing (0 = default)
}

// MicSource captures microphone audio through an external recorder
// (arecord, sox, or ffmpeg, whichever is installed), runs energy-based
// endpointing over it, and emits recognition fragments: interim
// hypotheses while speech continues, a final fragment when it stops.
type MicSource struct {
	provider Provider
	config   MicConfig

	cmd    *exec.Cmd
	stdout io.ReadCloser
	out    chan segment.Fragment

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewMicSource starts capturing from the default microphone.
func NewMicSource(provider Provider, cfg MicConfig) (*MicSource, error) {
	if provider == nil {
		return nil, fmt.Errorf("stt: mic source needs a provider")
	}
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = 2.0
	}
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = defaultEnergyThreshold
	}
	if cfg.PartialInterval <= 0 {
		cfg.PartialInterval = defaultPartialInterval
	}

	argv, err := recorderCommand(cfg.Device)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stt: recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("stt: start recorder %s: %w", argv[0], err)
	}

	src := &MicSource{
		provider: provider,
		config:   cfg,
		cmd:      cmd,
		stdout:   stdout,
		out:      make(chan segment.Fragment, 8),
		cancel:   cancel,
	}
	go src.run()

	logging.L_info("stt: microphone capture started", "recorder", argv[0], "provider", provider.Name())
	return src, nil
}

// Fragments returns the recognition stream. The channel closes when the
// recorder exits or the source is closed.
func (m *MicSource) Fragments() <-chan segment.Fragment {
	return m.out
}

// Close stops the recorder and closes the fragment stream.
func (m *MicSource) Close() error {
	m.closeOnce.Do(func() {
		m.cancel()
		m.stdout.Close()
	})
	return nil
}

func (m *MicSource) run() {
	defer close(m.out)
	defer m.cmd.Wait()

	frame := make([]byte, frameSamples*2)
	var buffer []float32
	inSpeech := false
	lastVoice := time.Now()
	lastPartial := time.Time{}
	silence := time.Duration(m.config.SilenceThreshold * float64(time.Second))

	for {
		if _, err := io.ReadFull(m.stdout, frame); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF && err != os.ErrClosed {
				logging.L_debug("stt: recorder read ended", "error", err)
			}
			// Whatever was buffered when the source dies is abandoned;
			// the pipeline treats source end as a hard stop.
			return
		}

		samples := frameToFloat32(frame)
		energy := rms(samples)
		now := time.Now()

		if energy >= m.config.EnergyThreshold {
			if !inSpeech {
				inSpeech = true
				logging.L_trace("stt: speech started", "rms", energy)
			}
			lastVoice = now
		}

		if !inSpeech {
			continue
		}

		buffer = append(buffer, samples...)
		if len(buffer) > maxUtteranceSamples {
			buffer = buffer[len(buffer)-maxUtteranceSamples:]
		}

		if now.Sub(lastVoice) >= silence {
			text, err := m.transcribe(buffer)
			if err != nil {
				logging.L_warn("stt: transcription failed", "error", err)
			} else if text != "" {
				m.emit(segment.Fragment{Text: text, IsFinal: true, Timestamp: now})
			}
			buffer = buffer[:0]
			inSpeech = false
			lastPartial = time.Time{}
			continue
		}

		if now.Sub(lastPartial) >= m.config.PartialInterval {
			lastPartial = now
			text, err := m.transcribe(buffer)
			if err != nil {
				logging.L_trace("stt: interim transcription failed", "error", err)
			} else if text != "" {
				m.emit(segment.Fragment{Text: text, IsFinal: false, Timestamp: now})
			}
		}
	}
}

func (m *MicSource) emit(f segment.Fragment) {
	select {
	case m.out <- f:
	default:
		// Drop interim results rather than stall the capture loop;
		// finals block until delivered.
		if f.IsFinal {
			m.out <- f
		}
	}
}

func (m *MicSource) transcribe(samples []float32) (string, error) {
	if st, ok := m.provider.(SampleTranscriber); ok {
		return st.TranscribeSamples(samples)
	}

	tmp, err := os.CreateTemp("", "voxctl-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := WriteWAV(tmpPath, samples); err != nil {
		return "", err
	}
	return m.provider.Transcribe(tmpPath)
}

// recorderCommand picks the first installed recorder and returns its
// argv for raw 16kHz mono s16le on stdout.
func recorderCommand(device string) ([]string, error) {
	if _, err := exec.LookPath("arecord"); err == nil {
		argv := []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw"}
		if device != "" {
			argv = append(argv, "-D", device)
		}
		return argv, nil
	}
	if _, err := exec.LookPath("sox"); err == nil {
		return []string{"sox", "-q", "-d", "-t", "raw", "-r", "16000", "-c", "1", "-b", "16", "-e", "signed-integer", "-"}, nil
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		input := device
		if input == "" {
			input = "default"
		}
		return []string{"ffmpeg", "-loglevel", "quiet", "-f", "alsa", "-i", input,
			"-ar", "16000", "-ac", "1", "-f", "s16le", "-"}, nil
	}
	return nil, fmt.Errorf("stt: no audio recorder found (install arecord, sox, or ffmpeg)")
}

func frameToFloat32(frame []byte) []float32 {
	samples := make([]float32, len(frame)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(frame[i*2:]))) / 32768.0
	}
	return samples
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
