package stt

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/zeozeozeo/gomplerate"

	logging "github.com/voxctl/voxctl/internal/logging"
)

const (
	targetSampleRate = 16000 // Whisper.cpp requires 16kHz
	maxFrameSize     = 5760  // Max Opus frame size (120ms at 48kHz)
)

// ConvertToFloat32 converts an audio file to 16kHz mono float32 samples,
// the format whisper.cpp requires. The container is sniffed by content,
// not extension. OGG/Opus has a pure Go path; everything else goes
// through ffmpeg.
func ConvertToFloat32(filePath string) ([]float32, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("sniff audio type: %w", err)
	}

	if mtype.Is("audio/ogg") || mtype.Is("application/ogg") {
		// ffmpeg first when available; the pure Go decoder has limited
		// codec support and panics on some files
		if ffmpegAvailable() {
			logging.L_debug("stt: using ffmpeg for OGG/Opus", "file", filePath)
			return convertWithFFmpeg(filePath)
		}
		samples, err := convertOggOpusPureGoSafe(filePath)
		if err != nil {
			return nil, fmt.Errorf("OGG decoding failed (%v) - install ffmpeg for reliable audio conversion", err)
		}
		return samples, nil
	}

	if ffmpegAvailable() {
		logging.L_debug("stt: using ffmpeg", "file", filePath, "type", mtype.String())
		return convertWithFFmpeg(filePath)
	}

	return nil, fmt.Errorf("unsupported audio format %s (install ffmpeg for non-OGG files)", mtype.String())
}

// convertOggOpusPureGoSafe wraps convertOggOpusPureGo with panic recovery.
// The pion/opus library has bugs that can cause panics on some files.
func convertOggOpusPureGoSafe(filePath string) (samples []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.L_warn("stt: pure Go decoder panicked, recovered", "panic", r)
			err = fmt.Errorf("decoder panic: %v", r)
			samples = nil
		}
	}()
	return convertOggOpusPureGo(filePath)
}

// convertOggOpusPureGo decodes OGG/Opus to 16kHz mono float32 using pure Go.
func convertOggOpusPureGo(filePath string) ([]float32, error) {
	logging.L_debug("stt: decoding OGG/Opus", "file", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	ogg, header, err := oggreader.NewWith(file)
	if err != nil {
		return nil, fmt.Errorf("parse OGG container: %w", err)
	}

	sampleRate := int(header.SampleRate)
	channels := int(header.Channels)
	logging.L_debug("stt: OGG header", "sampleRate", sampleRate, "channels", channels)

	decoder := opus.NewDecoder()

	outBuf := make([]byte, maxFrameSize*channels*2) // *2 for 16-bit samples

	var allSamples []int16
	for {
		segments, _, err := ogg.ParseNextPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse OGG page: %w", err)
		}

		for _, seg := range segments {
			if len(seg) == 0 {
				continue
			}

			_, isStereo, err := decoder.Decode(seg, outBuf)
			if err != nil {
				logging.L_trace("stt: skipping packet", "error", err, "len", len(seg))
				continue
			}

			actualChannels := 1
			if isStereo {
				actualChannels = 2
			}

			samples := bytesToInt16(outBuf, actualChannels)
			allSamples = append(allSamples, samples...)
		}
	}

	if len(allSamples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filePath)
	}

	logging.L_debug("stt: decoded samples", "count", len(allSamples), "sampleRate", sampleRate)

	if channels > 1 {
		allSamples = toMono(allSamples, channels)
	}

	if sampleRate != targetSampleRate {
		logging.L_debug("stt: resampling", "from", sampleRate, "to", targetSampleRate)
		allSamples = resampleInt16(allSamples, sampleRate, targetSampleRate)
	}

	result := int16ToFloat32(allSamples)

	logging.L_debug("stt: conversion complete", "samples", len(result), "duration_sec", float64(len(result))/float64(targetSampleRate))

	return result, nil
}

// bytesToInt16 converts a byte buffer to int16 samples (little-endian).
func bytesToInt16(buf []byte, channels int) []int16 {
	numSamples := len(buf) / 2
	samples := make([]int16, 0, numSamples)

	for i := 0; i < len(buf)-1; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(buf[i : i+2])) // #nosec G115 - safe: uint16 to int16 for audio samples
		// Stop at trailing zeros (unused buffer space)
		if sample == 0 && i > 0 {
			allZero := true
			for j := i; j < len(buf)-1; j += 2 {
				if binary.LittleEndian.Uint16(buf[j:j+2]) != 0 {
					allZero = false
					break
				}
			}
			if allZero {
				break
			}
		}
		samples = append(samples, sample)
	}

	return samples
}

// toMono converts multi-channel audio to mono by averaging channels.
func toMono(samples []int16, channels int) []int16 {
	if channels == 1 {
		return samples
	}

	mono := make([]int16, len(samples)/channels)
	for i := 0; i < len(mono); i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels)) // #nosec G115 - safe: channels is small (1-8)
	}
	return mono
}

// resampleInt16 converts audio from one sample rate to another using gomplerate.
func resampleInt16(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate {
		return samples
	}

	resampler, err := gomplerate.NewResampler(1, fromRate, toRate)
	if err != nil {
		logging.L_warn("stt: resampler creation failed, skipping resample", "error", err)
		return samples
	}

	return resampler.ResampleInt16(samples)
}

// int16ToFloat32 converts int16 samples to float32 normalized to [-1, 1].
func int16ToFloat32(samples []int16) []float32 {
	result := make([]float32, len(samples))
	for i, s := range samples {
		result[i] = float32(s) / 32768.0
	}
	return result
}

// ffmpegAvailable checks if ffmpeg is installed.
func ffmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// convertWithFFmpeg uses ffmpeg to convert audio to 16kHz mono PCM.
func convertWithFFmpeg(inputPath string) ([]float32, error) {
	tmpFile, err := os.CreateTemp("", "stt-*.raw")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	// #nosec G204 - inputPath is from internal file operations, not user input
	cmd := exec.Command("ffmpeg",
		"-i", inputPath,
		"-ar", fmt.Sprintf("%d", targetSampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-y",
		tmpPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		logging.L_debug("stt: ffmpeg output", "output", string(output))
		return nil, fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	rawData, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read converted audio: %w", err)
	}

	samples := make([]int16, len(rawData)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(rawData[i*2]) | int16(rawData[i*2+1])<<8
	}

	return int16ToFloat32(samples), nil
}

// WriteWAV writes 16kHz mono float32 samples to path as 16-bit PCM WAV.
// Used when a file-only provider must transcribe a captured buffer.
func WriteWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	dataLen := len(samples) * 2
	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], targetSampleRate)
	binary.LittleEndian.PutUint32(header[28:32], targetSampleRate*2)
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	pcm := make([]byte, dataLen)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*32767)))
	}
	if _, err := f.Write(pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}

	return nil
}
