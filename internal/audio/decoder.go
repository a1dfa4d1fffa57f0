// Package audio wraps the external decoder collaborator. Container and
// codec support is entirely FFmpeg's concern; this package only turns a
// file into the mono float64 buffer the pipeline consumes.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFmpegDecoder decodes audio files through the ffmpeg binary.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegDecoder locates ffmpeg and ffprobe in PATH.
func NewFFmpegDecoder() (*FFmpegDecoder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &FFmpegDecoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// DecodeMono decodes an audio file to mono float64 samples at the given
// rate, downmixing multi-channel sources. The returned samples are
// normalized to [-1, 1] and always finite.
func (d *FFmpegDecoder) DecodeMono(ctx context.Context, path string, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	args := []string{
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-",
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Ensure the process is killed and reaped on any exit path
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	var buf bytes.Buffer
	buf.Grow(1024 * 1024)
	if _, err := io.Copy(&buf, stdout); err != nil {
		return nil, fmt.Errorf("failed to read decoded audio: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}

	samples := SamplesFromPCM(buf.Bytes())
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio decoded from %s", path)
	}
	return samples, nil
}

// SamplesFromPCM converts signed 16-bit little-endian mono PCM to
// normalized float64 samples. A trailing odd byte is ignored.
func SamplesFromPCM(data []byte) []float64 {
	numSamples := len(data) / 2
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample := int16(data[2*i]) | int16(data[2*i+1])<<8
		samples[i] = float64(sample) / 32768.0
	}
	return samples
}

// Duration returns the duration of an audio file via ffprobe.
func (d *FFmpegDecoder) Duration(path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.Command(d.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	durationSec, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(durationSec * float64(time.Second)), nil
}
