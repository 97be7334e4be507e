package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/narrationlab/bookalign/internal/errs"
)

// FFmpegCodec invokes the ffmpeg/ffprobe binaries named by the FFMPEG_EXE /
// FFPROBE_EXE environment variables (spec.md §6), defaulting to "ffmpeg"
// and "ffprobe" on PATH.
type FFmpegCodec struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegCodec resolves binary paths from the environment, falling back
// to PATH lookups, matching the teacher's CheckFFmpegAvailable convention.
func NewFFmpegCodec() *FFmpegCodec {
	ffmpeg := os.Getenv("FFMPEG_EXE")
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := os.Getenv("FFPROBE_EXE")
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &FFmpegCodec{FFmpegPath: ffmpeg, FFprobePath: ffprobe}
}

// CheckAvailable verifies both binaries resolve on PATH, when not given as
// absolute paths.
func (c *FFmpegCodec) CheckAvailable() error {
	if _, err := exec.LookPath(c.FFmpegPath); err != nil {
		return errs.New(errs.ToolUnavailable, "", "audio", "ffmpeg not found in PATH", err)
	}
	if _, err := exec.LookPath(c.FFprobePath); err != nil {
		return errs.New(errs.ToolUnavailable, "", "audio", "ffprobe not found in PATH", err)
	}
	return nil
}

// Decode renders path to 32-bit float PCM at its native sample rate and
// channel count discovered via ffprobe, streaming ffmpeg's stdout. Samples
// of multi-channel input stay interleaved; nothing is downmixed.
func (c *FFmpegCodec) Decode(path string) (Buffer, error) {
	rate, channels, err := c.probeStreamInfo(path)
	if err != nil {
		return Buffer{}, err
	}

	cmd := exec.CommandContext(context.Background(), c.FFmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(rate),
		"pipe:1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Buffer{}, errs.New(errs.ToolExitNonZero, "", "audio", "ffmpeg decode failed", fmt.Errorf("%w: %s", err, errs.TailLines(stderr.String())))
	}

	samples := make([]float32, len(out)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(out[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}

	layout := Mono
	if channels > 1 {
		layout = Stereo
	}
	return Buffer{Samples: samples, SampleRate: rate, ChannelLayout: layout}, nil
}

// Resample re-invokes ffmpeg on an in-memory PCM stream to change the
// sample rate, round-tripping through WAV containers on stdin/stdout so
// ffmpeg knows the source format without a temp file.
func (c *FFmpegCodec) Resample(buf Buffer, targetRate int) (Buffer, error) {
	wavIn, err := encodeFloatWAV(buf)
	if err != nil {
		return Buffer{}, err
	}

	cmd := exec.CommandContext(context.Background(), c.FFmpegPath,
		"-v", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(targetRate),
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(wavIn)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Buffer{}, errs.New(errs.ToolExitNonZero, "", "audio", "ffmpeg resample failed", fmt.Errorf("%w: %s", err, errs.TailLines(stderr.String())))
	}

	samples := make([]float32, len(out)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(out[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return Buffer{Samples: samples, SampleRate: targetRate, ChannelLayout: buf.ChannelLayout}, nil
}

// ApplyFilterGraph pipes buf through an arbitrary ffmpeg -af filter
// expression, preserving sample rate and layout.
func (c *FFmpegCodec) ApplyFilterGraph(buf Buffer, spec FilterGraphSpec) (Buffer, error) {
	if strings.TrimSpace(spec.Expression) == "" {
		return buf, nil
	}
	wavIn, err := encodeFloatWAV(buf)
	if err != nil {
		return Buffer{}, err
	}

	cmd := exec.CommandContext(context.Background(), c.FFmpegPath,
		"-v", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-af", spec.Expression,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(wavIn)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Buffer{}, errs.New(errs.ToolExitNonZero, "", "audio", "ffmpeg filter graph failed", fmt.Errorf("%w: %s", err, errs.TailLines(stderr.String())))
	}

	samples := make([]float32, len(out)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(out[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return Buffer{Samples: samples, SampleRate: buf.SampleRate, ChannelLayout: buf.ChannelLayout}, nil
}

// EncodeWAV writes buf to path as integer PCM at opts.SampleRate and
// opts.BitDepth (24 or 32; any other depth gives 16-bit), resampling/
// re-encoding through ffmpeg. A zero SampleRate selects the defaults
// (spec.md §6 canonical mastering format).
func (c *FFmpegCodec) EncodeWAV(path string, buf Buffer, opts EncodeOptions) error {
	if opts.SampleRate == 0 {
		opts = DefaultEncodeOptions()
	}
	wavIn, err := encodeFloatWAV(buf)
	if err != nil {
		return err
	}

	codec := "pcm_s16le"
	if opts.BitDepth == 24 {
		codec = "pcm_s24le"
	} else if opts.BitDepth == 32 {
		codec = "pcm_s32le"
	}

	cmd := exec.CommandContext(context.Background(), c.FFmpegPath,
		"-v", "error",
		"-f", "wav",
		"-i", "pipe:0",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-acodec", codec,
		"-y", path,
	)
	cmd.Stdin = bytes.NewReader(wavIn)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.New(errs.ToolExitNonZero, "", "audio", "ffmpeg encode failed", fmt.Errorf("%w: %s", err, errs.TailLines(stderr.String())))
	}
	return nil
}

// Duration uses ffprobe to report an audio file's duration in seconds.
func (c *FFmpegCodec) Duration(path string) (float64, error) {
	cmd := exec.CommandContext(context.Background(), c.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, errs.New(errs.ToolExitNonZero, "", "audio", "ffprobe duration failed", err)
	}
	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &seconds); err != nil {
		return 0, errs.New(errs.InputInvalid, "", "audio", "ffprobe returned unparseable duration", err)
	}
	return seconds, nil
}

func (c *FFmpegCodec) probeStreamInfo(path string) (sampleRate, channels int, err error) {
	cmd := exec.CommandContext(context.Background(), c.FFprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	out, runErr := cmd.Output()
	if runErr != nil {
		return 0, 0, errs.New(errs.ToolExitNonZero, "", "audio", "ffprobe stream info failed", runErr)
	}
	sampleRate, channels = 44100, 1
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "sample_rate="); ok {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				sampleRate = n
			}
		}
		if v, ok := strings.CutPrefix(line, "channels="); ok {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				channels = n
			}
		}
	}
	return sampleRate, channels, nil
}

var _ Codec = (*FFmpegCodec)(nil)
