package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/media"
	"contentanalyzer/internal/media/audio"
	"contentanalyzer/internal/media/ffprobe"
	"contentanalyzer/internal/services"
)

// Canonical waveform parameters.
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16
)

const (
	stageName = "extracting"
	// toleranceDivisor widens the absolute tolerance to 2% for long recordings.
	toleranceDivisor = 50
)

// Config captures the decoder settings.
type Config struct {
	FFmpegBinary   string
	FFprobeBinary  string
	VerifyDuration bool
	// DurationTolerance is the minimum allowed drift between source and output.
	DurationTolerance time.Duration
	// Language biases audio stream selection in multi-track containers.
	Language string
}

// Info describes the canonical waveform written by Normalize.
type Info struct {
	Kind           media.Kind
	SampleRate     int
	Channels       int
	BitDepth       int
	Duration       time.Duration
	SourceDuration time.Duration
	StreamIndex    int
	StreamLabel    string
}

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Normalizer converts uploads to the canonical waveform.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
	run    CommandRunner
	probe  Prober
}

// New constructs a Normalizer.
func New(cfg Config, logger *slog.Logger) *Normalizer {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	return &Normalizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "normalize"),
		run:    runCommand,
		probe:  ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		n.run = runner
	}
}

// WithProber sets a custom ffprobe implementation (for testing).
func (n *Normalizer) WithProber(prober Prober) {
	if prober != nil {
		n.probe = prober
	}
}

// Normalize decodes src and writes its primary audio stream to dest as a
// 16 kHz mono 16-bit PCM WAV. Unsupported extensions fail before anything is
// written. src is never modified or removed.
func (n *Normalizer) Normalize(ctx context.Context, src, dest string) (Info, error) {
	kind, ok := media.ClassifyPath(src)
	if !ok {
		return Info{}, services.Wrap(services.ErrUnsupportedFormat, "", "", fmt.Sprintf("extension %q", filepath.Ext(src)), nil)
	}
	logger := logging.WithContext(ctx, n.logger)

	probe, err := n.probe(ctx, n.cfg.FFprobeBinary, src)
	if err != nil {
		return Info{}, services.Wrap(services.ErrDecode, stageName, "probe", "", err)
	}
	selection := audio.Select(probe.Streams, n.cfg.Language)
	if !selection.Found() {
		return Info{}, services.Wrap(services.ErrDecode, stageName, "select stream", "no audio stream found", nil)
	}
	logger.Debug("audio stream selected",
		logging.Int("stream_index", selection.PrimaryIndex),
		logging.String("stream", selection.PrimaryLabel()),
		logging.Int("source_sample_rate", selection.Primary.SampleRateHz()),
		logging.Int("candidates", selection.Candidates),
	)

	if err := n.run(ctx, n.cfg.FFmpegBinary, BuildArgs(src, selection.PrimaryIndex, dest)...); err != nil {
		return Info{}, services.Wrap(services.ErrDecode, stageName, "ffmpeg", "", err)
	}

	info, err := ReadInfo(dest)
	if err != nil {
		return Info{}, services.Wrap(services.ErrDecode, stageName, "read output", "", err)
	}
	info.Kind = kind
	info.StreamIndex = selection.PrimaryIndex
	info.StreamLabel = selection.PrimaryLabel()
	info.SourceDuration = seconds(probe.StreamDurationSeconds(selection.PrimaryIndex))

	if err := n.verify(info); err != nil {
		return Info{}, services.Wrap(services.ErrDecode, stageName, "verify output", "", err)
	}

	logger.Info("audio normalized",
		logging.String("kind", string(kind)),
		logging.Duration("duration", info.Duration),
		logging.Duration("source_duration", info.SourceDuration),
	)
	return info, nil
}

func (n *Normalizer) verify(info Info) error {
	if info.SampleRate != SampleRate || info.Channels != Channels || info.BitDepth != BitDepth {
		return fmt.Errorf("unexpected waveform %d Hz, %d ch, %d bit", info.SampleRate, info.Channels, info.BitDepth)
	}
	if !n.cfg.VerifyDuration || info.SourceDuration <= 0 {
		return nil
	}
	tolerance := Tolerance(info.SourceDuration, n.cfg.DurationTolerance)
	drift := info.Duration - info.SourceDuration
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		return fmt.Errorf("duration mismatch: output %s, source %s (tolerance %s)", info.Duration, info.SourceDuration, tolerance)
	}
	return nil
}

// Tolerance returns the allowed drift for a source of the given length: the
// larger of the absolute minimum and two percent of the source.
func Tolerance(source, minimum time.Duration) time.Duration {
	return max(minimum, source/toleranceDivisor)
}

// BuildArgs returns the ffmpeg arguments that extract one audio stream as the
// canonical waveform.
func BuildArgs(src string, streamIndex int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ReadInfo decodes the header of a WAV file and measures its PCM payload.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, errors.New("not a valid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("locate PCM data: %w", err)
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	bytesPerSecond := info.SampleRate * info.Channels * info.BitDepth / 8
	if bytesPerSecond > 0 {
		info.Duration = seconds(float64(dec.PCMSize) / float64(bytesPerSecond))
	}
	return info, nil
}

func seconds(value float64) time.Duration {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return nil
}
