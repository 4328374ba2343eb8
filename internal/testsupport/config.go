package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contentanalyzer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
	onPath  bool
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SecretsFile = filepath.Join(base, "secrets.toml")
	cfgVal.Paths.EnvFile = ""
	cfgVal.Analysis.Model = "test-model"
	cfgVal.Analysis.APIKeyName = config.DefaultAPIKeyName(cfgVal.Analysis.Provider)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSecret writes a secrets file entry for the test config.
func WithSecret(name, value string) ConfigOption {
	return func(b *configBuilder) {
		line := fmt.Sprintf("%s = %q\n", name, value)
		f, err := os.OpenFile(b.cfg.Paths.SecretsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			b.t.Fatalf("open secrets file: %v", err)
		}
		defer f.Close()
		if _, err := f.WriteString(line); err != nil {
			b.t.Fatalf("write secret: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and uvx are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		binDir := b.binDir()
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0\n")
		}
	}
}

// WithFakeMedia installs ffprobe and ffmpeg stand-ins on PATH. ffprobe reports
// a single audio stream lasting duration; ffmpeg copies a real canonical WAV
// of the same length to its last argument.
func WithFakeMedia(duration time.Duration) ConfigOption {
	return func(b *configBuilder) {
		binDir := b.binDir()
		fixture := filepath.Join(b.baseDir, "fixture.wav")
		WriteWAV(b.t, fixture, duration, 16000)

		WriteScript(b.t, filepath.Join(binDir, "ffprobe"), "cat <<'JSON'\n"+ProbeJSON(duration)+"\nJSON\n")
		WriteScript(b.t, filepath.Join(binDir, "ffmpeg"), fmt.Sprintf("for last; do :; done\ncp %q \"$last\"\n", fixture))
		b.cfg.Media.FFmpegBinary = "ffmpeg"
		b.cfg.Media.FFprobeBinary = "ffprobe"
	}
}

// ProbeJSON renders an ffprobe document for a container holding one video
// stream and one default audio stream of the given duration.
func ProbeJSON(duration time.Duration) string {
	return fmt.Sprintf(`{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},`+
		`{"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"48000","channels":2,"duration":"%.6f","disposition":{"default":1}}],`+
		`"format":{"duration":"%.6f","nb_streams":2}}`, duration.Seconds(), duration.Seconds())
}

func (b *configBuilder) binDir() string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	if !b.onPath {
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.onPath = true
	}
	return binDir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}
