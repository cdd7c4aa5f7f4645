package testsupport

import (
	"path/filepath"
	"testing"

	"phrasebook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CorpusDir = filepath.Join(base, "corpus")
	cfgVal.Paths.OutputDir = filepath.Join(base, "dist")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Build.Workers = 2
	cfgVal.Logging.RetentionDays = 0

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

// WithCorpus writes the given corpus files into the config's corpus directory.
func WithCorpus(files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		WriteCorpus(b.t, b.cfg.Paths.CorpusDir, files)
	}
}

// WithRequiredBaskets makes every unit without an accepted basket fail its seed.
func WithRequiredBaskets() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Basket.RequireBaskets = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
