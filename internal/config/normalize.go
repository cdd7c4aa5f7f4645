package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCourse()
	c.normalizeGate()
	c.normalizeBasket()
	c.normalizeChunking()
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CorpusDir) == "" {
		c.Paths.CorpusDir = envOr(corpusDirEnv, defaultCorpusDir)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = envOr(outputDirEnv, defaultOutputDir)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.CorpusDir, err = expandPath(strings.TrimSpace(c.Paths.CorpusDir)); err != nil {
		return fmt.Errorf("paths.corpus_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (c *Config) normalizeCourse() {
	c.Course.Name = strings.TrimSpace(c.Course.Name)
	c.Course.KnownLanguage = strings.ToLower(strings.TrimSpace(c.Course.KnownLanguage))
	c.Course.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Course.TargetLanguage))
}

func (c *Config) normalizeGate() {
	c.Gate.Particles = normalizeWords(c.Gate.Particles, nil)
}

func (c *Config) normalizeBasket() {
	if c.Basket.MediumThreshold <= 0 {
		c.Basket.MediumThreshold = defaultMediumThreshold
	}
	if c.Basket.LongerThreshold <= 0 {
		c.Basket.LongerThreshold = defaultLongerThreshold
	}
	if c.Basket.LongestThreshold <= 0 {
		c.Basket.LongestThreshold = defaultLongestThreshold
	}
	c.Identity.Cadence = strings.ToLower(strings.TrimSpace(c.Identity.Cadence))
	if c.Identity.Cadence == "" {
		c.Identity.Cadence = defaultCadence
	}
}

func (c *Config) normalizeChunking() {
	c.Chunking.Negations = normalizeWords(c.Chunking.Negations, defaultNegations)
	c.Chunking.Auxiliaries = normalizeWords(c.Chunking.Auxiliaries, defaultAuxiliaries)
	c.Chunking.GerundSuffixes = normalizeWords(c.Chunking.GerundSuffixes, defaultGerundSuffixes)
	c.Chunking.Articles = normalizeWords(c.Chunking.Articles, defaultArticles)
	c.Chunking.Clitics = normalizeWords(c.Chunking.Clitics, defaultClitics)
}

func (c *Config) normalizeBuild() {
	if c.Build.Workers <= 0 {
		c.Build.Workers = runtime.NumCPU()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// normalizeWords folds, composes and deduplicates a word list, keeping first
// occurrence order. An empty result falls back to the given defaults.
func normalizeWords(words, fallback []string) []string {
	fold := cases.Fold()
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		normalized := fold.String(norm.NFC.String(strings.TrimSpace(word)))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 && fallback != nil {
		return append([]string(nil), fallback...)
	}
	return out
}
