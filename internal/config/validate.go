package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCourse(); err != nil {
		return err
	}
	if err := c.validateBasket(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CorpusDir) == "" {
		return fmt.Errorf("paths.corpus_dir is required. Set %s or edit the config file (create with 'phrasebook config init')", corpusDirEnv)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.CorpusDir {
		return errors.New("paths.output_dir must differ from paths.corpus_dir")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateCourse() error {
	if c.Course.KnownLanguage == "" {
		return errors.New("course.known_language must be set")
	}
	if c.Course.TargetLanguage == "" {
		return errors.New("course.target_language must be set")
	}
	if c.Course.KnownLanguage == c.Course.TargetLanguage {
		return fmt.Errorf("course.known_language and course.target_language must differ (both %q)", c.Course.KnownLanguage)
	}
	return nil
}

func (c *Config) validateBasket() error {
	if c.Basket.MediumThreshold < 2 {
		return errors.New("basket.medium_threshold must be at least 2")
	}
	if c.Basket.LongerThreshold <= c.Basket.MediumThreshold {
		return errors.New("basket.longer_threshold must be greater than basket.medium_threshold")
	}
	if c.Basket.LongestThreshold <= c.Basket.LongerThreshold {
		return errors.New("basket.longest_threshold must be greater than basket.longer_threshold")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.Cadence {
	case "natural", "slow":
		return nil
	default:
		return fmt.Errorf("identity.cadence must be natural or slow, got %q", c.Identity.Cadence)
	}
}

func (c *Config) validateBuild() error {
	if c.Build.Workers <= 0 {
		return errors.New("build.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
