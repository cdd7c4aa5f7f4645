// Package config loads, normalizes, and validates phrasebook configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PHRASEBOOK_CORPUS_DIR. The Config type centralizes every knob the build
// and CLI need: where the corpus lives, the course language pair, gate and
// basket tuning, chunking word lists and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical word lists, and clear validation errors.
package config
