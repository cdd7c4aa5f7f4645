package build

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"phrasebook/internal/basket"
	"phrasebook/internal/curriculum"
	"phrasebook/internal/fileutil"
)

// Output file names inside the output directory.
const (
	ManifestFile   = "manifest.json"
	RegistryFile   = "registry.json"
	BasketsFile    = "baskets.json"
	RejectionsFile = "rejections.json"
)

// OutputFiles lists every file a successful run publishes.
var OutputFiles = []string{ManifestFile, RegistryFile, BasketsFile, RejectionsFile}

type basketEntry struct {
	Unit         curriculum.UnitID   `json:"unit_id"`
	Distribution basket.Distribution `json:"distribution"`
	Phrases      []basket.Phrase     `json:"phrases"`
}

type rejectionEntry struct {
	Unit   curriculum.UnitID `json:"unit_id"`
	Report *basket.Report    `json:"report"`
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeBaskets(accepted []*basket.Basket) ([]byte, error) {
	entries := make([]basketEntry, 0, len(accepted))
	for _, b := range accepted {
		entries = append(entries, basketEntry{Unit: b.Unit, Distribution: b.Distribution, Phrases: b.Phrases})
	}
	return encodeJSON(entries)
}

func encodeRejections(rejected []*basket.Basket) ([]byte, error) {
	entries := make([]rejectionEntry, 0, len(rejected))
	for _, b := range rejected {
		entries = append(entries, rejectionEntry{Unit: b.Unit, Report: b.Report})
	}
	return encodeJSON(entries)
}

// render encodes every output document of a result.
func (r *Result) render() (map[string][]byte, error) {
	docs := make(map[string][]byte, len(OutputFiles))
	var err error
	if docs[ManifestFile], err = r.Manifest.Encode(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if docs[RegistryFile], err = r.Registry.Encode(); err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	if docs[BasketsFile], err = encodeBaskets(r.Accepted); err != nil {
		return nil, fmt.Errorf("encode baskets: %w", err)
	}
	if docs[RejectionsFile], err = encodeRejections(r.Rejected); err != nil {
		return nil, fmt.Errorf("encode rejections: %w", err)
	}
	return docs, nil
}

// stage writes docs into a fresh temporary directory under outputDir and
// returns its path.
func stage(outputDir string, docs map[string][]byte) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	dir, err := os.MkdirTemp(outputDir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	for _, name := range OutputFiles {
		if err := fileutil.WriteFileAtomic(filepath.Join(dir, name), docs[name], 0o644); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("stage %s: %w", name, err)
		}
	}
	return dir, nil
}
