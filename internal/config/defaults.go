package config

import "runtime"

const (
	defaultConfigPath       = "~/.config/phrasebook/config.toml"
	projectConfigFile       = "phrasebook.toml"
	defaultCorpusDir        = "corpus"
	defaultOutputDir        = "dist"
	defaultStateDir         = "~/.local/share/phrasebook"
	defaultLogDir           = "~/.local/share/phrasebook/logs"
	defaultKnownLanguage    = "en"
	defaultTargetLanguage   = "es"
	defaultCadence          = "natural"
	defaultMediumThreshold  = 3
	defaultLongerThreshold  = 4
	defaultLongestThreshold = 6
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	corpusDirEnv = "PHRASEBOOK_CORPUS_DIR"
	outputDirEnv = "PHRASEBOOK_OUTPUT_DIR"
)

// Spanish word lists used when [chunking] leaves a list empty.
var (
	defaultNegations      = []string{"no", "nunca", "jamás", "tampoco", "nada", "nadie"}
	defaultAuxiliaries    = []string{"estoy", "estás", "está", "estamos", "están", "estaba", "estaban", "he", "has", "ha", "hemos", "han", "sigo", "sigue"}
	defaultGerundSuffixes = []string{"ando", "iendo", "yendo"}
	defaultArticles       = []string{"el", "la", "los", "las", "un", "una", "unos", "unas", "del", "al"}
	defaultClitics        = []string{"me", "te", "se", "lo", "le", "nos", "os", "les"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Course: Course{
			KnownLanguage:  defaultKnownLanguage,
			TargetLanguage: defaultTargetLanguage,
		},
		Basket: Basket{
			AllowSingleCharacters: true,
			MediumThreshold:       defaultMediumThreshold,
			LongerThreshold:       defaultLongerThreshold,
			LongestThreshold:      defaultLongestThreshold,
		},
		Identity: Identity{
			Cadence: defaultCadence,
		},
		Chunking: Chunking{
			Negations:      append([]string(nil), defaultNegations...),
			Auxiliaries:    append([]string(nil), defaultAuxiliaries...),
			GerundSuffixes: append([]string(nil), defaultGerundSuffixes...),
			Articles:       append([]string(nil), defaultArticles...),
			Clitics:        append([]string(nil), defaultClitics...),
		},
		Build: Build{
			Workers: runtime.NumCPU(),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
