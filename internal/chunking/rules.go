package chunking

import (
	"strings"

	"phrasebook/internal/config"
	"phrasebook/internal/lexis"
)

// Rule names recorded on chunks.
const (
	RuleNegation    = "negation"
	RuleAuxGerund   = "auxiliary_gerund"
	RuleArticleNoun = "article_noun"
	RuleCliticVerb  = "clitic_verb"
	RuleSingle      = "single"
)

// Rule reports how many words starting at position i it joins, or 0 when it
// does not apply. keys holds the folded form of every word.
type Rule struct {
	Name  string
	Match func(keys []string, i int) int
}

// Lists are the closed word classes the rules consult.
type Lists struct {
	Negations      []string
	Auxiliaries    []string
	GerundSuffixes []string
	Articles       []string
	Clitics        []string
}

// ListsFromConfig copies the chunking section of the configuration.
func ListsFromConfig(cfg config.Chunking) Lists {
	return Lists{
		Negations:      cfg.Negations,
		Auxiliaries:    cfg.Auxiliaries,
		GerundSuffixes: cfg.GerundSuffixes,
		Articles:       cfg.Articles,
		Clitics:        cfg.Clitics,
	}
}

type wordSet map[string]struct{}

func newWordSet(words []string) wordSet {
	set := make(wordSet, len(words))
	for _, w := range words {
		if key := lexis.Key(w); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s wordSet) has(key string) bool {
	_, ok := s[key]
	return ok
}

type classes struct {
	negations   wordSet
	auxiliaries wordSet
	articles    wordSet
	clitics     wordSet
	suffixes    []string
}

func newClasses(lists Lists) classes {
	c := classes{
		negations:   newWordSet(lists.Negations),
		auxiliaries: newWordSet(lists.Auxiliaries),
		articles:    newWordSet(lists.Articles),
		clitics:     newWordSet(lists.Clitics),
	}
	for _, suffix := range lists.GerundSuffixes {
		if key := lexis.Key(suffix); key != "" {
			c.suffixes = append(c.suffixes, key)
		}
	}
	return c
}

// function reports whether the word belongs to a closed class and so cannot
// be the content word a rule attaches to.
func (c classes) function(key string) bool {
	return c.negations.has(key) || c.articles.has(key) || c.clitics.has(key) || c.auxiliaries.has(key)
}

func (c classes) gerund(key string) bool {
	for _, suffix := range c.suffixes {
		if len(key) > len(suffix) && strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// negationRule joins a negation with any clitics that follow it and the verb
// after them: "no lo quiero".
func (c classes) negationRule(keys []string, i int) int {
	if !c.negations.has(keys[i]) {
		return 0
	}
	j := i + 1
	for j < len(keys) && c.clitics.has(keys[j]) {
		j++
	}
	if j >= len(keys) || c.negations.has(keys[j]) {
		return 0
	}
	return j - i + 1
}

// auxGerundRule joins an auxiliary with the gerund that follows it.
func (c classes) auxGerundRule(keys []string, i int) int {
	if i+1 >= len(keys) || !c.auxiliaries.has(keys[i]) || !c.gerund(keys[i+1]) {
		return 0
	}
	return 2
}

// articleNounRule joins an article with the content word that follows it.
func (c classes) articleNounRule(keys []string, i int) int {
	if i+1 >= len(keys) || !c.articles.has(keys[i]) || c.function(keys[i+1]) {
		return 0
	}
	return 2
}

// cliticVerbRule joins a preverbal clitic with the verb after it.
func (c classes) cliticVerbRule(keys []string, i int) int {
	if i+1 >= len(keys) || !c.clitics.has(keys[i]) || c.function(keys[i+1]) {
		return 0
	}
	return 2
}

func (c classes) rules() []Rule {
	return []Rule{
		{Name: RuleNegation, Match: c.negationRule},
		{Name: RuleAuxGerund, Match: c.auxGerundRule},
		{Name: RuleArticleNoun, Match: c.articleNounRule},
		{Name: RuleCliticVerb, Match: c.cliticVerbRule},
	}
}
