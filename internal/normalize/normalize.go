// Package normalize repairs common mis-transcriptions of the wake phrase so
// that wake detection can use plain substring matching.
package normalize

import (
	"cmp"
	"slices"
	"strings"
)

// DefaultWakePhrase is the phrase that arms command capture.
const DefaultWakePhrase = "hey chanti"

// maxPasses bounds the correction passes of one Normalize call.
const maxPasses = 4

// Correction rewrites every occurrence of From to To.
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Config is the explicit correction dictionary used by a Normalizer.
type Config struct {
	WakePhrase string `yaml:"wake_phrase"`
	// Phrases are applied in a left-to-right scan. When two entries match at
	// the same position the longer one wins.
	Phrases     []Correction `yaml:"phrases"`
	FirstWords  []string     `yaml:"first_words"`
	SecondWords []string     `yaml:"second_words"`
}

// DefaultConfig returns the built-in corrections for DefaultWakePhrase.
func DefaultConfig() Config {
	second := []string{
		"chandi", "shanty", "shanti", "chunti", "chante", "chantee",
		"chanthi", "chanty", "shunty", "chunty", "chuntu",
	}
	first := []string{"hmt", "hint", "hand", "hnd", "mt"}

	phrases := make([]Correction, 0, 2*len(second)+len(first)+1)
	for _, word := range second {
		phrases = append(phrases,
			Correction{From: "hey " + word, To: DefaultWakePhrase},
			Correction{From: "a " + word, To: DefaultWakePhrase},
		)
	}
	phrases = append(phrases, Correction{From: "a chanti", To: DefaultWakePhrase})
	for _, word := range first {
		phrases = append(phrases, Correction{From: word, To: "hey"})
	}

	return Config{
		WakePhrase:  DefaultWakePhrase,
		Phrases:     phrases,
		FirstWords:  first,
		SecondWords: second,
	}
}

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	replacer        *strings.Replacer
	firstWords      map[string]struct{}
	secondWords     map[string]struct{}
	canonicalFirst  string
	canonicalSecond string
}

// New compiles cfg. An empty wake phrase falls back to DefaultWakePhrase.
func New(cfg Config) *Normalizer {
	wake := strings.Fields(strings.ToLower(cfg.WakePhrase))
	if len(wake) == 0 {
		wake = strings.Fields(DefaultWakePhrase)
	}

	phrases := slices.Clone(cfg.Phrases)
	slices.SortStableFunc(phrases, func(a, b Correction) int {
		return cmp.Compare(len(b.From), len(a.From))
	})

	pairs := make([]string, 0, len(phrases)*2)
	for _, c := range phrases {
		if c.From == "" {
			continue
		}
		pairs = append(pairs, c.From, c.To)
	}

	n := &Normalizer{
		firstWords:     toSet(cfg.FirstWords),
		secondWords:    toSet(cfg.SecondWords),
		canonicalFirst: wake[0],
	}
	if len(pairs) > 0 {
		n.replacer = strings.NewReplacer(pairs...)
	}
	if len(wake) > 1 {
		n.canonicalSecond = wake[1]
	}
	return n
}

// Normalize collapses whitespace, then applies the phrase corrections and the
// positional first/second word repairs until the text stops changing.
func (n *Normalizer) Normalize(raw string) string {
	text := strings.Join(strings.Fields(raw), " ")
	for range maxPasses {
		next := n.pass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func (n *Normalizer) pass(text string) string {
	if text == "" {
		return ""
	}
	if n.replacer != nil {
		text = n.replacer.Replace(text)
	}

	words := strings.Fields(text)
	if len(words) >= 2 {
		if _, ok := n.firstWords[words[0]]; ok {
			words[0] = n.canonicalFirst
		}
		if _, ok := n.secondWords[words[1]]; ok && n.canonicalSecond != "" {
			words[1] = n.canonicalSecond
		}
	}
	return strings.Join(words, " ")
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
