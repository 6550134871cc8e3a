package skills

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Vocabulary is an ordered set of canonical, lower-case skill tokens.
type Vocabulary struct {
	tokens []string
}

// defaultTokens mixes single letters with multi-word phrases; short tokens
// such as "r" and "ai" match inside unrelated words and are kept as-is.
var defaultTokens = []string{
	"python", "sql", "aws", "java", "javascript", "react", "node", "docker",
	"kubernetes", "machine learning", "ai", "data analysis", "tableau", "power bi",
	"excel", "r", "scala", "hadoop", "spark", "tensorflow", "pytorch", "git",
	"agile", "devops", "cloud", "azure", "gcp", "mongodb", "postgresql",
}

// Default returns the built-in vocabulary.
func Default() Vocabulary {
	return NewVocabulary(defaultTokens...)
}

// NewVocabulary lower-cases, trims and NFC-composes tokens, dropping blanks
// and repeats. The first occurrence of a token fixes its position.
func NewVocabulary(tokens ...string) Vocabulary {
	seen := map[string]bool{}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = matchKey(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return Vocabulary{tokens: out}
}

// Tokens returns a copy of the tokens in vocabulary order.
func (v Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

func (v Vocabulary) Len() int { return len(v.tokens) }

func (v Vocabulary) Contains(token string) bool {
	for _, t := range v.tokens {
		if t == token {
			return true
		}
	}
	return false
}

// matchKey is the form both sides of a skill match are compared in. It only
// feeds matching; posting text is never rewritten with it.
func matchKey(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}
