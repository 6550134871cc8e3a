package skills

import "strings"

// Extractor attaches skills to a description.
type Extractor interface {
	Extract(description string) []string
}

// VocabularyExtractor is the keyword Extractor backed by a fixed Vocabulary.
type VocabularyExtractor struct {
	Vocab Vocabulary
}

func (e VocabularyExtractor) Extract(description string) []string {
	return Extract(description, e.Vocab)
}

// Extract reports every vocabulary token that occurs as a substring of the
// lower-cased description, in vocabulary order. Matching is plain substring
// containment with no word boundaries; composed and decomposed accents
// compare equal.
func Extract(description string, v Vocabulary) []string {
	out := []string{}
	if strings.TrimSpace(description) == "" {
		return out
	}
	text := matchKey(description)
	for _, tok := range v.tokens {
		if strings.Contains(text, tok) {
			out = append(out, tok)
		}
	}
	return out
}
