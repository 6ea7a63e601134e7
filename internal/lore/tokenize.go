package lore

import (
	"strings"
	"unicode"
)

// stopWords holds the language-specific frozen lists of terms dropped before
// scoring. Kept intentionally small: these are the high-frequency function
// words that would otherwise dominate every query.
var stopWords = map[string]map[string]bool{
	"cn": setOf("的", "了", "和", "是", "在", "我", "你", "他", "她", "它", "这", "那", "吗", "呢", "吧"),
	"en": setOf("the", "a", "an", "is", "are", "was", "were", "to", "of", "in", "on", "at", "and", "or", "i", "you", "he", "she", "it", "this", "that"),
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// DetectLanguage reports "cn" if query contains any CJK code point, else
// "en". This is a heuristic, not a real language identifier.
func DetectLanguage(query string) string {
	for _, r := range query {
		if isCJK(r) {
			return "cn"
		}
	}
	return "en"
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// Tokenize segments query into search terms: Chinese text is split into
// overlapping bigrams (no dictionary segmenter is assumed available),
// Latin-script text splits on whitespace and punctuation. Stop-words and
// single-rune tokens are dropped, terms are deduplicated, and the result is
// capped to 5 entries in first-seen order.
func Tokenize(query string) []string {
	lang := DetectLanguage(query)
	var raw []string
	if lang == "cn" {
		raw = bigramSegment(query)
	} else {
		raw = splitLatin(query)
	}

	seen := make(map[string]bool, len(raw))
	var out []string
	stops := stopWords[lang]
	for _, tok := range raw {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len([]rune(tok)) <= 1 {
			continue
		}
		if stops[tok] {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func splitLatin(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// bigramSegment produces overlapping two-character windows over the CJK
// runs of s, which is a common fallback tokenizer when no dictionary-based
// segmenter is wired in: it can't recognise word boundaries, but it lets
// substring-style keyword matching still find multi-character terms.
func bigramSegment(s string) []string {
	runs := cjkRuns(s)
	var out []string
	for _, run := range runs {
		if len(run) == 1 {
			out = append(out, string(run))
			continue
		}
		for i := 0; i < len(run)-1; i++ {
			out = append(out, string(run[i:i+2]))
		}
	}
	return out
}

// cjkRuns splits s into maximal runs of CJK runes, discarding everything
// else (whitespace, punctuation, and any Latin substrings).
func cjkRuns(s string) [][]rune {
	var runs [][]rune
	var current []rune
	for _, r := range s {
		if isCJK(r) {
			current = append(current, r)
			continue
		}
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}
