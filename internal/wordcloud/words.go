// Package wordcloud turns abstracts into word-frequency PNG images.
package wordcloud

import (
	"sort"
	"strings"
	"unicode"
)

// Word is a token and how often it occurred.
type Word struct {
	Text  string
	Count int
}

var punctuation = strings.NewReplacer("-", " ", ".", "", ",", "")

// Tokenize splits text into lower-case words. Hyphens separate words, periods
// and commas are dropped, stop words and single characters are removed.
func Tokenize(text string) []string {
	fields := strings.Fields(punctuation.Replace(text))

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if len([]rune(w)) < 2 || isNumber(w) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Count tokenizes every text and returns the n most frequent words, most
// frequent first and ties broken alphabetically.
func Count(texts []string, n int) []Word {
	freq := map[string]int{}
	for _, t := range texts {
		for _, tok := range Tokenize(t) {
			freq[tok]++
		}
	}

	words := make([]Word, 0, len(freq))
	for text, c := range freq {
		words = append(words, Word{Text: text, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Text < words[j].Text
	})

	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// FileName is the per-label output name; spaces become underscores.
func FileName(label string) string {
	return "wordcloud_" + strings.ReplaceAll(label, " ", "_") + ".png"
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
