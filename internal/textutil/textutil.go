package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// stopwords are function words excluded from content-token comparison.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "with": true, "by": true, "from": true,
	"and": true, "or": true, "as": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "which": true, "has": true,
	"have": true, "had": true, "will": true, "would": true, "there": true,
	"their": true, "they": true,
}

// NormalizeName canonicalizes a raw name for exact matching: lowercase,
// punctuation stripped, whitespace collapsed.
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripMarkup removes HTML markup from a passage, keeping visible text.
// Plain text passes through untouched.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String())
}

// ContentTokens returns the lowercased content words of a passage, with
// markup and stopwords removed.
func ContentTokens(s string) []string {
	normalized := NormalizeName(StripMarkup(s))
	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if !stopwords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// TokenSet returns the distinct content tokens of a passage.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range ContentTokens(s) {
		set[tok] = true
	}
	return set
}

// Jaccard computes token-set Jaccard similarity between two passages.
// Two empty token sets are treated as dissimilar, not identical.
func Jaccard(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// WordCount counts whitespace-separated words after normalization.
func WordCount(s string) int {
	return len(strings.Fields(NormalizeName(s)))
}
