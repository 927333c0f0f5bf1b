package transcript

import (
	"strings"
	"unicode"
)

// Transcript is the ordered list of words produced by one recognition run.
type Transcript []string

// Token is one whitespace-delimited transcript word.
type Token struct {
	Text    string `json:"text"`
	Numeric bool   `json:"numeric"`
}

// LookupKey is the unit matched against the asset catalog.
type LookupKey string

// Resolved pairs a token with the keys derived from it, in probe order.
type Resolved struct {
	Token Token       `json:"token"`
	Keys  []LookupKey `json:"keys"`
}

// Split breaks recognized text into words on any whitespace.
func Split(text string) Transcript {
	return Transcript(strings.Fields(text))
}

// Resolve derives lookup keys for every word. Numeric words yield one key per
// digit; everything else yields the lowercased word.
func Resolve(t Transcript) []Resolved {
	out := make([]Resolved, 0, len(t))
	for _, word := range t {
		tok := Token{Text: word, Numeric: isNumeric(word)}
		out = append(out, Resolved{Token: tok, Keys: keysFor(tok)})
	}
	return out
}

// ResolveText is Split followed by Resolve.
func ResolveText(text string) []Resolved {
	return Resolve(Split(text))
}

// KeyCount returns the total number of keys across all tokens.
func KeyCount(rs []Resolved) int {
	n := 0
	for _, r := range rs {
		n += len(r.Keys)
	}
	return n
}

func keysFor(tok Token) []LookupKey {
	if !tok.Numeric {
		return []LookupKey{LookupKey(strings.ToLower(tok.Text))}
	}
	keys := make([]LookupKey, 0, len(tok.Text))
	for _, r := range tok.Text {
		keys = append(keys, LookupKey(string(r)))
	}
	return keys
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
