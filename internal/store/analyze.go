package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// analyze splits s into search tokens: NFC normalized, case folded, split
// on every rune that is not a letter or digit.
func analyze(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fold normalizes and case folds s without tokenizing it.
func fold(s string) string {
	// A Caser carries state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// containsPhrase reports whether phrase occurs as a contiguous run in
// tokens. With prefix set the last phrase token only needs to prefix the
// corresponding token.
func containsPhrase(tokens, phrase []string, prefix bool) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		if phraseAt(tokens[i:], phrase, prefix) {
			return true
		}
	}
	return false
}

func phraseAt(tokens, phrase []string, prefix bool) bool {
	last := len(phrase) - 1
	for j, p := range phrase {
		if prefix && j == last {
			if !strings.HasPrefix(tokens[j], p) {
				return false
			}
			continue
		}
		if tokens[j] != p {
			return false
		}
	}
	return true
}

// wildcardMatch matches s against a pattern where '*' matches any run of
// runes and '?' exactly one. A backslash escapes the next rune.
func wildcardMatch(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)

	var pi, si int
	star, mark := -1, 0
	for si < len(r) {
		switch {
		case pi < len(p) && p[pi] == '\\' && pi+1 < len(p) && p[pi+1] == r[si]:
			pi += 2
			si++
		case pi < len(p) && p[pi] == '?':
			pi++
			si++
		case pi < len(p) && p[pi] == '*':
			star, mark = pi, si
			pi++
		case pi < len(p) && p[pi] != '\\' && p[pi] == r[si]:
			pi++
			si++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

func hasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}
