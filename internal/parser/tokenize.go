package parser

import (
	"strings"
	"unicode"

	"github.com/tobsdb/tdblite/internal/types"
)

func isQuote(c byte) bool { return c == '\'' || c == '"' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// splitOutsideQuotes splits s on every sep that isn't inside a quoted run.
// A quoted run opens on ' or " and closes on the next occurrence of the same
// character; the other quote character is literal inside it.
func splitOutsideQuotes(s string, sep byte) ([]string, error) {
	parts := []string{}
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case isQuote(c):
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, types.NewParseError(types.MalformedGrammar, "Unterminated quoted value: %s", strings.TrimSpace(s[start:]))
	}
	return append(parts, s[start:]), nil
}

// indexKeyword finds the first whole-word, case-insensitive kw in s that
// isn't inside a quoted run. Returns -1 when there is none.
func indexKeyword(s, kw string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if isQuote(c) {
			quote = c
			continue
		}
		if i > 0 && !isSpace(s[i-1]) {
			continue
		}
		end := i + len(kw)
		if end > len(s) {
			break
		}
		if !strings.EqualFold(s[i:end], kw) {
			continue
		}
		if end < len(s) && !isSpace(s[end]) {
			continue
		}
		return i
	}
	return -1
}

// finishToken trims a raw token and strips one pair of matching quotes around it.
func finishToken(tok string) string {
	return types.StripQuotes(strings.TrimSpace(tok))
}

// SplitValues tokenizes the inside of a VALUES (...) list.
//
//	SplitValues(`'a, b', 5`) == []string{"a, b", "5"}
func SplitValues(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	parts, err := splitOutsideQuotes(s, ',')
	if err != nil {
		return nil, err
	}
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = finishToken(p)
	}
	return values, nil
}

// cutWord splits s at its first whitespace run.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

// cutKeyword splits the leading run of ASCII letters off s. ok is false when
// that run is empty or runs straight into anything but whitespace or '('.
func cutKeyword(s string) (kw, rest string, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= 'a' && s[end] <= 'z' || s[end] >= 'A' && s[end] <= 'Z') {
		end++
	}
	if end == 0 || (end < len(s) && !isSpace(s[end]) && s[end] != '(') {
		return "", s, false
	}
	return s[:end], strings.TrimSpace(s[end:]), true
}
