// Package sanitize provides XSS-hardening helpers for untrusted request
// input. All functions are pure: they never error and never mutate their
// arguments.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=\s*(?:"[^"]*"|'[^']*')`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript:`)

	// Matches an ampersand that already begins a character reference, so
	// escaping stays idempotent across repeated passes.
	entityRe = regexp.MustCompile(`^&(?:[a-zA-Z][a-zA-Z0-9]{1,31}|#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6});`)
)

// Clean trims whitespace, removes NUL bytes, strips script blocks, inline
// event handlers and javascript: schemes, then HTML-escapes the remainder.
// Clean(Clean(s)) == Clean(s) for all s.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)

	// Strip to a fixpoint: removing a match can reassemble another
	// ("javascjavascript:ript:" becomes "javascript:" after one pass).
	for {
		prev := s
		s = scriptBlockRe.ReplaceAllString(s, "")
		s = eventHandlerRe.ReplaceAllString(s, "")
		s = jsSchemeRe.ReplaceAllString(s, "")
		if s == prev {
			break
		}
	}

	// Stripping may expose new edge whitespace.
	s = strings.TrimSpace(s)

	return escapeHTML(s)
}

// CleanValue applies Clean to strings and recurses into maps and slices,
// preserving structure. Non-string scalars pass through unchanged.
func CleanValue(v any) any {
	switch val := v.(type) {
	case string:
		return Clean(val)
	case map[string]any:
		return CleanMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CleanValue(item)
		}
		return out
	default:
		return v
	}
}

// CleanMap sanitizes every key and value of a decoded JSON object.
func CleanMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[Clean(k)] = CleanValue(v)
	}
	return out
}

// escapeHTML escapes the HTML-reserved characters the way
// htmlspecialchars(ENT_QUOTES) does, but leaves existing character
// references alone so a second pass is a no-op.
func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			if entityRe.MatchString(s[i:]) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
