// Package text provides text normalization and chunking for the narration
// pipeline. Both operations are pure: identical input always yields identical
// output, and neither can fail.
package text

import (
	"regexp"
	"strings"
)

// Regex patterns for normalization.
const (
	controlRegexPattern    = `[\x{00}-\x{08}\x{0B}\x{0C}\x{0E}-\x{1F}\x{7F}-\x{9F}]`
	digitLineRegexPattern  = `(?m)^[ \t]*\d+[ \t]*$`
	whitespaceRegexPattern = `\s+`
)

// Typographic characters mapped to their ASCII equivalents.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
	ellipsis     = "..."
)

// Normalizer strips control characters, maps typographic punctuation to
// ASCII, drops page-number lines left behind by PDF extraction, and collapses
// whitespace.
type Normalizer struct {
	controlPattern    *regexp.Regexp
	digitLinePattern  *regexp.Regexp
	whitespacePattern *regexp.Regexp
	punctReplacer     *strings.Replacer
}

// NewNormalizer creates a normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		controlPattern:    regexp.MustCompile(controlRegexPattern),
		digitLinePattern:  regexp.MustCompile(digitLineRegexPattern),
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctReplacer: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize cleans raw extracted text for chunking and synthesis. Empty input
// yields an empty string.
//
// The digit-only-line removal runs before whitespace collapsing because line
// structure is what identifies a page-number artifact; tab, newline, and
// carriage return are therefore preserved by the control-character pass and
// only collapsed at the end.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := n.controlPattern.ReplaceAllString(raw, "")

	cleaned = n.punctReplacer.Replace(cleaned)

	cleaned = n.digitLinePattern.ReplaceAllString(cleaned, "")

	cleaned = n.whitespacePattern.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}
