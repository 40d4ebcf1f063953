package assistant

import (
	"regexp"
	"strings"
)

// Patterns that pull a likely person name out of a free-form email query,
// e.g. "what did John write", "emails from Bill Smith".
var personPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:what|who)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)*)\s+(?:wrote|emailed|sent)`),
	regexp.MustCompile(`(?i)(?:from|by)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)*)`),
	regexp.MustCompile(`(?i)([a-zA-Z]+(?:\s+[a-zA-Z]+)*)\s+(?:wrote|emailed|sent)`),
	regexp.MustCompile(`(?i)([a-zA-Z]+@[a-zA-Z0-9.-]+)`),
}

var wordPattern = regexp.MustCompile(`\b([a-zA-Z]{4,})\b`)

// Query words that look like names to the patterns above but never are.
var nameStopWords = map[string]bool{
	"what": true, "who": true, "from": true, "wrote": true, "emailed": true,
	"sent": true, "today": true, "yesterday": true, "week": true,
	"month": true, "year": true, "this": true, "last": true, "past": true,
}

// extractSearchNames returns deduplicated candidate names found in the
// query, each at least three characters long.
func extractSearchNames(query string) []string {
	var candidates []string
	for _, pattern := range personPatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			candidates = append(candidates, strings.TrimSpace(m[1]))
		}
	}
	for _, m := range wordPattern.FindAllStringSubmatch(query, -1) {
		candidates = append(candidates, m[1])
	}

	seen := make(map[string]bool)
	var names []string
	for _, name := range candidates {
		if name == "" || len(name) < 3 || nameStopWords[strings.ToLower(name)] {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

var (
	angleAddrPattern   = regexp.MustCompile(`<(.+?)>`)
	bareAddrPattern    = regexp.MustCompile(`(\S+@\S+)`)
	displayNamePattern = regexp.MustCompile(`^([^<]+)\s*<`)
)

// extractEmailAddress pulls the bare address out of a header-style string
// like `"Jane Doe" <jane@example.com>`.
func extractEmailAddress(emailString string) string {
	if emailString == "" {
		return ""
	}
	if m := angleAddrPattern.FindStringSubmatch(emailString); m != nil {
		return m[1]
	}
	if m := bareAddrPattern.FindStringSubmatch(emailString); m != nil {
		return m[1]
	}
	return emailString
}

// nameFromAddress derives a display name: the quoted name when present,
// otherwise the address's username title-cased with dots and underscores
// as word breaks.
func nameFromAddress(emailString string) string {
	if emailString == "" {
		return "Unknown"
	}
	if m := displayNamePattern.FindStringSubmatch(emailString); m != nil {
		return strings.ReplaceAll(strings.TrimSpace(m[1]), `"`, "")
	}
	email := extractEmailAddress(emailString)
	username, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(username, func(r rune) bool {
		return r == '.' || r == '_'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
