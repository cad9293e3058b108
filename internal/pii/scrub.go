// Package pii masks customer identifiers and redacts PII patterns from free
// text before anything reaches a log line or the audit record.
package pii

import (
	"fmt"
	"regexp"
	"strings"
)

// patternClass pairs a PII class name with its detection pattern. Order is
// significant: classes are applied sequentially against the already-scrubbed
// text, and the redaction report lists classes in this order.
type patternClass struct {
	name    string
	pattern *regexp.Regexp
}

var patternClasses = []patternClass{
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"phone", regexp.MustCompile(`\b(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{"account_num", regexp.MustCompile(`\b\d{10,16}\b`)},
}

// MaskIdentifier masks all but the last two characters of an identifier. The
// mask prefix is at least four asterisks regardless of input length, so the
// masked form is never identical to the original, even for short IDs:
//
//	CUST-20241107-7842 → ****************42
//	C014               → ****14
//
// Empty input yields "UNKNOWN".
func MaskIdentifier(raw string) string {
	if raw == "" {
		return "UNKNOWN"
	}
	visibleCount := 2
	if len(raw) < visibleCount {
		visibleCount = len(raw)
	}
	maskCount := len(raw) - visibleCount
	if maskCount < 4 {
		maskCount = 4
	}
	return strings.Repeat("*", maskCount) + raw[len(raw)-visibleCount:]
}

// ScrubText replaces every PII pattern match with a class-tagged redaction
// marker and returns the scrubbed text plus the ordered list of classes that
// fired (each class at most once). Applying ScrubText to its own output is a
// no-op: markers contain no digits or address characters.
func ScrubText(text string) (string, []string) {
	scrubbed := text
	var redacted []string
	for _, pc := range patternClasses {
		if !pc.pattern.MatchString(scrubbed) {
			continue
		}
		marker := fmt.Sprintf("[REDACTED-%s]", strings.ToUpper(pc.name))
		scrubbed = pc.pattern.ReplaceAllString(scrubbed, marker)
		redacted = append(redacted, pc.name)
	}
	return scrubbed, redacted
}
