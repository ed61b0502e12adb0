// Package normalize holds the pure field normalizers that convert
// source-specific string encodings into canonical typed values.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sourceDateLayout is how every scraper reports timestamps.
const sourceDateLayout = "02/01/2006 15:04"

// ParsePriceString strips all non-digit characters and treats the
// remaining digit run as integer cents. "1.234,56 €" -> 1234.56.
// Empty input returns nil. A parsed value of zero also returns nil:
// the sources conflate zero-cost entries with missing data, and the
// stored behavior is kept until the domain semantics are confirmed.
func ParsePriceString(s string) *float64 {
	digits := keepDigits(s)
	if digits == "" {
		return nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	v := float64(n) / 100
	return &v
}

// ParseIntegerString strips non-digits and parses the rest as an integer.
// Empty input or a zero value returns nil.
func ParseIntegerString(s string) *int {
	digits := keepDigits(s)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// RepairDate parses a "DD/MM/YYYY HH:mm" timestamp and shifts it by the
// per-source offset that compensates timezone artifacts in the feeds
// (+1h for most sources, +2h for the consultation feed). Empty or
// unparseable input returns nil.
func RepairDate(s string, offset time.Duration) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(sourceDateLayout, s)
	if err != nil {
		return nil
	}
	t = t.Add(offset)
	return &t
}

// SplitCodeList splits a code list on the source's delimiter, strips
// non-digit characters from each token and drops empty tokens.
// "45000000, 45210000-ES" -> ["45000000", "45210000"].
func SplitCodeList(s, delimiter string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var codes []string
	for _, item := range strings.Split(s, delimiter) {
		if code := keepDigits(item); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, strips diacritics and collapses every
// non-alphanumeric run into a single hyphen. Used for identity keys
// (organization slugs, vocabulary table lookups).
func Slugify(s string) string {
	folded, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func keepDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
