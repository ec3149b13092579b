package schema

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketUnitRe = regexp.MustCompile(`^(.*?)\s*[\[(]\s*([^\])]*?)\s*[\])]\s*$`)
	suffixUnitRe  = regexp.MustCompile(`(?i)^(.+?)[_\- ](ms|us|µs|μs|s)$`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// foldHeader maps compatibility characters (µ -> μ), strips accents and lower-cases.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// headerKey is the comparison form: folded, without spaces, underscores or hyphens.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range foldHeader(s) {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// headerWords splits a folded header into alphanumeric words.
func headerWords(s string) []string {
	return strings.FieldsFunc(foldHeader(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CleanHeader trims quotes and collapses whitespace in a raw header cell.
func CleanHeader(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SplitUnit separates a header into base name and unit:
// "Voltage [V]" -> ("Voltage", "V"), "time_ms" -> ("time", "ms").
func SplitUnit(raw string) (base, unit string) {
	h := CleanHeader(raw)
	if m := bracketUnitRe.FindStringSubmatch(h); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := suffixUnitRe.FindStringSubmatch(h); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return h, ""
}

// TimeScale converts a time unit to a multiplier to seconds.
// Unknown units fall back to an "ms"/"us" substring of the raw header, otherwise 1.
func TimeScale(unit, rawHeader string) float64 {
	switch foldHeader(strings.TrimSpace(unit)) {
	case "s", "sec", "secs", "second", "seconds":
		return 1
	case "ms", "msec", "millisecond", "milliseconds":
		return 1e-3
	case "us", "μs", "usec", "microsecond", "microseconds":
		return 1e-6
	}

	raw := foldHeader(rawHeader)
	switch {
	case strings.Contains(raw, "ms"):
		return 1e-3
	case strings.Contains(raw, "us"), strings.Contains(raw, "μs"):
		return 1e-6
	}
	return 1
}

// IsTimeHeader reports whether a header base name names the time axis.
// The single-letter "t" must be the whole name.
func IsTimeHeader(base string) bool {
	key := headerKey(base)
	if key == "t" {
		return true
	}
	for _, token := range []string{"time", "timestamp", "sampletime"} {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

// IsRadarSignalHeader matches the radar voltage/ADC columns that override every other Y rule.
func IsRadarSignalHeader(raw string) bool {
	key := headerKey(raw)
	return strings.Contains(key, "radarvoltage") || strings.Contains(key, "radaradc")
}
