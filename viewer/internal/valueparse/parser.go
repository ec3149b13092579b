package valueparse

import (
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// timestampLayouts are tried in order before the flexible parsers.
// Go accepts a fractional second after the seconds field even when the layout omits it,
// so each layout covers both the HH:mm:ss and HH:mm:ss.fff forms.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04:05",
	"01/02/2006 15:04:05",
}

// Parser parses numeric and date-time cells for one locale.
type Parser struct {
	tag        language.Tag
	decimal    rune
	group      rune
	monthFirst bool
}

// New creates a parser for the given locale.
func New(tag language.Tag) *Parser {
	decimal, group := separators(tag)
	region, _ := tag.Region()
	return &Parser{
		tag:        tag,
		decimal:    decimal,
		group:      group,
		monthFirst: region.String() == "US",
	}
}

// NewFromString parses a BCP 47 locale name ("de-DE", "en_US.UTF-8").
// An empty or unknown name falls back to the process locale from LANG/LC_ALL, then English.
func NewFromString(name string) *Parser {
	if tag, ok := parseLocale(name); ok {
		return New(tag)
	}
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		if tag, ok := parseLocale(os.Getenv(key)); ok {
			return New(tag)
		}
	}
	return New(language.English)
}

// Invariant returns a parser whose locale stage behaves like plain dot-decimal parsing.
func Invariant() *Parser {
	return New(language.English)
}

func parseLocale(name string) (language.Tag, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == "C" || name == "POSIX" {
		return language.Und, false
	}
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// separators derives the locale decimal and group separators by formatting a sample value.
func separators(tag language.Tag) (decimal, group rune) {
	decimal, group = '.', ','
	sample := message.NewPrinter(tag).Sprintf("%.1f", 1234.5)

	var marks []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			marks = append(marks, r)
		}
	}
	switch len(marks) {
	case 0:
	case 1:
		decimal = marks[0]
		if decimal == ',' {
			group = '.'
		}
	default:
		group = marks[0]
		decimal = marks[len(marks)-1]
	}
	return decimal, group
}

// Tag returns the parser locale.
func (p *Parser) Tag() language.Tag {
	return p.tag
}

// DecimalSeparator returns the locale decimal separator.
func (p *Parser) DecimalSeparator() rune {
	return p.decimal
}

// ParseNumber tries the locale format, then invariant dot-decimal, then a comma to dot retry.
func (p *Parser) ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if v, ok := p.parseLocale(s); ok {
		return v, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if strings.ContainsRune(s, ',') {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// parseLocale accepts only the locale decimal separator; group separators are rejected.
func (p *Parser) parseLocale(s string) (float64, bool) {
	if p.decimal == '.' {
		if strings.ContainsRune(s, ',') {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}
	if strings.ContainsRune(s, '.') || (p.group != p.decimal && strings.ContainsRune(s, p.group)) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, string(p.decimal), "."), 64)
	return v, err == nil
}

// ParseTimestamp tries the explicit layouts in order, then locale-aware and invariant flexible parsing.
// Plain numbers are never treated as timestamps.
func (p *Parser) ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, ok := p.ParseNumber(s); ok {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, time.Local, dateparse.PreferMonthFirst(p.monthFirst)); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
