package schema

import "strings"

// Group is a Y-column signal class. Lower values sort first.
type Group int

const (
	GroupVoltage Group = iota
	GroupSpeed
	GroupRange
	GroupSignal
	GroupOther
)

func (g Group) String() string {
	switch g {
	case GroupVoltage:
		return "voltage"
	case GroupSpeed:
		return "speed"
	case GroupRange:
		return "range"
	case GroupSignal:
		return "signal"
	}
	return "other"
}

// Rule classifies a header base name into one Group.
// Tokens match as substrings of the header key; Words must equal a whole word of the header.
type Rule struct {
	Group  Group
	Tokens []string
	Words  []string
}

// Rules are evaluated in order; the first group with any matching column wins.
var Rules = []Rule{
	{Group: GroupVoltage, Tokens: []string{"voltage", "volt", "analogin", "analoginput"}, Words: []string{"v", "ai"}},
	{Group: GroupSpeed, Tokens: []string{"speed", "velocity"}},
	{Group: GroupRange, Tokens: []string{"range", "distance"}},
	{Group: GroupSignal, Tokens: []string{"amplitude", "snr", "signal", "strength"}},
}

// Match reports whether the rule accepts a header base name.
func (r Rule) Match(base string) bool {
	key := headerKey(base)
	for _, token := range r.Tokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	if len(r.Words) == 0 {
		return false
	}
	for _, word := range headerWords(base) {
		for _, w := range r.Words {
			if word == w {
				return true
			}
		}
	}
	return false
}

// Classify returns the first matching group for a header, GroupOther if none.
func Classify(rawHeader string) Group {
	base, _ := SplitUnit(rawHeader)
	for _, rule := range Rules {
		if rule.Match(base) {
			return rule.Group
		}
	}
	return GroupOther
}
