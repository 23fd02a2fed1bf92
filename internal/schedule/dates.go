package schedule

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// month-name dates carry their own comma ("Sep 5, 2022") so they are cut out before the
// rest of a fragment is split on delimiters
var monthDateRegex = regexp.MustCompile(
	`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`,
)

var dateDelimiters = regexp.MustCompile(`[,;\n]`)

var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2/1/2006",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses a meeting date in any of the notations the catalog uses,
// numeric day/month dates are read day first.
func ParseDate(text string) (time.Time, bool) {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ReplaceAll(text, ".", "")
	// "Sept" is not understood by time.Parse
	if len(text) >= 5 && strings.EqualFold(text[:4], "sept") && text[4] == ' ' {
		text = text[:3] + text[4:]
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, text)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// SplitDates splits one meeting-date fragment into individual dates.
func SplitDates(fragment string) []string {
	var out []string
	rest := monthDateRegex.ReplaceAllStringFunc(fragment, func(match string) string {
		out = append(out, strings.Join(strings.Fields(match), " "))
		return ";"
	})
	for _, part := range dateDelimiters.Split(rest, -1) {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// CompareDates orders dates by calendar time, dates that cannot be parsed go after every
// date that can and are ordered lexicographically among themselves.
func CompareDates(a, b string) int {
	at, aok := ParseDate(a)
	bt, bok := ParseDate(b)
	switch {
	case aok && bok:
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

// MeetingDates aggregates the date fragments of every timeslot in a section into one
// deduplicated list in calendar order.
func MeetingDates(fragments []string) []string {
	seen := map[string]struct{}{}
	dates := []string{}
	for _, fragment := range fragments {
		for _, date := range SplitDates(fragment) {
			if _, ok := seen[date]; ok {
				continue
			}
			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}
	slices.SortStableFunc(dates, CompareDates)
	return dates
}
