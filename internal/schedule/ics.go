package schedule

import (
	"catalog-scraper/internal/catalog"
	"fmt"
	"slices"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Calendar exports the sections of `course` offered in `term` as iCalendar events, one per
// meeting date that falls on a timeslot's weekday. Times are interpreted in `location`.
func Calendar(course catalog.Course, term string, location *time.Location, stamp time.Time) (*ics.Calendar, error) {
	sections, ok := course.Terms[term]
	if !ok {
		return nil, fmt.Errorf("course %s is not offered in %q", course.Code, term)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//catalog-scraper//EN")
	cal.SetXWRCalName(fmt.Sprintf("%s %s", course.Code, term))
	cal.SetXWRTimezone(location.String())

	codes := make([]string, 0, len(sections))
	for code := range sections {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		section := sections[code]
		for i := 0; i < section.Len(); i++ {
			for _, date := range section.MeetingDates {
				day, ok := ParseDate(date)
				if !ok || isoWeekday(day) != section.Days[i] {
					continue
				}
				start, err := atClock(day, section.StartTimes[i], location)
				if err != nil {
					return nil, err
				}
				end, err := atClock(day, section.EndTimes[i], location)
				if err != nil {
					return nil, err
				}

				event := cal.AddEvent(eventID(course.Code, code, i, day))
				event.SetDtStampTime(stamp)
				event.SetStartAt(start)
				event.SetEndAt(end)
				event.SetSummary(fmt.Sprintf("%s %s", course.Code, code))
				event.SetLocation(section.Locations[i])
				event.SetDescription(fmt.Sprintf("%s\n%s", course.Title, section.Instructors[i]))
			}
		}
	}

	return cal, nil
}

func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}

func atClock(day time.Time, clock string, location *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, location), nil
}

func eventID(course, section string, slot int, day time.Time) string {
	section = strings.Map(func(r rune) rune {
		if r == ' ' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, section)
	return fmt.Sprintf("%s-%s-%d-%s@catalog-scraper", course, section, slot, day.Format("20060102"))
}
