package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DayTime is a parsed weekly meeting time. Day is the ISO weekday (Monday = 1, Sunday = 7),
// Start and End are 24 hour "HH:MM" strings.
type DayTime struct {
	Day   int
	Start string
	End   string
}

// DayTimeError is returned for day/time text that does not follow the catalog's notation,
// which includes "TBA" placeholders.
type DayTimeError struct {
	Text string
}

func (e DayTimeError) Error() string {
	return fmt.Sprintf("unrecognized day/time %q", e.Text)
}

var weekdays = map[string]int{
	"mo": 1,
	"tu": 2,
	"we": 3,
	"th": 4,
	"fr": 5,
	"sa": 6,
	"su": 7,
}

// ex. "Mo 10:30AM - 12:15PM", "Thu 14:30 - 16:15", "Tuesday 9:00am-10:00am"
var dayTimeRegex = regexp.MustCompile(
	`(?i)^([a-z]{2})[a-z]*\.?\s+(\d{1,2}):(\d{2})\s*([ap]m)?\s*-\s*(\d{1,2}):(\d{2})\s*([ap]m)?$`,
)

// ParseDayTime parses the day/time column of a timeslot row.
func ParseDayTime(text string) (DayTime, error) {
	text = strings.Join(strings.Fields(text), " ")
	groups := dayTimeRegex.FindStringSubmatch(text)
	if groups == nil {
		return DayTime{}, DayTimeError{Text: text}
	}

	day, ok := weekdays[strings.ToLower(groups[1])]
	if !ok {
		return DayTime{}, DayTimeError{Text: text}
	}

	startMeridiem := strings.ToLower(groups[4])
	endMeridiem := strings.ToLower(groups[7])
	inherited := false
	if startMeridiem == "" && endMeridiem != "" {
		// "10:30 - 12:15PM" writes the meridiem once
		startMeridiem = endMeridiem
		inherited = true
	}

	end, err := clockMinutes(groups[5], groups[6], endMeridiem)
	if err != nil {
		return DayTime{}, DayTimeError{Text: text}
	}
	start, err := clockMinutes(groups[2], groups[3], startMeridiem)
	if err != nil {
		return DayTime{}, DayTimeError{Text: text}
	}
	if inherited && start > end && startMeridiem == "pm" {
		start, err = clockMinutes(groups[2], groups[3], "am")
		if err != nil {
			return DayTime{}, DayTimeError{Text: text}
		}
	}

	return DayTime{
		Day:   day,
		Start: formatClock(start),
		End:   formatClock(end),
	}, nil
}

func clockMinutes(hourText, minuteText, meridiem string) (int, error) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return 0, err
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute out of range: %d", minute)
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, fmt.Errorf("hour out of range: %d", hour)
		}
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour out of range: %d", hour)
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	}

	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
