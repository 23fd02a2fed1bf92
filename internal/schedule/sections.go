package schedule

import (
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/assert"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/pkg/htmlutil"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_parser_section  = "parser.section"
	report_parser_timeslot = "parser.timeslot"
)

// ScheduleTableSelector is the section table of a course detail page.
const ScheduleTableSelector = "#uc_course_gv_sched"

// Parser turns the section table of a course detail page into catalog sections.
type Parser struct {
	tel telemetry.API
}

func NewParser(tel telemetry.API) Parser {
	assert.NotNil(tel)
	return Parser{tel: telemetry.NewScopedAPI("schedule", tel)}
}

// timeslot is one row of a section's nested timetable.
type timeslot struct {
	dayTime    string
	location   string
	instructor string
	dates      string
}

// timeslotFields splits a timetable row into its four columns. Rows are normally one cell per
// column, otherwise the row's text nodes are taken in order.
func timeslotFields(row *goquery.Selection) (timeslot, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() >= 4 {
		return timeslot{
			dayTime:    htmlutil.Text(cells.Eq(0)),
			location:   htmlutil.Text(cells.Eq(1)),
			instructor: htmlutil.JoinText(cells.Eq(2), ", "),
			dates:      htmlutil.JoinText(cells.Eq(3), ", "),
		}, true
	}

	fields := htmlutil.TextNodes(row)
	if len(fields) < 4 {
		return timeslot{}, false
	}
	return timeslot{
		dayTime:    fields[0],
		location:   fields[1],
		instructor: fields[2],
		dates:      fields[3],
	}, true
}

type slotKey struct {
	day   int
	start string
}

// ParseSection builds one section from the rows of its timetable.
//
// A timeslot whose (day, start time) was already recorded is skipped even if it is in another
// room or taught by someone else, only its meeting dates are kept. Rows whose day/time cannot be
// parsed (ex. "TBA") contribute their meeting dates but no timeslot.
func (p Parser) ParseSection(code string, rows *goquery.Selection) catalog.Section {
	section := catalog.Section{
		StartTimes:  []string{},
		EndTimes:    []string{},
		Days:        []int{},
		Locations:   []string{},
		Instructors: []string{},
	}
	seen := map[slotKey]struct{}{}
	var fragments []string

	rows.Each(func(i int, row *goquery.Selection) {
		if row.ChildrenFiltered("td").Length() == 0 {
			return
		}
		slot, ok := timeslotFields(row)
		if !ok {
			p.tel.ReportWarning(
				report_parser_timeslot,
				fmt.Errorf("expected 4 fields, got %q", htmlutil.TextNodes(row)),
				code,
			)
			return
		}
		fragments = append(fragments, slot.dates)

		dayTime, err := ParseDayTime(slot.dayTime)
		if err != nil {
			p.tel.ReportDebug(report_parser_timeslot, code, err)
			return
		}
		key := slotKey{day: dayTime.Day, start: dayTime.Start}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		section.Days = append(section.Days, dayTime.Day)
		section.StartTimes = append(section.StartTimes, dayTime.Start)
		section.EndTimes = append(section.EndTimes, dayTime.End)
		section.Locations = append(section.Locations, slot.location)
		section.Instructors = append(section.Instructors, slot.instructor)
	})

	section.MeetingDates = MeetingDates(fragments)
	return section
}

// ParseSections reads every section in the schedule table of `page`. It returns nil when the
// page has no schedule table, a page with a table but no sections returns an empty map.
//
// A malformed section row is reported and skipped without affecting the others. A section
// whose timetable yields no timeslot and no meeting date gets no entry.
func (p Parser) ParseSections(courseCode string, page *goquery.Selection) catalog.Sections {
	table := page.Find(ScheduleTableSelector).First()
	if table.Length() == 0 {
		return nil
	}

	sections := catalog.Sections{}
	rows := htmlutil.TableRows(table)
	if rows.Length() <= 1 {
		return sections
	}
	// the first row is the header
	rows.Slice(1, goquery.ToEnd).Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			p.tel.ReportWarning(
				report_parser_section,
				fmt.Errorf("expected at least 3 cells, got %d", cells.Length()),
				courseCode,
				i,
			)
			return
		}
		code := htmlutil.Text(cells.Eq(0))
		if code == "" {
			p.tel.ReportWarning(report_parser_section, fmt.Errorf("empty section code"), courseCode, i)
			return
		}
		section := p.ParseSection(code, cells.Eq(2).Find("tr"))
		if section.Empty() {
			p.tel.ReportDebug(report_parser_section, courseCode, code, "no timetable")
			return
		}
		sections[code] = section
	})
	return sections
}
