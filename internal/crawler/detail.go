package crawler

import (
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/internal/formstate"
	"catalog-scraper/internal/schedule"
	"catalog-scraper/pkg/htmlutil"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_detail_scalars     = "detail.scalars"
	report_detail_terms       = "detail.terms"
	report_detail_outcome     = "detail.outcome"
	report_detail_assessments = "detail.assessments"
)

const (
	RequirementsSelector = "#uc_course_tc_enrl_requirement"
	AssessmentsSelector  = "#uc_course_outcome_gv_ast"
)

// FieldParseError means a label the detail page always carries was not found.
type FieldParseError struct {
	Field string
}

func (e FieldParseError) Error() string {
	return fmt.Sprintf("missing field %s", e.Field)
}

type label struct {
	selector string
	// multiline labels keep their line breaks
	multiline bool
	set       func(course *catalog.Course, value string)
}

var scalarLabels = []label{
	{selector: "#uc_course_lbl_acad_career", set: func(c *catalog.Course, v string) { c.Career = v }},
	{selector: "#uc_course_lbl_units", set: func(c *catalog.Course, v string) { c.Units = v }},
	{selector: "#uc_course_lbl_grading_basis", set: func(c *catalog.Course, v string) { c.Grading = v }},
	{selector: "#uc_course_lbl_component", set: func(c *catalog.Course, v string) { c.Components = v }},
	{selector: "#uc_course_lbl_campus", set: func(c *catalog.Course, v string) { c.Campus = v }},
	{selector: "#uc_course_lbl_acad_group", set: func(c *catalog.Course, v string) { c.AcademicGroup = v }},
	{selector: "#uc_course_lbl_crse_descrlong", multiline: true, set: func(c *catalog.Course, v string) { c.Description = v }},
}

var outcomeLabels = []label{
	{selector: "#uc_course_outcome_lbl_learning_outcome", multiline: true, set: func(c *catalog.Course, v string) { c.Outcome = v }},
	{selector: "#uc_course_outcome_lbl_course_syllabus", multiline: true, set: func(c *catalog.Course, v string) { c.Syllabus = v }},
	{selector: "#uc_course_outcome_lbl_req_reading", multiline: true, set: func(c *catalog.Course, v string) { c.RequiredReadings = v }},
	{selector: "#uc_course_outcome_lbl_rec_reading", multiline: true, set: func(c *catalog.Course, v string) { c.RecommendedReadings = v }},
}

// readLabels fills `course` from `labels`, all of them must be present. Nothing is written
// when one is missing.
func readLabels(page *goquery.Selection, labels []label, course *catalog.Course) error {
	values := make([]string, len(labels))
	for i, l := range labels {
		var field htmlutil.Field
		if l.multiline {
			field = htmlutil.LookupJoined(page, l.selector, "\n")
		} else {
			field = htmlutil.Lookup(page, l.selector)
		}
		if !field.Present {
			return FieldParseError{Field: l.selector}
		}
		values[i] = field.Value
	}
	for i, l := range labels {
		l.set(course, values[i])
	}
	return nil
}

// readEachLabel fills `course` from every label that is present and returns one error per
// missing label.
func readEachLabel(page *goquery.Selection, labels []label, course *catalog.Course) []error {
	var missing []error
	for _, l := range labels {
		err := readLabels(page, []label{l}, course)
		if err != nil {
			missing = append(missing, err)
		}
	}
	return missing
}

type termOption struct {
	name     string
	value    string
	selected bool
}

func termOptions(page *goquery.Selection) []termOption {
	var out []termOption
	page.Find(TermOptionsSelector).Each(func(_ int, opt *goquery.Selection) {
		_, selected := opt.Attr("selected")
		out = append(out, termOption{
			name:     htmlutil.Text(opt),
			value:    opt.AttrOr("value", ""),
			selected: selected,
		})
	})
	return out
}

// detailExtractor reads a course detail page and the sub-pages reachable from it.
//
// Every sub-page is requested with view-state taken from the detail page itself, the
// subject's ambient state is left untouched.
type detailExtractor struct {
	client *client
	parser schedule.Parser
	tel    telemetry.API
}

// Extract builds the course behind `page`. Only a missing scalar label empties the course
// (leaving code and title), failures in terms or outcome only blank their own fields. Each
// outcome label is read on its own.
func (e detailExtractor) Extract(ctx context.Context, page *goquery.Selection, code, title, courseID string) catalog.Course {
	course := catalog.Course{Code: code, Title: title}

	err := readLabels(page, scalarLabels, &course)
	if err != nil {
		e.tel.ReportWarning(report_detail_scalars, err, courseID)
		return catalog.Course{Code: code, Title: title}
	}
	course.Requirements = htmlutil.LookupJoined(page, RequirementsSelector, ";").Value

	options := termOptions(page)
	if len(options) == 0 {
		e.tel.ReportWarning(report_detail_terms, fmt.Errorf("no term options"), courseID)
		return course
	}

	terms := e.terms(ctx, page, options, courseID)
	if len(terms) > 0 {
		course.Terms = terms
	}

	e.outcome(ctx, page, options[0].value, courseID, &course)
	return course
}

func (e detailExtractor) terms(ctx context.Context, page *goquery.Selection, options []termOption, courseID string) catalog.Terms {
	terms := catalog.Terms{}

	var snapshot formstate.State
	for _, opt := range options {
		var sections catalog.Sections
		if opt.selected {
			sections = e.parser.ParseSections(courseID, page)
		} else {
			if snapshot.IsZero() {
				var err error
				snapshot, err = formstate.Extract(page)
				if err != nil {
					e.tel.ReportBroken(report_detail_terms, err, courseID)
					return terms
				}
			}
			doc, err := e.client.Submit(ctx, termForm(snapshot, opt.value))
			if err != nil {
				e.tel.ReportBroken(report_detail_terms, err, courseID, opt.name)
				if ctx.Err() != nil {
					return terms
				}
				continue
			}
			sections = e.parser.ParseSections(courseID, doc.Selection)
		}

		if len(sections) > 0 {
			terms[opt.name] = sections
		}
	}
	return terms
}

func (e detailExtractor) outcome(ctx context.Context, page *goquery.Selection, firstTerm, courseID string, course *catalog.Course) {
	snapshot, err := formstate.Extract(page, formstate.CourseOfferNbr, formstate.CourseID)
	if err != nil {
		e.tel.ReportWarning(report_detail_outcome, err, courseID)
		return
	}
	doc, err := e.client.Submit(ctx, outcomeForm(snapshot, firstTerm))
	if err != nil {
		e.tel.ReportBroken(report_detail_outcome, err, courseID)
		return
	}

	missing := readEachLabel(doc.Selection, outcomeLabels, course)
	if len(missing) == len(outcomeLabels) {
		// not an outcome page at all
		e.tel.ReportWarning(report_detail_outcome, missing[0], courseID)
		return
	}
	for _, err := range missing {
		e.tel.ReportWarning(report_detail_outcome, err, courseID)
	}

	table := doc.Find(AssessmentsSelector).First()
	if table.Length() == 0 {
		e.tel.ReportWarning(report_detail_assessments, FieldParseError{Field: AssessmentsSelector}, courseID)
		return
	}
	assessments := map[string]string{}
	rows := htmlutil.TableRows(table)
	for i := 1; i < rows.Length(); i++ {
		cells := rows.Eq(i).ChildrenFiltered("td")
		if cells.Length() < 3 {
			e.tel.ReportWarning(
				report_detail_assessments,
				fmt.Errorf("expected at least 3 cells, got %d", cells.Length()),
				courseID,
				i,
			)
			continue
		}
		assessments[htmlutil.Text(cells.Eq(1))] = htmlutil.Text(cells.Eq(2))
	}
	course.Assessments = assessments
}
