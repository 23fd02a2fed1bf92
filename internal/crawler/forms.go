package crawler

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/formstate"
	"fmt"
)

const (
	ResultsSelector        = "#gv_detail"
	SubjectOptionsSelector = "#ddl_subject option"
	TermOptionsSelector    = "#uc_course_ddl_class_term option"

	field_subject         = "ddl_subject"
	field_previous_page   = "hf_previous_page"
	field_max_iteration   = "hf_max_search_iteration"
	field_iteration       = "hf_search_iteration"
	field_captcha_text    = "txt_captcha"
	field_event_target    = "__EVENTTARGET"
	field_search_button   = "btn_search"
	field_sections_button = "uc_course$btn_class_section"
	field_outcome_button  = "btn_course_outcome"
	field_term            = "uc_course$ddl_class_term"
)

// searchParams are the fields that select a subject, they accompany every submission made
// from the results page.
func searchParams(subject string) map[string]string {
	return map[string]string{
		field_subject:       subject,
		field_previous_page: "SEARCH",
		field_max_iteration: "1",
		field_iteration:     "1",
	}
}

func captchaParams(attempt captcha.Attempt) map[string]string {
	return map[string]string{
		formstate.ChallengeIDField: attempt.Challenge.ID,
		field_captcha_text:         attempt.Text,
	}
}

func searchForm(state formstate.State, subject string, attempt captcha.Attempt) map[string]string {
	return state.Form(
		searchParams(subject),
		captchaParams(attempt),
		map[string]string{field_search_button: "Search"},
	)
}

// RowTarget is the postback target of the title link in result row `i` (0 based). The grid
// numbers its controls from 2, the header row takes 1.
func RowTarget(i int) string {
	return fmt.Sprintf("gv_detail$ctl%02d$lbtn_course_title", i+2)
}

func rowForm(state formstate.State, subject string, attempt captcha.Attempt, row int) map[string]string {
	return state.Form(
		searchParams(subject),
		captchaParams(attempt),
		map[string]string{field_event_target: RowTarget(row)},
	)
}

func termForm(snapshot formstate.State, term string) map[string]string {
	return snapshot.Form(map[string]string{
		field_sections_button: "Show sections",
		field_term:            term,
	})
}

func outcomeForm(snapshot formstate.State, firstTerm string) map[string]string {
	return snapshot.Form(map[string]string{
		field_outcome_button: "Course Outcome",
		field_term:           firstTerm,
		field_previous_page:  "SEARCH",
	})
}
