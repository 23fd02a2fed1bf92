package crawler

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/internal/formstate"
	"catalog-scraper/pkg/htmlutil"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_subject_state   = "subject.state"
	report_subject_search  = "subject.search"
	report_subject_row     = "subject.row"
	report_subject_courses = "subject.courses"
)

type crawlState int

const (
	STATE_INIT crawlState = iota
	STATE_FETCH_FORM
	STATE_SOLVE_CAPTCHA
	STATE_SUBMIT_SEARCH
	STATE_SUCCESS
	STATE_RETRY
	STATE_DONE
)

func (s crawlState) String() string {
	switch s {
	case STATE_INIT:
		return "init"
	case STATE_FETCH_FORM:
		return "fetch-form"
	case STATE_SOLVE_CAPTCHA:
		return "solve-captcha"
	case STATE_SUBMIT_SEARCH:
		return "submit-search"
	case STATE_SUCCESS:
		return "success"
	case STATE_RETRY:
		return "retry"
	case STATE_DONE:
		return "done"
	}
	return "unknown"
}

// subjectCrawler crawls every course of one subject. It holds the subject's ambient
// view-state, so it must not be shared between goroutines or reused across subjects.
type subjectCrawler struct {
	client  *client
	detail  detailExtractor
	policy  *captcha.Policy
	subject string
	tel     telemetry.API

	state   crawlState
	form    formstate.State
	attempt captcha.Attempt
	results *goquery.Document
	courses []catalog.Course
}

func (s *subjectCrawler) transition(next crawlState) {
	s.tel.ReportDebug(report_subject_state, s.subject, s.state.String(), next.String())
	s.state = next
}

// Run drives the crawl to completion. It only gives up on transport failures, a page
// without view-state, or a captcha policy error.
func (s *subjectCrawler) Run(ctx context.Context) ([]catalog.Course, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		switch s.state {
		case STATE_INIT:
			s.transition(STATE_FETCH_FORM)
		case STATE_FETCH_FORM:
			err = s.fetchForm(ctx)
		case STATE_SOLVE_CAPTCHA:
			err = s.solveCaptcha(ctx)
		case STATE_SUBMIT_SEARCH:
			err = s.submitSearch(ctx)
		case STATE_RETRY:
			s.transition(STATE_SOLVE_CAPTCHA)
		case STATE_SUCCESS:
			err = s.crawlRows(ctx)
		case STATE_DONE:
			return s.courses, nil
		}
		if err != nil {
			return nil, fmt.Errorf("crawl subject %s (%s): %w", s.subject, s.state, err)
		}
	}
}

func (s *subjectCrawler) fetchForm(ctx context.Context) error {
	doc, err := s.client.Page(ctx)
	if err != nil {
		return err
	}
	form, err := formstate.Extract(doc.Selection)
	if err != nil {
		return fmt.Errorf("search page: %w", err)
	}
	if form.ChallengeID() == "" {
		return fmt.Errorf("search page: %w", formstate.MissingFieldError{Field: formstate.ChallengeIDField})
	}
	s.form = form
	s.transition(STATE_SOLVE_CAPTCHA)
	return nil
}

func (s *subjectCrawler) solveCaptcha(ctx context.Context) error {
	id := s.form.ChallengeID()
	image, err := s.client.Captcha(ctx, id)
	if err != nil {
		return err
	}
	attempt, err := s.policy.Attempt(ctx, captcha.Challenge{ID: id, Image: image})
	if err != nil {
		return err
	}
	s.attempt = attempt
	s.transition(STATE_SUBMIT_SEARCH)
	return nil
}

func (s *subjectCrawler) submitSearch(ctx context.Context) error {
	doc, err := s.client.Submit(ctx, searchForm(s.form, s.subject, s.attempt))
	if err != nil {
		return err
	}

	accepted := doc.Find(ResultsSelector).Length() > 0
	s.policy.Evaluate(ctx, s.attempt, captcha.VerdictOf(accepted))

	next, err := formstate.Extract(doc.Selection)
	if accepted {
		if err != nil {
			return fmt.Errorf("results page: %w", err)
		}
		s.form = next
		s.results = doc
		s.transition(STATE_SUCCESS)
		return nil
	}

	s.tel.ReportDebug(report_subject_search, s.subject, "captcha rejected", s.attempt.Text)
	if err != nil || next.ChallengeID() == "" {
		// the rejection page cannot be resubmitted, start from a blank form
		s.tel.ReportWarning(report_subject_search, "rejection page without usable view-state", s.subject)
		s.transition(STATE_FETCH_FORM)
		return nil
	}
	s.form = next
	s.transition(STATE_RETRY)
	return nil
}

// crawlRows posts every result row's detail link one after another, all with the state of
// the results page.
func (s *subjectCrawler) crawlRows(ctx context.Context) error {
	rows := htmlutil.TableRows(s.results.Find(ResultsSelector).First())
	total := rows.Length() - 1
	if total < 0 {
		total = 0
	}
	s.tel.ReportCount(report_subject_courses, int64(total))

	courses := make([]catalog.Course, 0, total)
	for i := 0; i < total; i++ {
		links := rows.Eq(i + 1).Find("a")
		if links.Length() < 2 {
			s.tel.ReportWarning(
				report_subject_row,
				fmt.Errorf("expected 2 links, got %d", links.Length()),
				s.subject,
				i,
			)
			continue
		}
		code := htmlutil.Text(links.Eq(0))
		title := htmlutil.Text(links.Eq(1))
		courseID := s.subject + code
		s.tel.ReportDebug(report_subject_row, courseID, title, i+1, total)

		doc, err := s.client.Submit(ctx, rowForm(s.form, s.subject, s.attempt, i))
		if err != nil {
			return fmt.Errorf("course %s: %w", courseID, err)
		}
		courses = append(courses, s.detail.Extract(ctx, doc.Selection, code, title, courseID))
	}

	s.courses = courses
	s.transition(STATE_DONE)
	return nil
}
