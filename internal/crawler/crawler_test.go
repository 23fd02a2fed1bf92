package crawler

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/components/telemetry"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testAnswer = "ab3d"

type fakeCourse struct {
	code    string
	title   string
	outcome bool
	// broken detail pages lack the units label
	broken bool
	// the outcome page of these lacks the syllabus label
	noSyllabus bool
}

// fakeSite imitates the catalog: every page carries view-state tagged with the kind of page
// it is, and every submission is checked against the state it must echo back.
type fakeSite struct {
	subjects []string
	courses  map[string][]fakeCourse
	// subjects whose results page has no view-state
	brokenResults map[string]bool
	// the next n submissions fail with 503
	unavailable int
	// subjects whose search submission always fails with 503
	down map[string]bool

	mutex       sync.Mutex
	challenges  int
	searches    int
	inflight    int
	maxInflight int
	events      []string
}

func hidden(name, value string) string {
	id := strings.ReplaceAll(name, "$", "_")
	return fmt.Sprintf(`<input type="hidden" name="%s" id="%s" value="%s"/>`, name, id, value)
}

func viewState(tag string) string {
	return hidden("__VIEWSTATEFIELDCOUNT", "2") +
		hidden("__EVENTVALIDATION", "ev-"+tag) +
		hidden("__VIEWSTATEGENERATOR", "gen") +
		hidden("__VIEWSTATE", tag) +
		hidden("__VIEWSTATE1", tag+"-1")
}

func (s *fakeSite) record(event string) {
	s.events = append(s.events, event)
}

func (s *fakeSite) searchPage() string {
	s.challenges++
	var b strings.Builder
	b.WriteString(`<html><body><form id="form1">`)
	b.WriteString(viewState("search"))
	b.WriteString(hidden("hf_Captcha", fmt.Sprintf("challenge-%d", s.challenges)))
	b.WriteString(`<select id="ddl_subject" name="ddl_subject"><option value="">Select</option>`)
	for _, subject := range s.subjects {
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, subject, subject)
	}
	b.WriteString(`<option value=""></option></select>`)
	b.WriteString(`<input type="text" id="txt_captcha" name="txt_captcha"/></form></body></html>`)
	return b.String()
}

func (s *fakeSite) resultsPage(subject string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form id="form1">`)
	if !s.brokenResults[subject] {
		b.WriteString(viewState("results"))
		b.WriteString(hidden("hf_Captcha", fmt.Sprintf("challenge-%d", s.challenges)))
	}
	b.WriteString(`<table id="gv_detail"><tr><th>Course Code</th><th>Course Title</th></tr>`)
	for i, course := range s.courses[subject] {
		fmt.Fprintf(
			&b,
			`<tr><td><a href="javascript:__doPostBack('gv_detail$ctl%02d$lbtn_course_nbr','')">%s</a></td><td><a href="#">%s</a></td></tr>`,
			i+2, course.code, course.title,
		)
	}
	b.WriteString(`</table></form></body></html>`)
	return b.String()
}

const lectureSchedule = `<table id="uc_course_gv_sched">
	<tr><th>Section</th><th>Status</th><th>Schedule</th></tr>
	<tr><td>--LEC (1234)</td><td>Open</td><td><table>
		<tr><td>Mo 10:30AM - 12:15PM</td><td>LSB LT1</td><td>Professor CHAN Tai Man</td><td>Sep 19, 2022, Sep 5, 2022</td></tr>
	</table></td></tr>
</table>`

const tutorialSchedule = `<table id="uc_course_gv_sched">
	<tr><th>Section</th><th>Status</th><th>Schedule</th></tr>
	<tr><td>-T01-TUT (5678)</td><td>Open</td><td><table>
		<tr><td>Fr 09:30AM - 10:15AM</td><td>MMW 702</td><td>Mr. LEE</td><td>Jan 13, 2023</td></tr>
	</table></td></tr>
</table>`

const emptySchedule = `<table id="uc_course_gv_sched"><tr><th>Section</th><th>Status</th><th>Schedule</th></tr></table>`

func (s *fakeSite) detailPage(subject string, course fakeCourse) string {
	tag := "detail-" + subject + course.code
	var b strings.Builder
	b.WriteString(`<html><body><form id="form1">`)
	b.WriteString(viewState(tag))
	b.WriteString(hidden("hf_course_offer_nbr", "1"))
	b.WriteString(hidden("hf_course_id", "id-"+course.code))
	b.WriteString(`<span id="uc_course_lbl_acad_career">Undergraduate</span>`)
	if !course.broken {
		b.WriteString(`<span id="uc_course_lbl_units">3.00</span>`)
	}
	b.WriteString(`<span id="uc_course_lbl_grading_basis">Graded</span>
		<span id="uc_course_lbl_component">Lecture
			Tutorial</span>
		<span id="uc_course_lbl_campus">Main Campus</span>
		<span id="uc_course_lbl_acad_group">Faculty of Engineering</span>
		<span id="uc_course_tc_enrl_requirement"><span>Not for students who have taken CSCI1120</span><br/><span>For Major students</span></span>`)
	fmt.Fprintf(&b, `<span id="uc_course_lbl_crse_descrlong">About %s.<br/>Second line.</span>`, course.title)
	b.WriteString(`<select id="uc_course_ddl_class_term" name="uc_course$ddl_class_term">
		<option value="2210">2022-23 Term 1</option>
		<option value="2220" selected="selected">2022-23 Term 2</option>
		<option value="2230">2022-23 Summer Session</option>
	</select>`)
	b.WriteString(lectureSchedule)
	b.WriteString(`</form></body></html>`)
	return b.String()
}

func termPage(term string) string {
	schedule := emptySchedule
	if term == "2210" {
		schedule = tutorialSchedule
	}
	return `<html><body><form id="form1">` + viewState("term-"+term) + schedule + `</form></body></html>`
}

const syllabusLabel = `<span id="uc_course_outcome_lbl_course_syllabus">Java basics</span>`

const outcomePage = `<html><body><form id="form1">
	<span id="uc_course_outcome_lbl_learning_outcome">Write programs.<br/>Debug them.</span>
	` + syllabusLabel + `
	<span id="uc_course_outcome_lbl_req_reading">None</span>
	<span id="uc_course_outcome_lbl_rec_reading">Big Java</span>
	<table id="uc_course_outcome_gv_ast">
		<tr><th>#</th><th>Item</th><th>Weight</th></tr>
		<tr><td>1</td><td>Assignments</td><td>40%</td></tr>
		<tr><td>2</td><td>Examination</td><td>60%</td></tr>
	</table>
</form></body></html>`

const missingOutcomePage = `<html><body><p>An error has occurred.</p></body></html>`

func (s *fakeSite) findCourse(tag string) (string, fakeCourse, bool) {
	for subject, courses := range s.courses {
		for _, course := range courses {
			if tag == "detail-"+subject+course.code {
				return subject, course, true
			}
		}
	}
	return "", fakeCourse{}, false
}

func (s *fakeSite) post(form url.Values) (string, error) {
	switch {
	case form.Get("btn_search") == "Search":
		if form.Get("__VIEWSTATE") != "search" {
			return "", fmt.Errorf("search posted with state %q", form.Get("__VIEWSTATE"))
		}
		s.searches++
		if form.Get("txt_captcha") != testAnswer {
			s.record("rejected")
			return s.searchPage(), nil
		}
		subject := form.Get("ddl_subject")
		s.record("search:" + subject)
		return s.resultsPage(subject), nil

	case form.Get("__EVENTTARGET") != "":
		if form.Get("__VIEWSTATE") != "results" || form.Get("txt_captcha") != testAnswer {
			return "", fmt.Errorf("row posted with state %q", form.Get("__VIEWSTATE"))
		}
		target := form.Get("__EVENTTARGET")
		number := strings.TrimSuffix(strings.TrimPrefix(target, "gv_detail$ctl"), "$lbtn_course_title")
		n, err := strconv.Atoi(number)
		subject := form.Get("ddl_subject")
		if err != nil || n < 2 || n-2 >= len(s.courses[subject]) {
			return "", fmt.Errorf("bad event target %q", target)
		}
		course := s.courses[subject][n-2]
		s.record("row:" + course.code)
		return s.detailPage(subject, course), nil

	case form.Get("uc_course$btn_class_section") == "Show sections":
		_, course, ok := s.findCourse(form.Get("__VIEWSTATE"))
		if !ok {
			return "", fmt.Errorf("term posted with state %q", form.Get("__VIEWSTATE"))
		}
		term := form.Get("uc_course$ddl_class_term")
		s.record("term:" + course.code + ":" + term)
		return termPage(term), nil

	case form.Get("btn_course_outcome") == "Course Outcome":
		_, course, ok := s.findCourse(form.Get("__VIEWSTATE"))
		if !ok || form.Get("hf_course_id") != "id-"+course.code {
			return "", fmt.Errorf("outcome posted with state %q", form.Get("__VIEWSTATE"))
		}
		if form.Get("uc_course$ddl_class_term") != "2210" {
			return "", fmt.Errorf("outcome posted for term %q", form.Get("uc_course$ddl_class_term"))
		}
		s.record("outcome:" + course.code)
		if !course.outcome {
			return missingOutcomePage, nil
		}
		if course.noSyllabus {
			return strings.Replace(outcomePage, syllabusLabel, "", 1), nil
		}
		return outcomePage, nil
	}
	return "", fmt.Errorf("unknown submission")
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	s.mutex.Unlock()
	// widens the window in which overlapping requests would be observed
	time.Sleep(time.Millisecond)

	s.mutex.Lock()
	defer func() {
		s.inflight--
		s.mutex.Unlock()
	}()

	switch {
	case r.URL.Path == "/Public/BuildCaptcha.aspx":
		if r.URL.Query().Get("len") != "4" {
			http.Error(w, "bad length", http.StatusBadRequest)
			return
		}
		w.Header().Set("content-type", "image/gif")
		w.Write([]byte("image-" + r.URL.Query().Get("captchaname")))
	case r.URL.Path == "/Public/tt_dsp_crse_catalog.aspx" && r.Method == http.MethodGet:
		w.Write([]byte(s.searchPage()))
	case r.URL.Path == "/Public/tt_dsp_crse_catalog.aspx" && r.Method == http.MethodPost:
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if s.unavailable > 0 || (r.PostForm.Get("btn_search") == "Search" && s.down[r.PostForm.Get("ddl_subject")]) {
			if s.unavailable > 0 {
				s.unavailable--
			}
			s.record("unavailable")
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		page, err := s.post(r.PostForm)
		if err != nil {
			s.record("error: " + err.Error())
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write([]byte(page))
	default:
		http.NotFound(w, r)
	}
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		subjects: []string{"AAAA", "BAD", "CSCI"},
		courses: map[string][]fakeCourse{
			"CSCI": {
				{code: "1130", title: "Introduction to Computing Using Java", outcome: true},
				{code: "2100", title: "Data Structures"},
				{code: "9999", title: "Broken Course", broken: true},
			},
			"BAD": {
				{code: "1000", title: "Unreachable"},
			},
			"MATH": {
				{code: "1010", title: "Calculus", outcome: true, noSyllabus: true},
			},
		},
		brokenResults: map[string]bool{"BAD": true},
	}
}

type scriptedSolver struct {
	answers []string
	calls   int
}

func (s *scriptedSolver) Solve(ctx context.Context, image []byte) (string, error) {
	answer := s.answers[min(s.calls, len(s.answers)-1)]
	s.calls++
	return answer, nil
}

type memorySamples struct {
	saved []captcha.Sample
}

func (m *memorySamples) Save(ctx context.Context, sample captcha.Sample) error {
	m.saved = append(m.saved, sample)
	return nil
}

var testTime = chrono.FixedImpl{Time: time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)}

func newTestCrawler(t testing.TB, site *fakeSite, opts Options, tel telemetry.API) *Crawler {
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)

	opts.Client.BaseURL = server.URL + "/Public/"
	opts.Client.RequestsPerSecond = 1000
	opts.Client.Burst = 1000
	opts.Time = testTime
	crawler, err := NewCrawler(opts, tel)
	require.NoError(t, err)
	return crawler
}

var lectureSection = catalog.Section{
	StartTimes:   []string{"10:30"},
	EndTimes:     []string{"12:15"},
	Days:         []int{1},
	Locations:    []string{"LSB LT1"},
	Instructors:  []string{"Professor CHAN Tai Man"},
	MeetingDates: []string{"Sep 5, 2022", "Sep 19, 2022"},
}

var tutorialSection = catalog.Section{
	StartTimes:   []string{"09:30"},
	EndTimes:     []string{"10:15"},
	Days:         []int{5},
	Locations:    []string{"MMW 702"},
	Instructors:  []string{"Mr. LEE"},
	MeetingDates: []string{"Jan 13, 2023"},
}

func expectedCourse(code, title string) catalog.Course {
	return catalog.Course{
		Code:          code,
		Title:         title,
		Career:        "Undergraduate",
		Units:         "3.00",
		Grading:       "Graded",
		Components:    "Lecture Tutorial",
		Campus:        "Main Campus",
		AcademicGroup: "Faculty of Engineering",
		Requirements:  "Not for students who have taken CSCI1120;For Major students",
		Description:   "About " + title + ".\nSecond line.",
		Terms: catalog.Terms{
			"2022-23 Term 1": {"-T01-TUT (5678)": tutorialSection},
			"2022-23 Term 2": {"--LEC (1234)": lectureSection},
		},
	}
}

func expectedCSCI() []catalog.Course {
	java := expectedCourse("1130", "Introduction to Computing Using Java")
	java.Outcome = "Write programs.\nDebug them."
	java.Syllabus = "Java basics"
	java.RequiredReadings = "None"
	java.RecommendedReadings = "Big Java"
	java.Assessments = map[string]string{
		"Assignments": "40%",
		"Examination": "60%",
	}

	return []catalog.Course{
		java,
		// the outcome sub-page failed, only its fields are blank
		expectedCourse("2100", "Data Structures"),
		{Code: "9999", Title: "Broken Course"},
	}
}

func TestSubject(t *testing.T) {
	site := newFakeSite()
	tel := &telemetry.Recorder{}
	automatic := &scriptedSolver{answers: []string{"wrong", "wrong", testAnswer}}
	samples := &memorySamples{}
	crawler := newTestCrawler(t, site, Options{
		Automatic: automatic,
		Samples:   samples,
	}, tel)

	courses, err := crawler.Subject(context.Background(), "CSCI", false)
	require.NoError(t, err)

	diff := cmp.Diff(expectedCSCI(), courses)
	if diff != "" {
		t.Fatal(diff)
	}
	for _, course := range courses {
		for _, sections := range course.Terms {
			for code, section := range sections {
				require.True(t, section.Consistent(), code)
			}
		}
	}

	require.Equal(t, 3, automatic.calls)
	require.Equal(t, 3, site.searches)
	require.Equal(t, 1, site.maxInflight)
	require.Equal(t, []string{
		"rejected",
		"rejected",
		"search:CSCI",
		"row:1130",
		"term:1130:2210",
		"term:1130:2230",
		"outcome:1130",
		"row:2100",
		"term:2100:2210",
		"term:2100:2230",
		"outcome:2100",
		"row:9999",
	}, site.events)

	// the accepted challenge was the one served with the second rejection
	require.Equal(t, []captcha.Sample{{
		Text:  testAnswer,
		Image: []byte("image-challenge-3"),
		Time:  testTime.Time,
	}}, samples.saved)

	require.Empty(t, tel.Reports(telemetry.REPORT_WARNING, "policy.escalate"))
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_detail_scalars), 1)
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, report_detail_outcome), 1)
}

func TestSubjectPartialOutcome(t *testing.T) {
	tel := &telemetry.Recorder{}
	crawler := newTestCrawler(t, newFakeSite(), Options{
		Automatic: &scriptedSolver{answers: []string{testAnswer}},
	}, tel)

	courses, err := crawler.Subject(context.Background(), "MATH", false)
	require.NoError(t, err)

	expected := expectedCourse("1010", "Calculus")
	expected.Outcome = "Write programs.\nDebug them."
	expected.RequiredReadings = "None"
	expected.RecommendedReadings = "Big Java"
	expected.Assessments = map[string]string{
		"Assignments": "40%",
		"Examination": "60%",
	}
	diff := cmp.Diff([]catalog.Course{expected}, courses)
	if diff != "" {
		t.Fatal(diff)
	}

	warnings := tel.Reports(telemetry.REPORT_WARNING, report_detail_outcome)
	require.Len(t, warnings, 1)
	require.Equal(t, FieldParseError{Field: "#uc_course_outcome_lbl_course_syllabus"}, warnings[0].Params[0])
}

func TestSubjectEscalatesOnce(t *testing.T) {
	site := newFakeSite()
	tel := &telemetry.Recorder{}
	automatic := &scriptedSolver{answers: []string{"wrong"}}
	human := &scriptedSolver{answers: []string{"nope", testAnswer}}
	crawler := newTestCrawler(t, site, Options{
		Automatic:      automatic,
		Interactive:    human,
		AutomaticLimit: 2,
	}, tel)

	courses, err := crawler.Subject(context.Background(), "CSCI", false)
	require.NoError(t, err)
	require.Len(t, courses, 3)

	require.Equal(t, 3, automatic.calls)
	require.Equal(t, 2, human.calls)
	require.Equal(t, 5, site.searches)
	require.Len(t, tel.Reports(telemetry.REPORT_WARNING, "policy.escalate"), 1)

	// the accepted submission reset the counter
	counts := tel.Reports(telemetry.REPORT_COUNT, "policy.evaluate")
	require.EqualValues(t, 0, counts[len(counts)-1].Count)
}

func TestSubjectManual(t *testing.T) {
	site := newFakeSite()
	automatic := &scriptedSolver{answers: []string{testAnswer}}
	human := &scriptedSolver{answers: []string{testAnswer}}
	crawler := newTestCrawler(t, site, Options{
		Automatic:   automatic,
		Interactive: human,
	}, &telemetry.Recorder{})

	_, err := crawler.Subject(context.Background(), "CSCI", true)
	require.NoError(t, err)
	require.Equal(t, 0, automatic.calls)
	require.Equal(t, 1, human.calls)

	unattended := newTestCrawler(t, newFakeSite(), Options{Automatic: automatic}, &telemetry.Recorder{})
	_, err = unattended.Subject(context.Background(), "CSCI", true)
	require.ErrorIs(t, err, captcha.ErrNoHuman)
}

func TestSubjects(t *testing.T) {
	crawler := newTestCrawler(t, newFakeSite(), Options{
		Automatic: &scriptedSolver{answers: []string{testAnswer}},
	}, &telemetry.Recorder{})

	subjects, err := crawler.Subjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"AAAA", "BAD", "CSCI"}, subjects)
}

func writeCourses(t testing.TB, path string, courses []catalog.Course) {
	contents, err := json.Marshal(courses)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, contents, 0644))
}

func TestCrawl(t *testing.T) {
	root := t.TempDir()
	mergeRoot := t.TempDir()

	// AAAA is already done and must be skipped
	writeCourses(t, filepath.Join(root, catalog.CoursesDir, "AAAA.json"), []catalog.Course{{Code: "1000", Title: "Done"}})
	writeCourses(t, filepath.Join(mergeRoot, catalog.CoursesDir, "CSCI.json"), []catalog.Course{
		{Code: "0001", Title: "Retired Course"},
		{Code: "1130", Title: "Old Title"},
	})
	instructors, err := json.Marshal([]string{"Dr. OLD"})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(mergeRoot, catalog.ResourcesDir), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(mergeRoot, catalog.ResourcesDir, catalog.InstructorsFile), instructors, 0644))

	site := newFakeSite()
	tel := &telemetry.Recorder{}
	crawler := newTestCrawler(t, site, Options{
		Automatic: &scriptedSolver{answers: []string{testAnswer}},
	}, tel)
	store := catalog.NewStore(root, mergeRoot, tel)

	result, err := crawler.Crawl(context.Background(), CrawlOptions{
		SkipParsed: true,
		Store:      store,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"AAAA"}, result.Skipped)
	require.Equal(t, []string{"CSCI"}, result.Crawled)
	require.Contains(t, result.Failed, "BAD")
	require.Len(t, result.Failed, 1)
	require.Equal(t, 4, result.Courses)

	saved, err := store.Load("CSCI")
	require.NoError(t, err)
	expected := append(expectedCSCI(), catalog.Course{Code: "0001", Title: "Retired Course"})
	diff := cmp.Diff(expected, saved)
	if diff != "" {
		t.Fatal(diff)
	}

	names, err := store.Instructors()
	require.NoError(t, err)
	require.Equal(t, []string{"Dr. OLD", "Mr. LEE", "Professor CHAN Tai Man"}, names)

	require.NotContains(t, site.events, "search:AAAA")
	require.Len(t, tel.Reports(telemetry.REPORT_BROKEN, report_crawler_crawl), 1)
}

var retryingClient = ClientOptions{
	RetryCount:   2,
	RetryWait:    time.Millisecond,
	RetryMaxWait: time.Millisecond * 5,
}

func TestSubjectRetriesUnavailableSite(t *testing.T) {
	site := newFakeSite()
	site.unavailable = 2
	automatic := &scriptedSolver{answers: []string{testAnswer}}
	crawler := newTestCrawler(t, site, Options{
		Client:    retryingClient,
		Automatic: automatic,
	}, &telemetry.Recorder{})

	courses, err := crawler.Subject(context.Background(), "CSCI", false)
	require.NoError(t, err)
	diff := cmp.Diff(expectedCSCI(), courses)
	if diff != "" {
		t.Fatal(diff)
	}

	// the retried search echoed the same state and answer, the captcha was not solved again
	require.Equal(t, 1, automatic.calls)
	require.Equal(t, 1, site.searches)
	require.Equal(t, []string{
		"unavailable",
		"unavailable",
		"search:CSCI",
		"row:1130",
		"term:1130:2210",
		"term:1130:2230",
		"outcome:1130",
		"row:2100",
		"term:2100:2210",
		"term:2100:2230",
		"outcome:2100",
		"row:9999",
	}, site.events)
}

func TestCrawlContinuesAfterExhaustedRetries(t *testing.T) {
	site := newFakeSite()
	site.down = map[string]bool{"AAAA": true}
	tel := &telemetry.Recorder{}
	crawler := newTestCrawler(t, site, Options{
		Client:    retryingClient,
		Automatic: &scriptedSolver{answers: []string{testAnswer}},
	}, tel)

	result, err := crawler.Crawl(context.Background(), CrawlOptions{
		Subjects: []string{"AAAA", "CSCI"},
		Store:    catalog.NewStore(t.TempDir(), "", tel),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"CSCI"}, result.Crawled)
	require.Len(t, result.Failed, 1)
	require.ErrorContains(t, result.Failed["AAAA"], "503")
	require.Equal(t, 3, result.Courses)

	// one attempt plus two retries
	require.Equal(t, []string{"unavailable", "unavailable", "unavailable", "search:CSCI"}, site.events[:4])
}

func TestCrawlStopsWithoutHuman(t *testing.T) {
	site := newFakeSite()
	crawler := newTestCrawler(t, site, Options{
		Automatic:      &scriptedSolver{answers: []string{"wrong"}},
		AutomaticLimit: 1,
	}, &telemetry.Recorder{})

	result, err := crawler.Crawl(context.Background(), CrawlOptions{
		Subjects: []string{"CSCI", "AAAA"},
		Store:    catalog.NewStore(t.TempDir(), "", &telemetry.Recorder{}),
	})
	require.ErrorIs(t, err, captcha.ErrNoHuman)
	require.Empty(t, result.Crawled)
	require.Equal(t, 2, site.searches)
}

func TestRowTarget(t *testing.T) {
	testCases := []struct {
		row      int
		expected string
	}{
		{row: 0, expected: "gv_detail$ctl02$lbtn_course_title"},
		{row: 7, expected: "gv_detail$ctl09$lbtn_course_title"},
		{row: 8, expected: "gv_detail$ctl10$lbtn_course_title"},
		{row: 120, expected: "gv_detail$ctl122$lbtn_course_title"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, RowTarget(test.row))
	}
}
