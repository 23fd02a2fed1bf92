package formstate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func page(t testing.TB, inputs map[string]string) *goquery.Selection {
	var body strings.Builder
	body.WriteString(`<html><body><form id="form1">`)
	for id, value := range inputs {
		body.WriteString(fmt.Sprintf(`<input type="hidden" name="%s" id="%s" value="%s"/>`, id, id, value))
	}
	body.WriteString(`</form></body></html>`)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body.String()))
	require.NoError(t, err)
	return doc.Selection
}

func baseInputs() map[string]string {
	return map[string]string{
		"__VIEWSTATEFIELDCOUNT": "3",
		"__EVENTVALIDATION":     "ev",
		"__VIEWSTATEGENERATOR":  "gen",
		"__VIEWSTATE":           "vs0",
		"__VIEWSTATE1":          "vs1",
		"__VIEWSTATE2":          "vs2",
		"hf_Captcha":            "challenge-1",
		"hf_course_offer_nbr":   "1",
		"hf_course_id":          "004321",
	}
}

func TestExtract(t *testing.T) {
	state, err := Extract(page(t, baseInputs()))
	require.NoError(t, err)
	require.Equal(t, []string{
		"__VIEWSTATEFIELDCOUNT",
		"__EVENTVALIDATION",
		"__VIEWSTATEGENERATOR",
		"__VIEWSTATE",
		"__VIEWSTATE1",
		"__VIEWSTATE2",
	}, state.Keys())
	require.Equal(t, "challenge-1", state.ChallengeID())

	form := state.Form(map[string]string{"ddl_subject": "CSCI", "__VIEWSTATE": "override"})
	require.Equal(t, "CSCI", form["ddl_subject"])
	require.Equal(t, "override", form["__VIEWSTATE"])
	require.Equal(t, "vs2", form["__VIEWSTATE2"])
	_, carriesExtra := form["hf_course_id"]
	require.False(t, carriesExtra)

	detached, err := Extract(page(t, baseInputs()), CourseOfferNbr, CourseID)
	require.NoError(t, err)
	require.Equal(t, "004321", detached.Form()["hf_course_id"])
	require.Equal(t, 8, detached.Len())
}

func TestExtractMissingFields(t *testing.T) {
	testCases := []struct {
		remove   string
		extra    []string
		expected string
	}{
		{remove: "__VIEWSTATEFIELDCOUNT", expected: "__VIEWSTATEFIELDCOUNT"},
		{remove: "__EVENTVALIDATION", expected: "__EVENTVALIDATION"},
		{remove: "__VIEWSTATE2", expected: "__VIEWSTATE2"},
		{remove: "hf_course_id", extra: []string{CourseOfferNbr, CourseID}, expected: "hf_course_id"},
	}

	for _, test := range testCases {
		inputs := baseInputs()
		delete(inputs, test.remove)

		_, err := Extract(page(t, inputs), test.extra...)
		var missing MissingFieldError
		require.ErrorAs(t, err, &missing, test.remove)
		require.Equal(t, test.expected, missing.Field)
	}
}

func TestExtractReplacesState(t *testing.T) {
	first, err := Extract(page(t, baseInputs()))
	require.NoError(t, err)

	inputs := baseInputs()
	inputs["__VIEWSTATEFIELDCOUNT"] = "1"
	inputs["__VIEWSTATE"] = "fresh"
	delete(inputs, "hf_Captcha")
	second, err := Extract(page(t, inputs))
	require.NoError(t, err)

	// the numbered blobs of the first page do not leak into the second
	form := second.Form()
	_, stale := form["__VIEWSTATE1"]
	require.False(t, stale)
	require.Equal(t, "fresh", form["__VIEWSTATE"])
	require.Equal(t, "", second.ChallengeID())
	require.Equal(t, "vs0", first.Form()["__VIEWSTATE"])

	require.True(t, State{}.IsZero())
	require.False(t, second.IsZero())
}

func TestElementID(t *testing.T) {
	require.Equal(t, "uc_course_ddl_class_term", elementID("uc_course$ddl_class_term"))
}
