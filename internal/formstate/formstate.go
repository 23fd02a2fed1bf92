// Package formstate tracks the hidden view-state fields that the catalog's web forms
// embed in every response and expect to be echoed back on the next submission.
package formstate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	FieldCount       = "__VIEWSTATEFIELDCOUNT"
	EventValidation  = "__EVENTVALIDATION"
	ViewStateGen     = "__VIEWSTATEGENERATOR"
	ViewState        = "__VIEWSTATE"
	ChallengeIDField = "hf_Captcha"

	// keys only needed by the course outcome sub-page
	CourseOfferNbr = "hf_course_offer_nbr"
	CourseID       = "hf_course_id"
)

// MissingFieldError means the page did not carry a field a follow-up submission needs,
// which usually means the server answered with an error page.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing form field %q", e.Field)
}

// State is an immutable snapshot of one page's view-state. The zero value is an empty state.
//
// A new State is extracted from every response and replaces the previous one as a whole,
// fields are never carried over from an older page.
type State struct {
	fields      map[string]string
	order       []string
	challengeID string
}

// elementID is the id ASP.NET gives the hidden input behind a form key.
func elementID(key string) string {
	return strings.ReplaceAll(key, "$", "_")
}

func hiddenValue(doc *goquery.Selection, key string) (string, bool) {
	return doc.Find("#" + elementID(key)).First().Attr("value")
}

// Extract reads the view-state of `doc`: the field count, the fixed fields, every numbered
// state blob and any `extraKeys` the caller needs. All of them are required.
//
// The captcha challenge id is read as well when the page carries one.
func Extract(doc *goquery.Selection, extraKeys ...string) (State, error) {
	countText, ok := hiddenValue(doc, FieldCount)
	if !ok {
		return State{}, MissingFieldError{Field: FieldCount}
	}
	count, err := strconv.Atoi(strings.TrimSpace(countText))
	if err != nil || count < 1 {
		return State{}, fmt.Errorf("invalid %s %q", FieldCount, countText)
	}

	keys := []string{EventValidation, ViewStateGen, ViewState}
	for i := 1; i < count; i++ {
		keys = append(keys, fmt.Sprintf("%s%d", ViewState, i))
	}
	keys = append(keys, extraKeys...)

	state := State{
		fields: map[string]string{FieldCount: countText},
		order:  []string{FieldCount},
	}
	for _, key := range keys {
		value, ok := hiddenValue(doc, key)
		if !ok {
			return State{}, MissingFieldError{Field: key}
		}
		if _, dup := state.fields[key]; !dup {
			state.order = append(state.order, key)
		}
		state.fields[key] = value
	}

	if id, ok := hiddenValue(doc, ChallengeIDField); ok {
		state.challengeID = id
	}

	return state, nil
}

// IsZero reports whether the state has never been extracted.
func (s State) IsZero() bool {
	return len(s.fields) == 0
}

// ChallengeID is the captcha challenge the page was rendered with, empty if it had none.
func (s State) ChallengeID() string {
	return s.challengeID
}

// Len is the number of view-state fields held.
func (s State) Len() int {
	return len(s.fields)
}

// Form renders the request body of a submission: the view-state fields followed by
// `params`, which take precedence over view-state fields of the same name.
func (s State) Form(params ...map[string]string) map[string]string {
	out := make(map[string]string, len(s.fields)+8)
	for k, v := range s.fields {
		out[k] = v
	}
	for _, p := range params {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// Keys returns the view-state field names in extraction order.
func (s State) Keys() []string {
	return append([]string(nil), s.order...)
}
