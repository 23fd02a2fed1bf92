// Package captcha solves the image captcha that gates every catalog search.
//
// No solver can tell whether its answer is right. The crawler submits the answer and the server's
// response decides, so solving is a two phase protocol: Policy.Attempt produces a candidate and
// Policy.Evaluate is told afterwards whether the submission was accepted.
package captcha

import (
	"context"
	"errors"
	"time"
)

// Solver turns a captcha image into the text it shows.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

type Mode int

const (
	MODE_AUTOMATIC Mode = iota
	MODE_INTERACTIVE
)

func (m Mode) String() string {
	switch m {
	case MODE_AUTOMATIC:
		return "automatic"
	case MODE_INTERACTIVE:
		return "interactive"
	}
	return "unknown"
}

// Challenge is one captcha as served by the site.
type Challenge struct {
	ID    string
	Image []byte
}

// Attempt is a candidate answer to a challenge, it is not known to be correct.
type Attempt struct {
	Challenge Challenge
	Text      string
	Mode      Mode
}

type Verdict int

const (
	REJECTED Verdict = iota
	ACCEPTED
)

func (v Verdict) String() string {
	if v == ACCEPTED {
		return "accepted"
	}
	return "rejected"
}

// VerdictOf converts the crawler's observation of the response into a Verdict.
func VerdictOf(accepted bool) Verdict {
	if accepted {
		return ACCEPTED
	}
	return REJECTED
}

// Sample is an image labeled with the text the server accepted for it.
type Sample struct {
	Text  string
	Image []byte
	Time  time.Time
}

// SampleStore collects labeled samples, each Save is independent of the others.
type SampleStore interface {
	Save(ctx context.Context, sample Sample) error
}

// ErrNoHuman is returned once automatic solving has been exhausted and there is no
// interactive solver to escalate to.
var ErrNoHuman = errors.New("captcha: automatic attempts exhausted and no interactive solver is available")
