package captcha

import (
	"catalog-scraper/internal/components/assert"
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/components/telemetry"
	"context"
	"fmt"
)

const (
	report_policy_attempt  = "policy.attempt"
	report_policy_escalate = "policy.escalate"
	report_policy_evaluate = "policy.evaluate"
	report_policy_sample   = "policy.sample"
)

// DefaultAutomaticLimit is how many rejected automatic answers are tolerated before
// escalating to a human.
const DefaultAutomaticLimit = 16

type PolicyOptions struct {
	Automatic Solver
	// Interactive may be nil, escalation then fails with ErrNoHuman.
	Interactive Solver
	// Limit defaults to DefaultAutomaticLimit.
	Limit int
	// StartInteractive skips automatic solving entirely.
	StartInteractive bool
	// Samples may be nil to not keep accepted captchas.
	Samples SampleStore
	Time    chrono.API
}

// Policy decides which solver answers the next challenge. It is meant to live for one
// subject's crawl.
//
// Every rejected answer increments the attempt counter and an accepted one resets it. In
// automatic mode, once the counter exceeds the limit the policy switches to interactive for
// good. Interactive mode retries without bound.
type Policy struct {
	automatic   Solver
	interactive Solver
	limit       int
	samples     SampleStore
	time        chrono.API
	tel         telemetry.API

	mode        Mode
	attempts    int
	escalations int
}

func NewPolicy(opts PolicyOptions, tel telemetry.API) *Policy {
	assert.NotNil(tel)
	assert.NotNil(opts.Time)
	if opts.StartInteractive {
		assert.NotNil(opts.Interactive)
	} else {
		assert.NotNil(opts.Automatic)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultAutomaticLimit
	}
	mode := MODE_AUTOMATIC
	if opts.StartInteractive {
		mode = MODE_INTERACTIVE
	}

	return &Policy{
		automatic:   opts.Automatic,
		interactive: opts.Interactive,
		limit:       limit,
		samples:     opts.Samples,
		time:        opts.Time,
		tel:         telemetry.NewScopedAPI("captcha", tel),
		mode:        mode,
	}
}

func (p *Policy) Mode() Mode {
	return p.mode
}

// Attempts is the number of rejected answers since the last accepted one.
func (p *Policy) Attempts() int {
	return p.attempts
}

// Escalations is how many times the policy switched to interactive mode, either 0 or 1.
func (p *Policy) Escalations() int {
	return p.escalations
}

func (p *Policy) escalate() error {
	if p.mode != MODE_AUTOMATIC || p.attempts <= p.limit {
		return nil
	}
	if p.interactive == nil {
		p.tel.ReportBroken(report_policy_escalate, ErrNoHuman, p.attempts)
		return ErrNoHuman
	}
	p.mode = MODE_INTERACTIVE
	p.escalations++
	p.tel.ReportWarning(
		report_policy_escalate,
		fmt.Errorf("%d automatic answers rejected, switching to interactive", p.attempts),
	)
	return nil
}

// Attempt produces a candidate answer for `challenge` with the current solver.
func (p *Policy) Attempt(ctx context.Context, challenge Challenge) (Attempt, error) {
	err := p.escalate()
	if err != nil {
		return Attempt{}, err
	}

	solver := p.automatic
	if p.mode == MODE_INTERACTIVE {
		solver = p.interactive
	}
	text, err := solver.Solve(ctx, challenge.Image)
	if err != nil {
		p.tel.ReportBroken(report_policy_attempt, err, p.mode.String(), challenge.ID)
		return Attempt{}, fmt.Errorf("solve captcha (%s): %w", p.mode, err)
	}
	p.tel.ReportDebug(report_policy_attempt, p.mode.String(), text)

	return Attempt{
		Challenge: challenge,
		Text:      text,
		Mode:      p.mode,
	}, nil
}

// Evaluate records what the server made of `attempt`. Accepted answers are kept as
// labeled samples when a store is configured, failing to keep one is only reported.
func (p *Policy) Evaluate(ctx context.Context, attempt Attempt, verdict Verdict) {
	if verdict == REJECTED {
		p.attempts++
		p.tel.ReportWarning(report_policy_evaluate, "captcha rejected", attempt.Mode.String(), attempt.Text)
		p.tel.ReportCount(report_policy_evaluate, int64(p.attempts))
		return
	}

	p.attempts = 0
	p.tel.ReportCount(report_policy_evaluate, 0)

	if p.samples == nil {
		return
	}
	err := p.samples.Save(ctx, Sample{
		Text:  attempt.Text,
		Image: attempt.Challenge.Image,
		Time:  p.time.Now(),
	})
	if err != nil {
		p.tel.ReportBroken(report_policy_sample, err, attempt.Text)
	}
}
