// Package crawler drives the course catalog site: it discovers subjects, solves the search
// captcha, walks every result row and extracts course details.
//
// The site keeps its session in view-state that every response replaces, so a Crawler issues
// one request at a time. Concurrent calls on the same Crawler are serialized.
package crawler

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/assert"
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/internal/schedule"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_crawler_subjects = "crawler.subjects"
	report_crawler_crawl    = "crawler.crawl"
	report_crawler_skip     = "crawler.skip"
	report_crawler_save     = "crawler.save"
)

type Options struct {
	Client ClientOptions

	Automatic captcha.Solver
	// Interactive may be nil for unattended crawls.
	Interactive captcha.Solver
	// AutomaticLimit defaults to captcha.DefaultAutomaticLimit.
	AutomaticLimit int
	// Samples may be nil.
	Samples captcha.SampleStore
	Time    chrono.API
}

type Crawler struct {
	client *client
	parser schedule.Parser
	tracer trace.Tracer
	opts   Options
	tel    telemetry.API

	mutex sync.Mutex
}

func NewCrawler(opts Options, tel telemetry.API) (*Crawler, error) {
	assert.NotNil(tel)
	assert.NotNil(opts.Time)
	if opts.Automatic == nil && opts.Interactive == nil {
		return nil, fmt.Errorf("crawler: no captcha solver configured")
	}

	tel = telemetry.NewScopedAPI("crawler", tel)
	client, err := newClient(opts.Client, tel)
	if err != nil {
		return nil, err
	}
	return &Crawler{
		client: client,
		parser: schedule.NewParser(tel),
		tracer: otel.Tracer("catalog-scraper/crawler"),
		opts:   opts,
		tel:    tel,
	}, nil
}

// Subjects lists the subject codes offered by the search form.
func (c *Crawler) Subjects(ctx context.Context) ([]string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	doc, err := c.client.Page(ctx)
	if err != nil {
		return nil, err
	}

	var subjects []string
	options := doc.Find(SubjectOptionsSelector)
	// the first option is the "select a subject" placeholder
	for i := 1; i < options.Length(); i++ {
		value := options.Eq(i).AttrOr("value", "")
		if value != "" {
			subjects = append(subjects, value)
		}
	}
	c.tel.ReportCount(report_crawler_subjects, int64(len(subjects)))
	return subjects, nil
}

func (c *Crawler) policy(manual bool) (*captcha.Policy, error) {
	if manual && c.opts.Interactive == nil {
		return nil, fmt.Errorf("manual mode: %w", captcha.ErrNoHuman)
	}
	if !manual && c.opts.Automatic == nil {
		// only a human is configured
		manual = true
	}
	return captcha.NewPolicy(captcha.PolicyOptions{
		Automatic:        c.opts.Automatic,
		Interactive:      c.opts.Interactive,
		Limit:            c.opts.AutomaticLimit,
		StartInteractive: manual,
		Samples:          c.opts.Samples,
		Time:             c.opts.Time,
	}, c.tel), nil
}

// Subject crawls every course of `subject` with a fresh captcha policy. With `manual` every
// captcha is answered by the interactive solver.
func (c *Crawler) Subject(ctx context.Context, subject string, manual bool) ([]catalog.Course, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ctx, span := c.tracer.Start(ctx, "crawl subject", trace.WithAttributes(
		attribute.String("subject", subject),
	))
	defer span.End()

	policy, err := c.policy(manual)
	if err != nil {
		return nil, err
	}
	sc := &subjectCrawler{
		client:  c.client,
		policy:  policy,
		subject: subject,
		tel:     c.tel,
		detail: detailExtractor{
			client: c.client,
			parser: c.parser,
			tel:    c.tel,
		},
	}
	courses, err := sc.Run(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("courses", len(courses)),
		attribute.Int("captcha.escalations", policy.Escalations()),
	)
	return courses, nil
}

type CrawlOptions struct {
	// Subjects defaults to every subject the search form offers.
	Subjects []string
	// SkipParsed skips subjects the store already has a file for.
	SkipParsed bool
	Manual     bool
	Store      catalog.Store
}

type CrawlResult struct {
	Crawled []string
	Skipped []string
	Failed  map[string]error
	// Courses is the number of courses written, merged entries included.
	Courses int
}

// stopsCrawl reports whether a subject's failure should end the whole crawl.
func stopsCrawl(ctx context.Context, err error) bool {
	return errors.Is(err, captcha.ErrNoHuman) || ctx.Err() != nil
}

// Crawl crawls, merges and saves subjects one after another. A failing subject is reported
// and skipped, only a missing human, a cancelled context or a storage failure stop the crawl.
func (c *Crawler) Crawl(ctx context.Context, opts CrawlOptions) (CrawlResult, error) {
	result := CrawlResult{Failed: map[string]error{}}

	subjects := opts.Subjects
	if len(subjects) == 0 {
		var err error
		subjects, err = c.Subjects(ctx)
		if err != nil {
			return result, fmt.Errorf("discover subjects: %w", err)
		}
	}

	parsed := map[string]bool{}
	if opts.SkipParsed {
		var err error
		parsed, err = opts.Store.Parsed()
		if err != nil {
			return result, err
		}
	}

	for i, subject := range subjects {
		if parsed[subject] {
			c.tel.ReportDebug(report_crawler_skip, subject)
			result.Skipped = append(result.Skipped, subject)
			continue
		}
		c.tel.ReportDebug(report_crawler_crawl, subject, i+1, len(subjects))

		courses, err := c.Subject(ctx, subject, opts.Manual)
		if err != nil {
			if stopsCrawl(ctx, err) {
				return result, err
			}
			c.tel.ReportBroken(report_crawler_crawl, err, subject)
			result.Failed[subject] = err
			continue
		}

		saved, err := opts.Store.Save(subject, courses)
		if err != nil {
			c.tel.ReportBroken(report_crawler_save, err, subject)
			return result, err
		}
		err = opts.Store.AddInstructors(courses)
		if err != nil {
			c.tel.ReportBroken(report_crawler_save, err, subject)
		}
		c.tel.ReportCount(report_crawler_save, int64(len(saved)))

		result.Crawled = append(result.Crawled, subject)
		result.Courses += len(saved)
	}
	return result, nil
}
