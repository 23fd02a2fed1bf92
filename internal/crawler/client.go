package crawler

import (
	"bytes"
	"catalog-scraper/internal/components/assert"
	"catalog-scraper/internal/components/telemetry"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_page    = "client.page"
	report_client_submit  = "client.submit"
	report_client_captcha = "client.captcha"
)

const (
	DefaultBaseURL     = "http://rgsntl.rgs.cuhk.edu.hk/aqs_prd_applx/Public/"
	DefaultCatalogPath = "tt_dsp_crse_catalog.aspx"
	DefaultCaptchaPath = "BuildCaptcha.aspx"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type ClientOptions struct {
	BaseURL       string
	CatalogPath   string
	CaptchaPath   string
	CaptchaLength int

	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	RetryCount        int
	RetryWait         time.Duration
	RetryMaxWait      time.Duration

	// Dump receives a text rendering of every request/response pair, may be nil.
	Dump telemetry.DumpOutput
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.CatalogPath == "" {
		o.CatalogPath = DefaultCatalogPath
	}
	if o.CaptchaPath == "" {
		o.CaptchaPath = DefaultCaptchaPath
	}
	if o.CaptchaLength <= 0 {
		o.CaptchaLength = 4
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Second * 30
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.RetryCount < 0 {
		o.RetryCount = 0
	}
	if o.RetryWait <= 0 {
		o.RetryWait = time.Second
	}
	if o.RetryMaxWait <= 0 {
		o.RetryMaxWait = time.Second * 20
	}
	return o
}

// client talks to the catalog site. It holds the session cookie, nothing else about the
// session lives here, view-state is carried by the caller.
type client struct {
	http          *resty.Client
	catalogPath   string
	captchaPath   string
	captchaLength int

	tel telemetry.API
}

func newClient(opts ClientOptions, tel telemetry.API) (*client, error) {
	assert.NotNil(tel)
	opts = opts.withDefaults()

	baseUrl, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	httpClient.SetRetryCount(opts.RetryCount)
	httpClient.SetRetryWaitTime(opts.RetryWait)
	httpClient.SetRetryMaxWaitTime(opts.RetryMaxWait)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() >= 500
	})

	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)

	return &client{
		http:          httpClient,
		catalogPath:   opts.CatalogPath,
		captchaPath:   opts.CaptchaPath,
		captchaLength: opts.CaptchaLength,
		tel:           tel,
	}, nil
}

func (c *client) document(res *resty.Response) (*goquery.Document, error) {
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status %s", res.Status())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// Page fetches the blank search page.
func (c *client) Page(ctx context.Context) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.catalogPath)
	if err != nil {
		c.tel.ReportBroken(report_client_page, err)
		return nil, fmt.Errorf("get search page: %w", err)
	}
	doc, err := c.document(res)
	if err != nil {
		c.tel.ReportBroken(report_client_page, err)
		return nil, fmt.Errorf("get search page: %w", err)
	}
	return doc, nil
}

// Submit posts `form` back to the catalog page as a urlencoded form.
func (c *client) Submit(ctx context.Context, form map[string]string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(c.catalogPath)
	if err != nil {
		c.tel.ReportBroken(report_client_submit, err)
		return nil, fmt.Errorf("submit form: %w", err)
	}
	doc, err := c.document(res)
	if err != nil {
		c.tel.ReportBroken(report_client_submit, err)
		return nil, fmt.Errorf("submit form: %w", err)
	}
	return doc, nil
}

// Captcha fetches the image of challenge `id`.
func (c *client) Captcha(ctx context.Context, id string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"captchaname": id,
			"len":         fmt.Sprint(c.captchaLength),
		}).
		Get(c.captchaPath)
	if err != nil {
		c.tel.ReportBroken(report_client_captcha, err, id)
		return nil, fmt.Errorf("get captcha: %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportBroken(report_client_captcha, err, id)
		return nil, fmt.Errorf("get captcha: %w", err)
	}
	return res.Body(), nil
}
