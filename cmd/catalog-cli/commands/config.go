package commands

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/captcha/samples"
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/components/telemetry"
	"catalog-scraper/internal/crawler"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

type HttpConfig struct {
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	RetryCount        int     `json:"retry_count"`
	RetryWaitMs       int     `json:"retry_wait_ms"`
	RetryMaxWaitMs    int     `json:"retry_max_wait_ms"`
	UserAgent         string  `json:"user_agent"`
	// DumpDir receives a text dump of every request when set.
	DumpDir string `json:"dump_dir"`
}

type SamplesConfig struct {
	// Kind is "dir", "sqlite" or empty to not keep samples.
	Kind string `json:"kind"`
	Dir  string `json:"dir"`
	DB   string `json:"db"`
}

type CaptchaConfig struct {
	// Mode is "automatic" or "manual".
	Mode            string        `json:"mode"`
	MaxAutoAttempts int           `json:"max_auto_attempts"`
	OcrUrl          string        `json:"ocr_url"`
	ViewerCommand   string        `json:"viewer_command"`
	ImageDir        string        `json:"image_dir"`
	Samples         SamplesConfig `json:"samples"`
}

type Config struct {
	BaseUrl       string `json:"base_url"`
	CatalogPath   string `json:"catalog_path"`
	CaptchaPath   string `json:"captcha_path"`
	CaptchaLength int    `json:"captcha_length"`

	OutputDir string `json:"output_dir"`
	MergeDir  string `json:"merge_dir"`
	// Timestamp names the output directory, empty means the current time.
	Timestamp string `json:"timestamp"`

	Http        HttpConfig          `json:"http"`
	Captcha     CaptchaConfig       `json:"captcha"`
	Log         telemetry.LogConfig `json:"log"`
	MetricsAddr string              `json:"metrics_addr"`
	Telemetry   telemetry.Config    `json:"telemetry"`
}

var defaultConfig = Config{
	BaseUrl:       crawler.DefaultBaseURL,
	CatalogPath:   crawler.DefaultCatalogPath,
	CaptchaPath:   crawler.DefaultCaptchaPath,
	CaptchaLength: 4,
	OutputDir:     "data",
	MergeDir:      "../data",
	Http: HttpConfig{
		TimeoutSeconds:    30,
		RequestsPerSecond: 2,
		Burst:             2,
		RetryCount:        3,
		RetryWaitMs:       1000,
		RetryMaxWaitMs:    20000,
		UserAgent:         crawler.DefaultUserAgent,
	},
	Captcha: CaptchaConfig{
		Mode:            "automatic",
		MaxAutoAttempts: captcha.DefaultAutomaticLimit,
		ImageDir:        "captchas/current",
		Samples: SamplesConfig{
			Dir: "captchas",
			DB:  "captchas/samples.db",
		},
	},
}

const timestampLayout = "20060102-150405"

// outputRoot is the directory this run writes into.
func (c Config) outputRoot(clock chrono.API) string {
	timestamp := c.Timestamp
	if timestamp == "" {
		timestamp = clock.Now().Format(timestampLayout)
	}
	return filepath.Join(c.OutputDir, timestamp)
}

func (c Config) clientOptions() (crawler.ClientOptions, error) {
	opts := crawler.ClientOptions{
		BaseURL:           c.BaseUrl,
		CatalogPath:       c.CatalogPath,
		CaptchaPath:       c.CaptchaPath,
		CaptchaLength:     c.CaptchaLength,
		UserAgent:         c.Http.UserAgent,
		Timeout:           time.Duration(c.Http.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.Http.RequestsPerSecond,
		Burst:             c.Http.Burst,
		RetryCount:        c.Http.RetryCount,
		RetryWait:         time.Duration(c.Http.RetryWaitMs) * time.Millisecond,
		RetryMaxWait:      time.Duration(c.Http.RetryMaxWaitMs) * time.Millisecond,
	}
	if c.Http.DumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(c.Http.DumpDir)
		if err != nil {
			return opts, fmt.Errorf("create dump dir: %w", err)
		}
		opts.Dump = output
	}
	return opts, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// sampleStore opens the configured sample store, nil when samples are not kept.
func (c Config) sampleStore() (captcha.SampleStore, io.Closer, error) {
	switch c.Captcha.Samples.Kind {
	case "":
		return nil, nopCloser{}, nil
	case "dir":
		store, err := samples.NewDirStore(c.Captcha.Samples.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case "sqlite":
		store, err := samples.OpenSQLiteStore(c.Captcha.Samples.DB)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("unknown sample store kind %q", c.Captcha.Samples.Kind)
}

type crawlerSetup struct {
	crawler *crawler.Crawler
	closer  io.Closer
}

// newCrawler builds a crawler from the config. Without `human` no captcha is ever shown to
// a person, the crawl then stops once automatic attempts are exhausted.
func (c Config) newCrawler(clock chrono.API, tel telemetry.API, human bool) (crawlerSetup, error) {
	clientOpts, err := c.clientOptions()
	if err != nil {
		return crawlerSetup{}, err
	}
	store, closer, err := c.sampleStore()
	if err != nil {
		return crawlerSetup{}, fmt.Errorf("open sample store: %w", err)
	}

	opts := crawler.Options{
		Client:         clientOpts,
		AutomaticLimit: c.Captcha.MaxAutoAttempts,
		Samples:        store,
		Time:           clock,
	}
	if c.Captcha.OcrUrl != "" {
		opts.Automatic = captcha.NewOCRSolver(captcha.OCROptions{
			Endpoint: c.Captcha.OcrUrl,
			Length:   c.CaptchaLength,
		}, tel)
	}
	if human {
		opts.Interactive = captcha.NewInteractiveSolver(captcha.InteractiveOptions{
			Dir:    c.Captcha.ImageDir,
			Viewer: c.Captcha.ViewerCommand,
		})
	}

	client, err := crawler.NewCrawler(opts, tel)
	if err != nil {
		closer.Close()
		return crawlerSetup{}, err
	}
	return crawlerSetup{crawler: client, closer: closer}, nil
}

func (c Config) newStore(root string, tel telemetry.API) catalog.Store {
	return catalog.NewStore(root, c.MergeDir, tel)
}
