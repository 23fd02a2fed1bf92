package captcha

import (
	"catalog-scraper/internal/components/assert"
	"catalog-scraper/internal/components/telemetry"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const report_ocr_solve = "ocr.solve"

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrResponse struct {
	Result string `json:"result"`
}

// OCRSolver is the automatic strategy, it sends the image to an OCR inference service
// (ex. a ddddocr server) that answers with the recognized text.
//
// Answers are cached by image digest so the same bytes always produce the same text
// without asking the model again.
type OCRSolver struct {
	http     *resty.Client
	endpoint string
	length   int
	cache    *expirable.LRU[string, string]
	tel      telemetry.API
}

type OCROptions struct {
	// Endpoint receives POST {"image": "<base64>"} and answers {"result": "<text>"}.
	Endpoint string
	// Length is the expected answer length, answers of another length are returned as is
	// but reported. 0 disables the check.
	Length  int
	Timeout time.Duration
}

func NewOCRSolver(opts OCROptions, tel telemetry.API) *OCRSolver {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Endpoint)
	tel = telemetry.NewScopedAPI("captcha", tel)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Millisecond * 500)
	telemetry.InstrumentResty(client, tel, nil)

	return &OCRSolver{
		http:     client,
		endpoint: opts.Endpoint,
		length:   opts.Length,
		cache:    expirable.NewLRU[string, string](1024, nil, time.Hour),
		tel:      tel,
	}
}

// cleanAnswer drops everything the captcha alphabet never contains.
func cleanAnswer(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
}

func (s *OCRSolver) Solve(ctx context.Context, image []byte) (string, error) {
	digest := sha256.Sum256(image)
	key := hex.EncodeToString(digest[:])
	if text, ok := s.cache.Get(key); ok {
		return text, nil
	}

	var out ocrResponse
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(ocrRequest{Image: base64.StdEncoding.EncodeToString(image)}).
		SetResult(&out).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("ocr request: unexpected status %s", res.Status())
	}

	text := cleanAnswer(out.Result)
	if s.length > 0 && len(text) != s.length {
		s.tel.ReportWarning(
			report_ocr_solve,
			fmt.Errorf("expected %d characters, got %q", s.length, text),
		)
	}
	s.cache.Add(key, text)
	return text, nil
}
