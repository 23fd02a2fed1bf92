package captcha

import (
	"catalog-scraper/internal/components/assert"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tcnksm/go-input"
)

// Prompter asks a human a question, *input.UI implements it.
type Prompter interface {
	Ask(query string, opts *input.Options) (string, error)
}

// ImageType sniffs the mime type of a captcha image and the file extension that goes with it.
func ImageType(image []byte) (mime, ext string) {
	mime = http.DetectContentType(image)
	switch mime {
	case "image/png":
		return mime, ".png"
	case "image/gif":
		return mime, ".gif"
	case "image/jpeg":
		return mime, ".jpg"
	case "image/bmp":
		return mime, ".bmp"
	case "image/webp":
		return mime, ".webp"
	}
	return mime, ".bin"
}

// InteractiveSolver shows the captcha to a human and waits for them to type it.
// The image is written to a file and, if a viewer command is configured, opened with it.
type InteractiveSolver struct {
	prompter Prompter
	dir      string
	viewer   []string
}

type InteractiveOptions struct {
	// Prompter defaults to input.DefaultUI().
	Prompter Prompter
	// Dir is where the image is written, defaults to the os temp dir.
	Dir string
	// Viewer is a command the image path is appended to, ex. "xdg-open" or "open -a Preview".
	Viewer string
}

func NewInteractiveSolver(opts InteractiveOptions) InteractiveSolver {
	prompter := opts.Prompter
	if prompter == nil {
		prompter = input.DefaultUI()
	}
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	assert.NotNil(prompter)

	return InteractiveSolver{
		prompter: prompter,
		dir:      dir,
		viewer:   strings.Fields(opts.Viewer),
	}
}

// openViewer starts the viewer on `path` without tying it to any request context. The
// returned channel receives the viewer's exit status once it has been reaped.
func (s InteractiveSolver) openViewer(path string) (<-chan error, error) {
	args := append(s.viewer[1:len(s.viewer):len(s.viewer)], path)
	cmd := exec.Command(s.viewer[0], args...)
	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("open viewer: %w", err)
	}
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()
	return exited, nil
}

func (s InteractiveSolver) show(image []byte) (string, error) {
	_, ext := ImageType(image)
	err := os.MkdirAll(s.dir, 0777)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, "captcha"+ext)
	err = os.WriteFile(path, image, 0644)
	if err != nil {
		return "", err
	}

	if len(s.viewer) > 0 {
		// the viewer is left running, the prompt is what blocks
		_, err = s.openViewer(path)
		if err != nil {
			return path, err
		}
	}
	return path, nil
}

func (s InteractiveSolver) Solve(ctx context.Context, image []byte) (string, error) {
	path, err := s.show(image)
	if err != nil {
		return "", fmt.Errorf("show captcha: %w", err)
	}

	text, err := s.prompter.Ask(
		fmt.Sprintf("captcha (image at %s):", path),
		&input.Options{
			Required:  true,
			Loop:      true,
			HideOrder: true,
		},
	)
	if err != nil {
		return "", fmt.Errorf("read captcha: %w", err)
	}
	return strings.TrimSpace(text), nil
}
