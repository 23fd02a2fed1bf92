// Package samples keeps captchas the server accepted together with their text, they are
// training data for the OCR model.
package samples

import (
	"catalog-scraper/internal/captcha"
	"catalog-scraper/internal/captcha/samples/db"
	"catalog-scraper/pkg/migrations"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrEmptyText = errors.New("sample has no text")

// sampleText is the part of a file name a sample's text may contribute.
func sampleText(sample captcha.Sample) (string, error) {
	text := strings.TrimSpace(sample.Text)
	if text == "" {
		return "", ErrEmptyText
	}
	text = filepath.Base(text)
	if text == "." || text == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrEmptyText, sample.Text)
	}
	return text, nil
}

// DirStore writes each sample to `<dir>/<text>_<unix seconds><ext>`. Samples with the same
// text in the same second get a `_<n>` suffix.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (DirStore, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return DirStore{}, fmt.Errorf("create sample dir: %w", err)
	}
	return DirStore{dir: dir}, nil
}

func (s DirStore) Save(ctx context.Context, sample captcha.Sample) error {
	text, err := sampleText(sample)
	if err != nil {
		return err
	}
	_, ext := captcha.ImageType(sample.Image)
	prefix := fmt.Sprintf("%s_%d", text, sample.Time.Unix())

	for n := 0; ; n++ {
		name := prefix + ext
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", prefix, n, ext)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
		_, err = f.Write(sample.Image)
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
		return nil
	}
}

// SQLiteStore inserts each sample as a row.
type SQLiteStore struct {
	db  *sql.DB
	qry *db.Queries
}

func NewSQLiteStore(database *sql.DB) SQLiteStore {
	return SQLiteStore{
		db:  database,
		qry: db.New(database),
	}
}

// OpenSQLiteStore opens (and creates if needed) the sample database at `path`.
func OpenSQLiteStore(path string) (SQLiteStore, error) {
	database, err := migrations.OpenAndApply(db.Schema, path)
	if err != nil {
		return SQLiteStore{}, err
	}
	return NewSQLiteStore(database), nil
}

func (s SQLiteStore) Save(ctx context.Context, sample captcha.Sample) error {
	if strings.TrimSpace(sample.Text) == "" {
		return ErrEmptyText
	}
	mime, _ := captcha.ImageType(sample.Image)
	err := s.qry.CreateSample(ctx, db.CreateSampleParams{
		Text:      sample.Text,
		Image:     sample.Image,
		Mime:      mime,
		CreatedAt: sample.Time.Unix(),
	})
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (s SQLiteStore) Count(ctx context.Context) (int64, error) {
	return s.qry.CountSamples(ctx)
}

func (s SQLiteStore) Close() error {
	return s.db.Close()
}
