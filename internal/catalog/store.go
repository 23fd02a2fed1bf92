package catalog

import (
	"catalog-scraper/internal/components/telemetry"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	report_store_load_snapshot = "store.load-snapshot"
	report_store_instructors   = "store.instructors"
)

const (
	CoursesDir      = "courses"
	ResourcesDir    = "resources"
	InstructorsFile = "instructors.json"
)

// Store persists per-subject course lists under `<root>/courses/<SUBJECT>.json` and the
// accumulated instructor list under `<root>/resources/instructors.json`. When a merge root
// is set, every save is merged with the snapshot found at the same place under it.
type Store struct {
	root      string
	mergeRoot string
	tel       telemetry.API
}

func NewStore(root, mergeRoot string, tel telemetry.API) Store {
	return Store{
		root:      root,
		mergeRoot: mergeRoot,
		tel:       telemetry.NewScopedAPI("catalog", tel),
	}
}

func (s Store) Root() string {
	return s.root
}

func subjectFile(root, subject string) string {
	return filepath.Join(root, CoursesDir, subject+".json")
}

func (s Store) SubjectPath(subject string) string {
	return subjectFile(s.root, subject)
}

// Parsed returns the subjects that already have a course file under the root, it is the crawl's
// only checkpoint.
func (s Store) Parsed() (map[string]bool, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, CoursesDir))
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list parsed subjects: %w", err)
	}

	parsed := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		parsed[strings.TrimSuffix(name, ".json")] = true
	}
	return parsed, nil
}

// Subjects returns the sorted subject codes stored under the root.
func (s Store) Subjects() ([]string, error) {
	parsed, err := s.Parsed()
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(parsed))
	for subject := range parsed {
		subjects = append(subjects, subject)
	}
	slices.Sort(subjects)
	return subjects, nil
}

// ReadCourses reads a course list file, a missing file is returned as os.ErrNotExist.
func ReadCourses(path string) ([]Course, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var courses []Course
	err = json.Unmarshal(contents, &courses)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return courses, nil
}

func (s Store) Load(subject string) ([]Course, error) {
	return ReadCourses(s.SubjectPath(subject))
}

// LoadAll reads every stored subject concurrently.
func (s Store) LoadAll(ctx context.Context) (map[string][]Course, error) {
	subjects, err := s.Subjects()
	if err != nil {
		return nil, err
	}

	var mutex sync.Mutex
	out := make(map[string][]Course, len(subjects))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for _, subject := range subjects {
		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			courses, err := s.Load(subject)
			if err != nil {
				return fmt.Errorf("load %s: %w", subject, err)
			}
			mutex.Lock()
			out[subject] = courses
			mutex.Unlock()
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// snapshot returns the previously persisted list for `subject` under the merge root,
// nil if there is none.
func (s Store) snapshot(subject string) []Course {
	if s.mergeRoot == "" {
		return nil
	}
	old, err := ReadCourses(subjectFile(s.mergeRoot, subject))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.tel.ReportBroken(report_store_load_snapshot, err, subject)
		return nil
	}
	return old
}

// Save merges `courses` with the subject's snapshot and writes the result, returning what
// was written.
func (s Store) Save(subject string, courses []Course) ([]Course, error) {
	merged := Merge(courses, s.snapshot(subject))
	err := writeJSON(s.SubjectPath(subject), merged)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", subject, err)
	}
	return merged, nil
}

func readInstructors(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names []string
	err = json.Unmarshal(contents, &names)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return names, nil
}

// Instructors returns the accumulated instructor list, falling back to the merge root's list
// when the root does not have one yet.
func (s Store) Instructors() ([]string, error) {
	names, err := readInstructors(filepath.Join(s.root, ResourcesDir, InstructorsFile))
	if err == nil {
		return names, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if s.mergeRoot == "" {
		return nil, nil
	}
	names, err = readInstructors(filepath.Join(s.mergeRoot, ResourcesDir, InstructorsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return names, err
}

// AddInstructors adds the instructors of `courses` to the accumulated list and writes it
// back sorted and deduplicated.
func (s Store) AddInstructors(courses []Course) error {
	known, err := s.Instructors()
	if err != nil {
		s.tel.ReportBroken(report_store_instructors, err)
		return fmt.Errorf("read instructors: %w", err)
	}

	set := make(map[string]struct{}, len(known))
	for _, name := range known {
		set[name] = struct{}{}
	}
	for _, course := range courses {
		for _, name := range course.Instructors() {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			set[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	slices.Sort(names)

	err = writeJSON(filepath.Join(s.root, ResourcesDir, InstructorsFile), names)
	if err != nil {
		return fmt.Errorf("write instructors: %w", err)
	}
	return nil
}

// writeJSON writes through a temporary file so an interrupted crawl never leaves a truncated
// file behind, a half-written subject file would otherwise pass as a checkpoint.
func writeJSON(path string, value any) error {
	contents, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
