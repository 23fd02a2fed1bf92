package catalog

import (
	"catalog-scraper/internal/components/telemetry"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func codes(courses []Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Code
	}
	return out
}

func TestMerge(t *testing.T) {
	old := []Course{
		{Code: "A", Title: "old a"},
		{Code: "B", Title: "old b"},
		{Code: "C", Title: "old c"},
	}
	fresh := []Course{
		{Code: "D", Title: "new d"},
		{Code: "A", Title: "new a"},
	}

	merged := Merge(fresh, old)
	expected := []Course{
		{Code: "A", Title: "new a"},
		{Code: "D", Title: "new d"},
		{Code: "B", Title: "old b"},
		{Code: "C", Title: "old c"},
	}
	diff := cmp.Diff(expected, merged)
	if diff != "" {
		t.Fatal(diff)
	}

	testCases := []struct {
		name     string
		fresh    []Course
		old      []Course
		expected []string
	}{
		{name: "no snapshot", fresh: fresh, old: nil, expected: []string{"A", "D"}},
		{name: "nothing scraped", fresh: nil, old: old, expected: []string{"A", "B", "C"}},
		{
			name:     "duplicate fresh codes",
			fresh:    []Course{{Code: "B", Title: "first"}, {Code: "B", Title: "second"}},
			old:      old,
			expected: []string{"B", "A", "C"},
		},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, codes(Merge(test.fresh, test.old)), test.name)
	}

	dup := Merge([]Course{{Code: "B", Title: "first"}, {Code: "B", Title: "second"}}, old)
	require.Equal(t, "first", dup[0].Title)
}

func TestStore(t *testing.T) {
	tel := &telemetry.Recorder{}
	mergeRoot := t.TempDir()
	root := filepath.Join(t.TempDir(), "20221001-120000")

	err := writeJSON(subjectFile(mergeRoot, "CSCI"), []Course{
		{Code: "CSCI1000", Title: "old"},
		{Code: "CSCI9999", Title: "retired"},
	})
	require.NoError(t, err)
	err = writeJSON(filepath.Join(mergeRoot, ResourcesDir, InstructorsFile), []string{"Professor WONG"})
	require.NoError(t, err)

	store := NewStore(root, mergeRoot, tel)

	parsed, err := store.Parsed()
	require.NoError(t, err)
	require.Empty(t, parsed)

	fresh := []Course{
		{
			Code:  "CSCI1130",
			Title: "Java",
			Terms: Terms{"2022-23 Term 1": {"--LEC (1)": {
				Days:        []int{1},
				StartTimes:  []string{"10:30"},
				EndTimes:    []string{"12:15"},
				Locations:   []string{"LSB LT1"},
				Instructors: []string{"Professor CHAN"},
			}}},
		},
		{Code: "CSCI1000", Title: "new"},
	}
	saved, err := store.Save("CSCI", fresh)
	require.NoError(t, err)
	require.Equal(t, []string{"CSCI1000", "CSCI1130", "CSCI9999"}, codes(saved))

	loaded, err := store.Load("CSCI")
	require.NoError(t, err)
	diff := cmp.Diff(saved, loaded)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "new", loaded[0].Title)

	parsed, err = store.Parsed()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"CSCI": true}, parsed)

	err = store.AddInstructors(fresh)
	require.NoError(t, err)
	instructors, err := store.Instructors()
	require.NoError(t, err)
	require.Equal(t, []string{"Professor CHAN", "Professor WONG"}, instructors)

	_, err = store.Save("MATH", []Course{{Code: "MATH1010"}})
	require.NoError(t, err)
	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Len(t, all["MATH"], 1)

	_, err = store.Load("PHYS")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreBrokenSnapshot(t *testing.T) {
	tel := &telemetry.Recorder{}
	mergeRoot := t.TempDir()
	err := os.MkdirAll(filepath.Join(mergeRoot, CoursesDir), 0777)
	require.NoError(t, err)
	err = os.WriteFile(subjectFile(mergeRoot, "CSCI"), []byte("{not json"), 0600)
	require.NoError(t, err)

	store := NewStore(t.TempDir(), mergeRoot, tel)
	saved, err := store.Save("CSCI", []Course{{Code: "CSCI1130"}})
	require.NoError(t, err)
	require.Equal(t, []string{"CSCI1130"}, codes(saved))
	require.Len(t, tel.Reports(telemetry.REPORT_BROKEN, report_store_load_snapshot), 1)
}
