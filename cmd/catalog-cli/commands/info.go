package commands

import (
	"catalog-scraper/internal/catalog"
	"catalog-scraper/pkg/serviceutil"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

type subjectInfo struct {
	courses   int
	sectioned int
	terms     int
}

func summarize(courses []catalog.Course) subjectInfo {
	info := subjectInfo{courses: len(courses)}
	terms := map[string]struct{}{}
	for _, course := range courses {
		if len(course.Terms) > 0 {
			info.sectioned++
		}
		for term := range course.Terms {
			terms[term] = struct{}{}
		}
	}
	info.terms = len(terms)
	return info
}

var infoCmd = &cobra.Command{
	Use:   "info <output>/<timestamp>",
	Short: "Summarizes a crawl's output directory.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := catalog.NewStore(args[0], "", tel)
		subjects, err := store.LoadAll(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load courses", err)
		}
		instructors, err := store.Instructors()
		if err != nil {
			serviceutil.Fatal("failed to load instructors", err)
		}

		codes := make([]string, 0, len(subjects))
		for subject := range subjects {
			codes = append(codes, subject)
		}
		slices.Sort(codes)

		t := newTable()
		t.AppendHeader(table.Row{"Subject", "Courses", "With Sections", "Terms"})
		var total subjectInfo
		for _, subject := range codes {
			info := summarize(subjects[subject])
			total.courses += info.courses
			total.sectioned += info.sectioned
			t.AppendRow(table.Row{subject, info.courses, info.sectioned, info.terms})
		}
		t.AppendFooter(table.Row{"Total", total.courses, total.sectioned, ""})
		t.Render()

		t = newTable()
		t.AppendRow(table.Row{"Subjects", len(codes)})
		t.AppendRow(table.Row{"Instructors", len(instructors)})
		t.Render()
	},
}
