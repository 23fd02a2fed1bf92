package commands

import (
	"catalog-scraper/internal/catalog"
	"catalog-scraper/internal/schedule"
	"catalog-scraper/pkg/serviceutil"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var (
	icsDir  *string
	icsTerm *string
	icsOut  *string
)

func init() {
	icsDir = icsCmd.Flags().String("dir", "", "The crawl output to read, defaults to merge_dir.")
	icsTerm = icsCmd.Flags().String("term", "", "The term to export (ex. \"2022-23 Term 1\"), may be omitted if the course has one term.")
	icsOut = icsCmd.Flags().StringP("out", "o", "", "The file to write, defaults to stdout.")
	rootCmd.AddCommand(icsCmd)
}

func findCourse(courses []catalog.Course, code string) (catalog.Course, bool) {
	for _, course := range courses {
		if strings.EqualFold(course.Code, code) {
			return course, true
		}
	}
	return catalog.Course{}, false
}

func pickTerm(course catalog.Course, term string) (string, error) {
	if term != "" {
		return term, nil
	}
	terms := make([]string, 0, len(course.Terms))
	for name := range course.Terms {
		terms = append(terms, name)
	}
	slices.Sort(terms)
	if len(terms) == 1 {
		return terms[0], nil
	}
	if len(terms) == 0 {
		return "", fmt.Errorf("%s has no sections in any term", course.Code)
	}
	return "", fmt.Errorf("%s is offered in several terms, pick one with --term: %s", course.Code, strings.Join(terms, ", "))
}

var icsCmd = &cobra.Command{
	Use:   "ics <subject> <code> [--term <term>] [--out <file.ics>]",
	Short: "Exports a course's class meetings as an iCalendar file.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir := *icsDir
		if dir == "" {
			dir = cfg.MergeDir
		}
		subject := strings.ToUpper(args[0])

		store := catalog.NewStore(dir, "", tel)
		courses, err := store.Load(subject)
		if err != nil {
			serviceutil.Fatal("failed to load subject", err)
		}
		course, ok := findCourse(courses, args[1])
		if !ok {
			serviceutil.Fatal("failed to find course", fmt.Errorf("%s%s is not in %s", subject, args[1], store.SubjectPath(subject)))
		}
		term, err := pickTerm(course, *icsTerm)
		if err != nil {
			serviceutil.Fatal("failed to pick term", err)
		}

		course.Code = subject + course.Code
		cal, err := schedule.Calendar(course, term, clock.Location(), clock.Now())
		if err != nil {
			serviceutil.Fatal("failed to build calendar", err)
		}

		if *icsOut == "" {
			fmt.Print(cal.Serialize())
			return
		}
		err = os.WriteFile(*icsOut, []byte(cal.Serialize()), 0644)
		if err != nil {
			serviceutil.Fatal("failed to write calendar", err)
		}
		slog.Info("wrote calendar", "file", *icsOut, "events", len(cal.Events()))
	},
}
