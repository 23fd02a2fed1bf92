package commands

import (
	"catalog-scraper/internal/crawler"
	"catalog-scraper/pkg/serviceutil"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	crawlSubjects   *[]string
	crawlSkipParsed *bool
	crawlManual     *bool
	crawlUnattended *bool
	crawlTimestamp  *string
)

var errConflictingModes = errors.New("--manual and --unattended cannot be combined")

func init() {
	crawlSubjects = crawlCmd.Flags().StringSlice("subjects", nil, "Crawl only these subject codes (ex. CSCI,MATH), defaults to every subject.")
	crawlSkipParsed = crawlCmd.Flags().Bool("skip-parsed", false, "Skip subjects that already have a course file in the output directory.")
	crawlManual = crawlCmd.Flags().Bool("manual", false, "Type every captcha by hand.")
	crawlUnattended = crawlCmd.Flags().Bool("unattended", false, "Never ask a human, stop once automatic captcha attempts are exhausted.")
	crawlTimestamp = crawlCmd.Flags().String("timestamp", "", "Name of the output directory under output_dir, reuse one to resume with --skip-parsed.")
	rootCmd.AddCommand(crawlCmd)
}

// crawl runs one full crawl into `root` and logs a summary.
func crawl(cmd *cobra.Command, root string, opts crawler.CrawlOptions, human bool) error {
	setup, err := cfg.newCrawler(clock, tel, human)
	if err != nil {
		return err
	}
	defer setup.closer.Close()

	opts.Store = cfg.newStore(root, tel)

	start := clock.Now()
	slog.Info("crawling", "output", root, "merge", cfg.MergeDir)
	result, err := setup.crawler.Crawl(cmd.Context(), opts)

	failed := make([]string, 0, len(result.Failed))
	for subject := range result.Failed {
		failed = append(failed, subject)
	}
	slices.Sort(failed)
	slog.Info(
		"crawl finished",
		"crawled", len(result.Crawled),
		"skipped", len(result.Skipped),
		"failed", strings.Join(failed, ","),
		"courses", result.Courses,
		"duration", clock.Now().Sub(start).Round(time.Second).String(),
	)
	return err
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--subjects CSCI,MATH] [--skip-parsed] [--manual]",
	Short: "Crawls course details, sections and outcomes into <output_dir>/<timestamp>.",
	Run: func(cmd *cobra.Command, args []string) {
		if *crawlTimestamp != "" {
			cfg.Timestamp = *crawlTimestamp
		}
		manual := *crawlManual || cfg.Captcha.Mode == "manual"
		if manual && *crawlUnattended {
			serviceutil.Fatal("invalid flags", errConflictingModes)
		}

		err := crawl(cmd, cfg.outputRoot(clock), crawler.CrawlOptions{
			Subjects:   *crawlSubjects,
			SkipParsed: *crawlSkipParsed,
			Manual:     manual,
		}, !*crawlUnattended)
		if err != nil {
			serviceutil.Fatal("crawl stopped", err)
		}
	},
}
