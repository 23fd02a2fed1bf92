package commands

import (
	"catalog-scraper/internal/components/chrono"
	"catalog-scraper/internal/crawler"
	"catalog-scraper/pkg/serviceutil"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

var scheduleSubjects *[]string

var errNoOcr = errors.New("captcha.ocr_url is required for unattended crawls")

func init() {
	scheduleSubjects = scheduleCmd.Flags().StringSlice("subjects", nil, "Crawl only these subject codes, defaults to every subject.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <cron spec>",
	Short: "Runs an unattended crawl on a cron schedule (ex. \"0 3 * * 1\") until interrupted.",
	Long: "Runs an unattended crawl on a cron schedule until interrupted. Every run writes to a new " +
		"timestamped directory and never asks for a human, so an OCR endpoint must be configured. " +
		"A run still going when the next one is due causes that one to be skipped.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.Captcha.OcrUrl == "" {
			serviceutil.Fatal("invalid config", errNoOcr)
		}
		// every run gets its own directory
		cfg.Timestamp = ""

		cron := chrono.NewStandardCron(tel, clock.Location())
		err := cron.Cron(args[0], func() {
			root := cfg.outputRoot(clock)
			err := crawl(cmd, root, crawler.CrawlOptions{
				Subjects: *scheduleSubjects,
			}, false)
			if err != nil {
				slog.Error("scheduled crawl stopped", "output", root, "err", err)
			}
		})
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}
		slog.Info("waiting for the next scheduled crawl", "spec", args[0])

		<-cmd.Context().Done()
		cron.Stop()
	},
}
