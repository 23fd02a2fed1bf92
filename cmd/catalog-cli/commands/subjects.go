package commands

import (
	"catalog-scraper/pkg/serviceutil"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subjectsCmd)
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Prints the subject codes offered by the catalog search form.",
	Run: func(cmd *cobra.Command, args []string) {
		setup, err := cfg.newCrawler(clock, tel, true)
		if err != nil {
			serviceutil.Fatal("failed to create crawler", err)
		}
		defer setup.closer.Close()

		subjects, err := setup.crawler.Subjects(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list subjects", err)
		}
		for _, subject := range subjects {
			fmt.Println(subject)
		}
	},
}
