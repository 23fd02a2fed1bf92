package main

import (
	"catalog-scraper/cmd/catalog-cli/commands"
	"catalog-scraper/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
