package main

import (
	"fmt"
	"os"

	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/util/cli"
	"github.com/wildobs/submission-services/workers"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		os.Exit(0)
	}

	// If anything goes wrong, this panics.
	// Otherwise, it starts handling NSQ messages immediately.
	processor := workers.NewSubmissionProcessor(
		common.NewContext(),
		opts.ChannelBufferSize,
		opts.NumWorkers,
		opts.MaxAttempts,
	)
	if err := processor.RegisterAsNsqConsumer(); err != nil {
		panic(err)
	}

	select {}
}

func printHelp() {
	message := `
submission_processor runs the spreadsheet pipeline: it validates each
submission against its template's rules, transforms it into Darwin Core
records, and scrapes occurrences into the observation database.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
