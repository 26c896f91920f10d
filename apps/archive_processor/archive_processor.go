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

	processor := workers.NewArchiveProcessor(
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
archive_processor handles submissions uploaded as pre-built Darwin Core
Archives. It validates each archive against the core schema and scrapes
occurrences into the observation database.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
