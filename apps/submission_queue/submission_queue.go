package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/util/cli"
	"github.com/wildobs/submission-services/workers"
)

func main() {
	help := false
	runOnce := false
	flag.BoolVar(&help, "help", false, "Print help message")
	flag.BoolVar(&runOnce, "run-once", false, "Run once and exit (cron mode instead of server mode)")
	flag.Parse()

	if help {
		printHelp()
		os.Exit(0)
	}

	queue := workers.NewSubmissionQueue(common.NewContext())

	if runOnce {
		queue.RunOnce()
	} else {
		stopChan := make(chan struct{})
		queue.RunAsService()
		<-stopChan
	}
}

func printHelp() {
	message := `
submission_queue re-enqueues submissions that are stuck in Submitted
state: intake records whose queue message was lost, or whose worker died
before recording any progress.

When running as a service (i.e. without --run-once), this relies on the
config setting QUEUE_INTERVAL to determine how long to wait after the
end of one scan before beginning the next. QUEUE_MAX_AGE sets how old a
Submitted record must be before it is considered stuck.

You can also run submission_queue as a one-off job with the --run-once
flag. It will perform one scan and then exit.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
