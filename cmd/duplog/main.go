// Command duplog copies lines from standard input into a log file and,
// by severity, onto the console streams.
//
//	some-job 2>&1 | duplog --file /var/log/job.log --dup-stderr warn
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, nil, nil).Execute(); err != nil {
		os.Exit(1)
	}
}
