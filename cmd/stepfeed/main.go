// Command stepfeed pushes generated pedometer samples into a running stride
// service and verifies today's record and the ranking.
//
//	go run ./cmd/stepfeed --samples 5000 --user me
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
