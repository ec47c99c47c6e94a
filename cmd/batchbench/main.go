// Command batchbench drives an executor with concurrent producers and
// checks that every submitted input is resolved with the expected result.
//
// Usage:
//
//	batchbench --producers 8 --items 1000 --max-batch-size 32 --latency 2ms
//	batchbench --metrics-addr :9090 --log-level debug
//	batchbench embed "first text" "second text"
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
