/*
main.go - Application entry point

PURPOSE:
  Thin wrapper around the cobra command tree in root.go.

SEE ALSO:
  - root.go:      Command tree and configuration
  - serve.go:     HTTP server command
  - reconcile.go: One-shot batch command
*/
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
