// Command drbrain runs the Dr.Brain clinic dashboard backend.
//
// @title        Dr.Brain Dashboard API
// @version      1.0
// @description  Backend for the Dr.Brain clinic dashboard: session, route guard, chat relay, integrations and realtime notifications.
// @BasePath     /
package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
