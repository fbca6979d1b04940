// Package main is the single-binary entrypoint for teeline.
// teeline keeps your call schedule in a local store and lets an AI voice
// agent handle tee-time bookings for you.
package main

import "github.com/teeline/teeline/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
