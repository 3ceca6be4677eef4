package main

import (
	// display timezones must resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"github.com/pandeptwidyaop/simple404/cmd/simple404/cli"
)

var (
	// Version info (set by ldflags during build)
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.SetVersion(version, buildTime, gitCommit)
	cli.Execute()
}
