// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/cmd"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/build"
)

func main() {
	os.Exit(run())
}

// run wraps the real entry point so deferred cleanup survives the exit code.
func run() int {
	build.Initialize()
	defer applog.Sync()

	if err := cmd.Execute(); err != nil {
		applog.Errorf("%v", err)
		return 1
	}
	return 0
}
