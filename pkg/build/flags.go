// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded into the binary at compile time
// via linker flags, for example:
//
//	go build -ldflags "\
//	  -X 'github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/build.buildVersion=0.3.0' \
//	  -X 'github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/build.buildCommit=abc1234'"
//
// Fields the build does not inject keep development placeholders, so a plain
// `go build` still produces a working binary.
package build

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation. Empty
// values mean a development build.
var (
	buildName        string
	buildDescription string
	buildTime        string
	buildCommit      string
	buildVersion     string

	buildFlags = &ldFlags{
		Name:        "drumvision",
		Description: "Detects kick, snare and hi-hat hits from the microphone and scores takes against a step pattern",
		Time:        "unknown",
		Commit:      "none",
		Version:     "dev",
	}
)

// Initialize copies any injected build information over the development
// defaults. Call once, early in program startup.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildDescription != "" {
		buildFlags.Description = buildDescription
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
