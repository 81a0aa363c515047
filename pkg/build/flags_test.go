// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"
)

var (
	origName        string
	origDescription string
	origTime        string
	origCommit      string
	origVersion     string
	origFlags       ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origDescription = buildDescription
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildFlags != nil {
		origFlags = *buildFlags
	}

	exitCode := m.Run()

	buildName = origName
	buildDescription = origDescription
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	if buildFlags != nil {
		*buildFlags = origFlags
	}

	os.Exit(exitCode)
}

func devDefaults() *ldFlags {
	return &ldFlags{
		Name:        "drumvision",
		Description: "Detects kick, snare and hi-hat hits from the microphone and scores takes against a step pattern",
		Time:        "unknown",
		Commit:      "none",
		Version:     "dev",
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantName    string
		wantTime    string
		wantCommit  string
		wantVer     string
	}{
		{
			"Development build keeps placeholders",
			"", "", "", "",
			"drumvision", "unknown", "none", "dev",
		},
		{
			"Full injection overrides everything",
			"testapp", "2026-08-21", "abcdef123", "v1.0.0",
			"testapp", "2026-08-21", "abcdef123", "v1.0.0",
		},
		{
			"Partial injection keeps remaining placeholders",
			"", "", "abcdef123", "v1.0.0",
			"drumvision", "unknown", "abcdef123", "v1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = devDefaults()

			buildName = tt.buildName
			buildDescription = ""
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			Initialize()

			if buildFlags.Name != tt.wantName {
				t.Errorf("buildFlags.Name = %v, want %v", buildFlags.Name, tt.wantName)
			}
			if buildFlags.Time != tt.wantTime {
				t.Errorf("buildFlags.Time = %v, want %v", buildFlags.Time, tt.wantTime)
			}
			if buildFlags.Commit != tt.wantCommit {
				t.Errorf("buildFlags.Commit = %v, want %v", buildFlags.Commit, tt.wantCommit)
			}
			if buildFlags.Version != tt.wantVer {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.wantVer)
			}
			if buildFlags.Description == "" {
				t.Error("buildFlags.Description must never be empty")
			}
		})
	}
}

func TestGetBuildFlags(t *testing.T) {
	expected := ldFlags{
		Name:        "testapp",
		Description: "test description",
		Time:        "2026-08-21",
		Commit:      "abcdef123",
		Version:     "v1.0.0",
	}
	buildFlags = &expected

	flags := GetBuildFlags()

	if flags.Name != expected.Name ||
		flags.Description != expected.Description ||
		flags.Time != expected.Time ||
		flags.Commit != expected.Commit ||
		flags.Version != expected.Version {
		t.Errorf("GetBuildFlags() = %+v, want %+v", flags, expected)
	}
}
