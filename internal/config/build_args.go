package config

import "fmt"

// ModuleName is the name printed by the CLI.
const ModuleName = "go-ethtx"

// Set at build time through -ldflags "-X github/chapool/go-ethtx/internal/config.Commit=...".
var (
	Commit    = "< 40 chars git commit hash via ldflags >"
	BuildDate = "< build date via ldflags >"
)

func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
