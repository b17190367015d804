package cmd

import (
	"strings"
	"testing"
)

func TestRootCommandHelpExamples(t *testing.T) {
	if !strings.Contains(rootCmd.Long, "apengine --version") {
		t.Error("root help should show the --version flag example")
	}
	// There is no version subcommand; every example must be runnable
	for _, line := range strings.Split(rootCmd.Long, "\n") {
		if strings.TrimSpace(line) == "apengine version" {
			t.Error("root help advertises a version subcommand that does not exist")
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command should carry a version string")
	}

	SetVersionInfo("1.2.3", "abc1234", "2026-08-29")
	if rootCmd.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", rootCmd.Version, "1.2.3")
	}
}
