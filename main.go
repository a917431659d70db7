package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/notekeeper/cmd"
	"github.com/tphakala/notekeeper/internal/conf"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, version)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "notekeeper: %v\n", err)
		return 1
	}
	return 0
}
