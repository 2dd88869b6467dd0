package main

import (
	"fmt"
	"os"
	"path/filepath"

	app "github.com/valter-silva-au/feedme/internal"
	"github.com/valter-silva-au/feedme/internal/cli"
	"github.com/valter-silva-au/feedme/internal/core"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	a, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing feedme: %v\n", err)
		if app.IsConfigError(err) {
			fmt.Fprintf(os.Stderr, "Fix or remove %s and try again.\n", filepath.Join(basePath, core.ConfigFileName))
		}
		return 1
	}
	defer func() { _ = a.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
