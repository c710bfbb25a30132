package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// A .env in the working directory is a convenience for local
	// development; absence is not an error.
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
