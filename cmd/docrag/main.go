// Command docrag answers questions over business documents.
package main

import (
	"os"

	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
