// Command rowgate is the gateway binary: serve runs the HTTP read
// gateway, load bulk-writes cells into the store.
package main

import (
	"fmt"
	"os"

	"github.com/dreamware/rowgate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rowgate:", err)
		os.Exit(1)
	}
}
