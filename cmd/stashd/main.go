// Command stashd runs the stash runtime tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/next-trace/stashit/internal/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
