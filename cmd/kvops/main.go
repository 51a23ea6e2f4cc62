// Command kvops is the kvops command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonwraymond/kvops/internal/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
