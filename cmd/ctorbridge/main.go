// Command ctorbridge loads constructible manifests and runs them.
//
//	ctorbridge run shapes.yaml
//	ctorbridge inspect shapes.cue
//	ctorbridge explore shapes.yaml
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
