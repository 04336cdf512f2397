// Command searchcorectl is a thin demonstration CLI exercising
// pkg/searchcore end to end: compiling and running a query, inspecting
// and repairing the FTS schema, and listing search history and
// favorites. It mirrors the teacher's cmd/amanmcp entry point shape: a
// tiny main that delegates everything to a cobra root command.
package main

import (
	"os"

	"github.com/astraidlabs/veriado-searchcore/cmd/searchcorectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
