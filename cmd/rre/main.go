// Command rre is the CLI front end for the Repository Retrieval
// Engine: a thin wrapper with no retrieval logic of its own, dispatching
// to internal/cli's cobra commands (query, index, rebuild, mcp, version).
package main

import "github.com/codewell/rre/internal/cli"

func main() {
	cli.Execute()
}
