// Command arctl is an HTTP client CLI for cmd/runapi, following the
// teacher's bb CLI's main.go/commands.Execute() split.
package main

import (
	"github.com/runforge/arc/cmd/arctl/commands"
)

func main() {
	commands.Execute()
}
