// workmux orchestrates VCS worktrees, multiplexer windows, and coding
// agents.
package main

import (
	"os"

	"github.com/workmux/workmux/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
