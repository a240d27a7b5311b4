package cmd

import (
	"os"
	"os/exec"
)

// runInTTY runs editor against path with the calling process's stdio
// attached, so an interactive $EDITOR gets a real terminal.
func runInTTY(editor, path string) error {
	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
