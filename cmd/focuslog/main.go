// Command focuslog reconstructs focus sessions from the OS log and keeps
// them in a local SQLite store.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
