// Command streakctl is a terminal shell for the streak tracker. It keeps a
// local cache on the device and, when a server is given, syncs with the
// Record Store API.
package main

import (
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
