// cmd/panchakarma/main.go
package main

import (
	"github.com/mwiater/panchakarma/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = commands.SetVersionInfo
	executeCmd     = commands.Execute
)

// main injects build information and runs the root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
