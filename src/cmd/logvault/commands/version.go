// FILE: logvault/src/cmd/logvault/commands/version.go
package commands

import (
	"fmt"

	"logvault/src/internal/version"
)

// VersionCommand handles version display
type VersionCommand struct{}

// NewVersionCommand creates a new version command
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{}
}

func (c *VersionCommand) Execute(args []string) error {
	fmt.Println(version.String())
	return nil
}

func (c *VersionCommand) Description() string {
	return "Show version information"
}

func (c *VersionCommand) Help() string {
	return `Version Command - Show LogVault version information

Usage:
  logvault version
  logvault -v
  logvault --version

Output includes:
  - Version number
  - Git commit hash (if available)
  - Build time
`
}
