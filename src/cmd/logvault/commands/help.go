// FILE: logvault/src/cmd/logvault/commands/help.go
package commands

import (
	"fmt"
	"sort"
	"strings"
)

// generalHelpTemplate is the default help message shown when no specific command is requested.
const generalHelpTemplate = `LogVault: JWT-protected log ingestion and query service.

Usage:
  logvault [command] [options]
  logvault [options]

Commands:
%s

Application Options:
  -c, --config <path>      Path to configuration file
  -h, --help               Display this help message and exit
  -v, --version            Display version information and exit
      --log-level <level>  Override the configured log level
      --<key>=<value>      Override a configuration key, e.g. --server.port=8080

For command-specific help:
  logvault help <command>
  logvault <command> --help

Configuration Sources (Precedence: CLI > Env > File > Defaults):
  - CLI flags override all other settings
  - Environment variables (LOGVAULT_SERVER_PORT, LOGVAULT_AUTH_SECRET, ...) override file settings
  - TOML configuration file is the primary method
  - SECRET, MONGODB_URL and PORT are honored when the LOGVAULT_ form is unset

Examples:
  # Write a starter configuration with a random signing secret
  logvault config init -o /etc/logvault.toml

  # Start service with that configuration
  logvault -c /etc/logvault.toml

  # Create the first admin account
  logvault user add -c /etc/logvault.toml -u root -r admin
`

// HelpCommand handles the display of general or command-specific help messages.
type HelpCommand struct {
	router *CommandRouter
}

// NewHelpCommand creates a new help command handler.
func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router}
}

// Execute displays the appropriate help message based on the provided arguments.
func (c *HelpCommand) Execute(args []string) error {
	if len(args) > 0 && args[0] != "" {
		cmdName := args[0]

		if handler, exists := c.router.GetCommand(cmdName); exists {
			fmt.Print(handler.Help())
			return nil
		}

		return fmt.Errorf("unknown command: %s", cmdName)
	}

	fmt.Printf(generalHelpTemplate, c.formatCommandList())
	return nil
}

func (c *HelpCommand) Description() string {
	return "Display help information"
}

func (c *HelpCommand) Help() string {
	return `Help Command - Display help information

Usage:
  logvault help              Show general help
  logvault help <command>    Show help for a specific command

Examples:
  logvault help              # Show general help
  logvault help user         # Show user command help
  logvault user --help       # Alternative way to get command help
`
}

// formatCommandList creates a formatted and aligned list of all available commands.
func (c *HelpCommand) formatCommandList() string {
	commands := c.router.GetCommands()

	names := make([]string, 0, len(commands))
	maxLen := 0
	for name := range commands {
		names = append(names, name)
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		padding := strings.Repeat(" ", maxLen-len(name)+2)
		lines = append(lines, fmt.Sprintf("  %s%s%s", name, padding, commands[name].Description()))
	}

	return strings.Join(lines, "\n")
}
