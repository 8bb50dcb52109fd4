// FILE: logvault/src/cmd/logvault/commands/serve.go
package commands

import "fmt"

// ServeCommand runs the HTTP service. It is also the default when no command is given.
type ServeCommand struct {
	run func(args []string) error
}

func NewServeCommand(run func(args []string) error) *ServeCommand {
	return &ServeCommand{run: run}
}

func (c *ServeCommand) Execute(args []string) error {
	if c.run == nil {
		return fmt.Errorf("serve is not available")
	}
	return c.run(args)
}

func (c *ServeCommand) Description() string {
	return "Run the log ingestion and query service (default)"
}

func (c *ServeCommand) Help() string {
	return `Serve Command - Run the LogVault HTTP service

Usage:
  logvault serve [options]
  logvault [options]

Options:
  -c, --config <path>      Configuration file (default: $LOGVAULT_CONFIG_FILE or ~/.config/logvault.toml)
      --log-level <level>  Override logging.level: debug, info, warn, error
      --<key>=<value>      Override any configuration key, e.g. --server.port=8080

Examples:
  logvault --config /etc/logvault.toml
  logvault serve --store.type=memory --auth.secret=dev-secret --log-level debug
`
}
