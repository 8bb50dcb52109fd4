// FILE: logvault/src/cmd/logvault/commands/router.go
package commands

import (
	"context"
	"fmt"
	"os"

	"logvault/src/internal/config"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
)

// Handler defines the interface required for all subcommands.
type Handler interface {
	Execute(args []string) error
	Description() string
	Help() string
}

// Deps are provided by the main package so commands share its bootstrap
type Deps struct {
	// Serve runs the HTTP service with the remaining CLI arguments
	Serve func(args []string) error
	// OpenStore connects the configured persistence backend
	OpenStore func(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error)
}

// CommandRouter handles the routing of CLI arguments to the appropriate subcommand handler.
type CommandRouter struct {
	commands map[string]Handler
}

// NewCommandRouter creates and initializes the command router with all available commands.
func NewCommandRouter(deps Deps) *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]Handler),
	}

	router.commands["serve"] = NewServeCommand(deps.Serve)
	router.commands["user"] = NewUserCommand(deps.OpenStore)
	router.commands["config"] = NewConfigCommand()
	router.commands["version"] = NewVersionCommand()
	router.commands["help"] = NewHelpCommand(router)

	return router
}

// Route checks for and executes a subcommand. It reports false when no subcommand
// was named and the caller should run the default serve path.
func (r *CommandRouter) Route(args []string) (bool, error) {
	if len(args) < 2 {
		return false, nil
	}

	cmdName := args[1]

	if cmdName == "-v" || cmdName == "--version" {
		return true, r.commands["version"].Execute(nil)
	}

	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			if handler, exists := r.commands[cmdName]; exists && cmdName != "help" {
				fmt.Print(handler.Help())
				return true, nil
			}
			return true, r.commands["help"].Execute(nil)
		}
	}

	handler, exists := r.commands[cmdName]
	if !exists {
		// Flags belong to the default serve command
		if cmdName[0] != '-' {
			return false, fmt.Errorf("unknown command: %s\n\nRun 'logvault help' for usage", cmdName)
		}
		return false, nil
	}

	return true, handler.Execute(args[2:])
}

// GetCommand returns a specific command handler by its name.
func (r *CommandRouter) GetCommand(name string) (Handler, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommands returns a map of all registered commands.
func (r *CommandRouter) GetCommands() map[string]Handler {
	return r.commands
}

// ShowCommands displays a list of available subcommands to stderr.
func (r *CommandRouter) ShowCommands() {
	for name, handler := range r.commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, handler.Description())
	}
	fmt.Fprintln(os.Stderr, "\nUse 'logvault <command> --help' for command-specific help")
}

// coalesceString returns the first non-empty string from a list of arguments.
func coalesceString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
