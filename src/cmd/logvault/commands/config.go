// FILE: logvault/src/cmd/logvault/commands/config.go
package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"logvault/src/internal/auth"
	"logvault/src/internal/config"
)

const defaultConfigOutput = "logvault.toml"

// ConfigCommand writes starter configuration files
type ConfigCommand struct {
	output io.Writer
	errOut io.Writer
}

func NewConfigCommand() *ConfigCommand {
	return &ConfigCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
}

func (cc *ConfigCommand) Execute(args []string) error {
	if len(args) == 0 || args[0] != "init" {
		return fmt.Errorf("usage: logvault config init [-o <file>] [--force]")
	}

	cmd := flag.NewFlagSet("config init", flag.ContinueOnError)
	cmd.SetOutput(cc.errOut)

	var (
		out     = cmd.String("o", "", "Output file")
		outLong = cmd.String("output", "", "Output file")
		force   = cmd.Bool("force", false, "Overwrite an existing file")
	)

	cmd.Usage = func() {
		fmt.Fprint(cc.errOut, cc.Help())
	}

	if err := cmd.Parse(args[1:]); err != nil {
		return err
	}
	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(cmd.Args(), " "))
	}

	path := coalesceString(*out, *outLong, defaultConfigOutput)
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	secret, err := auth.GenerateSecret(auth.DefaultSecretLength)
	if err != nil {
		return err
	}

	cfg := config.Defaults()
	cfg.Auth.Secret = secret

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(cc.output, "Configuration written to %s\n", path)
	fmt.Fprintf(cc.output, "Store: %s at %s, database %q\n", cfg.Store.Type, cfg.Store.URI, cfg.Store.Database)
	fmt.Fprintln(cc.output, "A random signing secret was generated; keep the file private.")
	return nil
}

func (cc *ConfigCommand) Description() string {
	return "Write a default configuration file"
}

func (cc *ConfigCommand) Help() string {
	return `Config Command - Write a default configuration file

Usage:
  logvault config init [-o <file>] [--force]

Options:
  -o, --output <file>   Output path (default: logvault.toml)
      --force           Overwrite an existing file

The generated file contains every setting with its default value and a
freshly generated auth.secret.
`
}
