// FILE: logvault/src/cmd/logvault/commands/user.go
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"logvault/src/internal/auth"
	"logvault/src/internal/config"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
	"golang.org/x/term"
)

const userCommandTimeout = 30 * time.Second

// UserCommand registers accounts directly into the configured store
type UserCommand struct {
	openStore func(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error)
	output    io.Writer
	errOut    io.Writer
	// readPassword prompts on the terminal, replaced in tests
	readPassword func(prompt string) (string, error)
}

func NewUserCommand(openStore func(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error)) *UserCommand {
	uc := &UserCommand{
		openStore: openStore,
		output:    os.Stdout,
		errOut:    os.Stderr,
	}
	uc.readPassword = uc.promptPassword
	return uc
}

func (uc *UserCommand) Execute(args []string) error {
	if len(args) == 0 || args[0] != "add" {
		return fmt.Errorf("usage: logvault user add -u <username> [-r <role>] [-p <password>]")
	}

	cmd := flag.NewFlagSet("user add", flag.ContinueOnError)
	cmd.SetOutput(uc.errOut)

	var (
		username     = cmd.String("u", "", "Username (required)")
		usernameLong = cmd.String("username", "", "Username (required)")
		role         = cmd.String("r", "", "Role, 'admin' may ingest logs")
		roleLong     = cmd.String("role", "", "Role, 'admin' may ingest logs")
		password     = cmd.String("p", "", "Password (prompted when omitted)")
		passwordLong = cmd.String("password", "", "Password (prompted when omitted)")
		configFile   = cmd.String("c", "", "Configuration file")
		configLong   = cmd.String("config", "", "Configuration file")
	)

	cmd.Usage = func() {
		fmt.Fprint(uc.errOut, uc.Help())
	}

	if err := cmd.Parse(args[1:]); err != nil {
		return err
	}
	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(cmd.Args(), " "))
	}

	finalUser := coalesceString(*username, *usernameLong)
	finalRole := coalesceString(*role, *roleLong, "viewer")
	finalPassword := coalesceString(*password, *passwordLong)

	if finalUser == "" {
		cmd.Usage()
		return fmt.Errorf("username is required")
	}

	if finalPassword == "" {
		pass, err := uc.readPassword("Enter password: ")
		if err != nil {
			return err
		}
		confirm, err := uc.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passwords don't match")
		}
		finalPassword = pass
	}

	cfg, err := config.Load(coalesceString(*configFile, *configLong), nil)
	if err != nil {
		return err
	}
	if cfg.Store.Type == config.StoreTypeMemory {
		return fmt.Errorf("user add needs a persistent store, store.type is %q", cfg.Store.Type)
	}

	// Unstarted logger, command output goes to the terminal
	logger := log.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), userCommandTimeout)
	defer cancel()

	st, err := uc.openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	svc, err := auth.NewServiceFromConfig(cfg.Auth, st.Users(), logger)
	if err != nil {
		return err
	}
	defer svc.Stop()

	id, err := svc.Register(ctx, finalUser, finalPassword, finalRole)
	if err != nil {
		return err
	}

	fmt.Fprintf(uc.output, "User %q registered (role: %s, id: %s, password storage: %s)\n",
		finalUser, finalRole, id, cfg.Auth.PasswordStorage)
	return nil
}

func (uc *UserCommand) promptPassword(prompt string) (string, error) {
	fmt.Fprint(uc.errOut, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(uc.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func (uc *UserCommand) Description() string {
	return "Register a user directly in the configured store"
}

func (uc *UserCommand) Help() string {
	return `User Command - Register a user directly in the configured store

Usage:
  logvault user add -u <username> [-r <role>] [-p <password>] [-c <config>]

Options:
  -u, --username <name>    Username (required)
  -r, --role <role>        Role, only 'admin' may ingest logs (default: viewer)
  -p, --password <pass>    Password, prompted twice when omitted
  -c, --config <path>      Configuration file naming the store

Examples:
  # Bootstrap the first admin account, password read from the terminal
  logvault user add -c /etc/logvault.toml -u root -r admin
`
}
