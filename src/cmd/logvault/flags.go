// FILE: logvault/src/cmd/logvault/flags.go
package main

import (
	"fmt"
	"strings"
)

// FlagConfig holds the serve flags. Dotted flags such as --server.port=8080 are passed
// through to the config loader untouched.
type FlagConfig struct {
	ConfigFile string
	ConfigArgs []string
}

func parseFlags(args []string) (*FlagConfig, error) {
	fc := &FlagConfig{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")

		if !strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}

		// Flags that take a value accept both --flag=value and --flag value
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return "", fmt.Errorf("flag %s requires a value", arg)
			}
			i++
			return args[i], nil
		}

		switch {
		case name == "c" || name == "config":
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			fc.ConfigFile = v

		case name == "log-level":
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			if _, err := parseLogLevel(v); err != nil {
				return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", v)
			}
			fc.ConfigArgs = append(fc.ConfigArgs, "--logging.level="+strings.ToLower(v))

		case strings.Contains(name, "."):
			v, err := takeValue()
			if err != nil {
				return nil, err
			}
			fc.ConfigArgs = append(fc.ConfigArgs, "--"+name+"="+v)

		default:
			return nil, fmt.Errorf("unknown flag: %s\n\nRun 'logvault help' for usage", arg)
		}
	}

	return fc, nil
}
