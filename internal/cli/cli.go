// Package cli implements the sum command line: it checks that exactly two
// operands were given, converts them, adds them and prints the result.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/masp/sum/internal/operand"
	"github.com/masp/sum/lib"
)

// Process exit statuses.
const (
	ExitOK             = 0
	ExitUsage          = 1
	ExitFailure        = 1
	ExitInvalidOperand = 2
)

const usage = "Usage: main a b"

// argsGuard is put in front of the user's arguments so that cobra never
// routes them to a subcommand, including its hidden completion request
// command. RunE removes it.
const argsGuard = "--"

// ExitError terminates the program with Code. Err, when set, is reported on
// stderr.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Options are the collaborators of the root command.
type Options struct {
	Sum    lib.Func
	Stdout io.Writer
	Config *Config
}

// Root returns the command. Flag parsing is disabled so that "-1" is an
// operand. Run it with Execute.
func Root(opts Options) *cobra.Command {
	if opts.Sum == nil {
		opts.Sum = lib.Sum
	}
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	cmd := &cobra.Command{
		Use:                "main a b",
		Short:              "Print the sum of two integers",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == argsGuard {
				args = args[1:]
			}
			return opts.run(cmd.OutOrStdout(), args)
		},
	}
	if opts.Stdout != nil {
		cmd.SetOut(opts.Stdout)
	}
	return cmd
}

func (o Options) run(stdout io.Writer, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(stdout, usage)
		return &ExitError{Code: ExitUsage}
	}
	a, err := operand.Parse(args[0], o.Config.Strict)
	if err != nil {
		return &ExitError{Code: ExitInvalidOperand, Err: err}
	}
	b, err := operand.Parse(args[1], o.Config.Strict)
	if err != nil {
		return &ExitError{Code: ExitInvalidOperand, Err: err}
	}
	log.Debugf("operands %q %q parsed as %d %d", args[0], args[1], a, b)
	answer := o.Sum(a, b)
	log.Debugf("sum is %d", answer)
	fmt.Fprintf(stdout, "Sum: %d\n", answer)
	return nil
}

// Run executes the command with the production configuration and returns
// the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	cfg, err := LoadConfig(configDirs())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return ExitFailure
	}
	InitLogging(stderr, cfg.LogLevel)
	if cfg.File != "" {
		log.Debugf("config file: %s", cfg.File)
	}

	root := Root(Options{Sum: lib.Sum, Stdout: stdout, Config: cfg})
	root.SetErr(stderr)
	return exitStatus(stderr, Execute(root, args))
}

// Execute runs root with args passed through verbatim.
func Execute(root *cobra.Command, args []string) error {
	root.SetArgs(append([]string{argsGuard}, args...))
	return root.Execute()
}

func exitStatus(stderr io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %s\n", err)
	return ExitFailure
}
