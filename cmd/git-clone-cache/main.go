// Command git-clone-cache manages aliases in a content-addressable cache of
// repository mirrors.
//
//	git-clone-cache alias [--force] [--dry-run] [--no-log] CANONICAL_URL ALIAS_URL...
//	git-clone-cache key URL...
//	git-clone-cache resolve URL...
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dilijev/git-clone-cache/config"
	"github.com/dilijev/git-clone-cache/errors"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr, os.Getenv))
}

// usageError marks failures that should exit with exitUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	a := &app{stdout: stdout, stderr: stderr, getenv: getenv}
	err := a.command().Run(ctx, args)
	return a.exitCode(err)
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var usage *usageError
	if errors.As(err, &usage) || errors.HasCode(err, errors.CodeInvalidConfig) {
		fmt.Fprintf(a.stderr, "git-clone-cache: %v\n", err)
		fmt.Fprintln(a.stderr, "Run 'git-clone-cache --help' for usage.")
		return exitUsage
	}

	fmt.Fprintf(a.stderr, "git-clone-cache: %v\n", err)
	return exitFailure
}

func (a *app) command() *cli.Command {
	onUsageError := func(_ context.Context, _ *cli.Command, err error, _ bool) error {
		return &usageError{msg: err.Error()}
	}

	return &cli.Command{
		Name:      "git-clone-cache",
		Usage:     "share one cached mirror between several URLs of the same repository",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		// keep the parser from exiting the process
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		OnUsageError:   onUsageError,
		Action:         a.rootAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "cache root (default $" + config.EnvCacheDir + " or " + config.DefaultCacheDir + ")",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file (default $" + config.EnvConfigFile + ")",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "hasher",
				Usage: "key hasher: builtin or command (sha256sum/shasum)",
			},
			&cli.StringFlag{
				Name:  "index-backend",
				Usage: "directory document backend: json or jq",
			},
			&cli.StringFlag{
				Name:  "remote-backend",
				Usage: "remote registration backend: gogit or cli",
			},
			&cli.StringFlag{
				Name:  "git-binary",
				Usage: "git executable for the cli remote backend",
			},
			&cli.StringFlag{
				Name:  "jq-binary",
				Usage: "jq executable for the jq index backend",
			},
		},
		Commands: []*cli.Command{
			{
				Name:         "alias",
				Usage:        "link alias URLs to the cache entry of a canonical URL",
				ArgsUsage:    "CANONICAL_URL ALIAS_URL...",
				OnUsageError: onUsageError,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "replace conflicting symlinks and directories at alias keys",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "report planned changes without making them",
					},
					&cli.BoolFlag{
						Name:  "no-log",
						Usage: "do not append to the log file in the cache root",
					},
				},
				Action: a.aliasAction,
			},
			{
				Name:         "key",
				Usage:        "print the cache key of each URL",
				ArgsUsage:    "URL...",
				OnUsageError: onUsageError,
				Action:       a.keyAction,
			},
			{
				Name:         "resolve",
				Usage:        "show what the cache holds for each URL",
				ArgsUsage:    "URL...",
				OnUsageError: onUsageError,
				Action:       a.resolveAction,
			},
		},
	}
}

// rootAction runs only when no subcommand matched.
func (a *app) rootAction(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		_ = cli.ShowAppHelp(cmd)
		return usagef("a command is required")
	}
	return usagef("unknown command %q", cmd.Args().First())
}
