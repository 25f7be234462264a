// Package exec runs the external tools the cache shells out to (the hash
// utility, jq, git) behind a small, mockable interface.
//
// Command is the os/exec backed implementation. Settings passed to New are
// global; the With* methods configure only the next Run and are reset
// afterwards:
//
//	cmd := exec.New(exec.WithInheritEnv())
//	res, err := cmd.WithDir(repoPath).WithContext(ctx).Run("git", "remote")
//
// CommandWrapper prepends a fixed binary to every Run, which keeps call sites
// for frequently used tools short:
//
//	git := exec.NewWrapper(exec.New(), "git")
//	res, err := git.WithContext(ctx).Run("-C", repoPath, "remote")
//
// Failed commands return an *ExecError carrying the exit code and captured
// output alongside the partial Result.
package exec

import (
	"context"
	"io"
	osexec "os/exec"
)

// Executor is the interface for running commands.
type Executor interface {
	// WithEnv sets environment variables for the next run.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the next run.
	WithDir(dir string) Executor

	// WithContext sets the context for the next run. The process is killed
	// when the context is canceled.
	WithContext(ctx context.Context) Executor

	// WithStdin feeds r to the process's standard input on the next run.
	WithStdin(r io.Reader) Executor

	// Run executes the command and returns its captured output.
	Run(args ...string) (*Result, error)

	// Clone returns a copy with the same global configuration.
	Clone() Executor
}

// Result holds the captured output of a command.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// Option configures global settings of a Command.
type Option func(*Command)

// WithEnv returns an Option that sets global environment variables.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		for k, v := range env {
			c.config.globalEnv[k] = v
		}
	}
}

// WithDir returns an Option that sets the global working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.config.globalDir = dir
	}
}

// WithInheritEnv returns an Option that passes the parent environment to
// every command.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.config.globalInheritEnv = true
	}
}

// LookPath searches PATH for the named binary.
//
//nolint:wrapcheck // callers classify a missing binary themselves
func LookPath(name string) (string, error) {
	return osexec.LookPath(name)
}
