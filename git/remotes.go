package git

import (
	"bufio"
	"context"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	platformerrors "github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/exec"
)

// NativeRemotes manages remotes of repositories on a billy filesystem with
// go-git. It needs no git binary and works on memfs.
type NativeRemotes struct {
	fs billy.Filesystem
}

// NewNativeRemotes returns a NativeRemotes resolving repository paths
// against fs. A nil fs means the local filesystem rooted at "/".
func NewNativeRemotes(fs billy.Filesystem) *NativeRemotes {
	if fs == nil {
		fs = osfs.New("/")
	}
	return &NativeRemotes{fs: fs}
}

// HasRemote reports whether the repository at repoPath has a remote named name.
func (n *NativeRemotes) HasRemote(_ context.Context, repoPath, name string) (bool, error) {
	repo, err := Open(repoPath, WithFilesystem(n.fs))
	if err != nil {
		return false, err
	}
	return repo.HasRemote(name)
}

// AddRemote adds a remote named name pointing at url.
func (n *NativeRemotes) AddRemote(_ context.Context, repoPath, name, url string) error {
	repo, err := Open(repoPath, WithFilesystem(n.fs))
	if err != nil {
		return err
	}
	return repo.AddRemote(RemoteOptions{Name: name, URL: url})
}

// CLIRemotes manages remotes by running the git binary. Only usable with
// repositories on the real filesystem.
type CLIRemotes struct {
	git *exec.CommandWrapper
}

// NewCLIRemotes returns a CLIRemotes running binary through executor.
// An empty binary means "git".
func NewCLIRemotes(executor exec.Executor, binary string) *CLIRemotes {
	if binary == "" {
		binary = "git"
	}
	return &CLIRemotes{git: exec.NewWrapper(executor, binary)}
}

// HasRemote runs `git -C repoPath remote` and looks for an exact name match.
func (c *CLIRemotes) HasRemote(ctx context.Context, repoPath, name string) (bool, error) {
	res, err := c.git.WithContext(ctx).Run("-C", repoPath, "remote")
	if err != nil {
		return false, classifyCLIError(err, "failed to list remotes")
	}

	scanner := bufio.NewScanner(strings.NewReader(res.Stdout))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == name {
			return true, nil
		}
	}
	return false, nil
}

// AddRemote runs `git -C repoPath remote add name url`.
func (c *CLIRemotes) AddRemote(ctx context.Context, repoPath, name, url string) error {
	if _, err := c.git.WithContext(ctx).Run("-C", repoPath, "remote", "add", name, url); err != nil {
		return classifyCLIError(err, "failed to add remote")
	}
	return nil
}

// classifyCLIError maps git CLI failures onto the same codes go-git errors
// get, using the messages git prints on stderr.
func classifyCLIError(err error, message string) error {
	var stderr string
	var execErr *exec.ExecError
	if platformerrors.As(err, &execErr) {
		stderr = strings.ToLower(execErr.Stderr)
	}

	switch {
	case strings.Contains(stderr, "already exists"):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, message+": remote already exists")
	case strings.Contains(stderr, "not a git repository"):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, message+": repository does not exist")
	case strings.Contains(stderr, "not a valid remote name"):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, message)
	}

	return platformerrors.Wrap(err, platformerrors.CodeExecutionFailed, message)
}
