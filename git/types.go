package git

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
)

// Repository wraps a go-git repository opened on a billy filesystem.
// Cache mirrors are bare, so most repositories seen here have no worktree.
type Repository struct {
	path string
	repo *gogit.Repository
	fs   billy.Filesystem
}

// Remote is a simple value type representing a Git remote.
type Remote struct {
	Name string
	URLs []string
}

// RemoteOptions configures remote management.
type RemoteOptions struct {
	Name string
	URL  string
}

// RepositoryOption configures Init and Open.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	fs   billy.Filesystem
	bare bool
}

// WithFilesystem sets the billy filesystem that repository paths are
// resolved against. If not provided, defaults to osfs rooted at "/".
//
// Example:
//
//	repo, err := git.Open("/cache/abc123", git.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithBare creates a bare repository (no working tree), the layout of a
// clone cache mirror.
//
// Example:
//
//	repo, err := git.Init("/cache/abc123", git.WithBare())
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}
