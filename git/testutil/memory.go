// Package testutil provides fixtures for tests that need real (bare) Git
// mirrors without touching the network.
package testutil

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/dilijev/git-clone-cache/git"
)

// NewBareMirror initializes an empty bare repository at path on fs, the way
// a populated cache entry looks on disk, and registers origin.
//
// Example:
//
//	fs := memfs.New()
//	repo, err := testutil.NewBareMirror(fs, "/cache/abc123", testutil.CanonicalURL)
func NewBareMirror(fs billy.Filesystem, path, originURL string) (*git.Repository, error) {
	repo, err := git.Init(path, git.WithFilesystem(fs), git.WithBare())
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return nil, err
	}

	if originURL != "" {
		if err := repo.AddRemote(git.RemoteOptions{Name: "origin", URL: originURL}); err != nil {
			//nolint:wrapcheck // Test utility - errors from git package are already wrapped
			return nil, err
		}
	}

	return repo, nil
}

// NewMemoryMirror is NewBareMirror on a fresh memfs.
func NewMemoryMirror(path, originURL string) (*git.Repository, billy.Filesystem, error) {
	fs := memfs.New()
	repo, err := NewBareMirror(fs, path, originURL)
	if err != nil {
		return nil, nil, err
	}
	return repo, fs, nil
}
