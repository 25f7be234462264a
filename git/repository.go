package git

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Init creates a new Git repository at the specified path.
//
// Returns ErrAlreadyExists (as a platform error code) if a repository is
// already present.
//
// Examples:
//
//	// Create a bare mirror
//	repo, err := git.Init("/cache/abc123", git.WithBare())
//
//	// Create a repository on an in-memory filesystem (for testing)
//	repo, err := git.Init("/cache/abc123", git.WithFilesystem(memfs.New()), git.WithBare())
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	options := applyOptions(opts)
	fs := options.fs

	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}

	scopedFs, err := fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	if options.bare {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err := gogit.Init(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to initialize bare repository")
		}
		return &Repository{path: path, repo: repo, fs: scopedFs}, nil
	}

	dotGitFs, err := scopedFs.Chroot(".git")
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}

	storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
	repo, err := gogit.Init(storage, scopedFs)
	if err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

// Open opens an existing Git repository at the specified path.
// A path containing a .git directory is opened as a standard repository;
// anything else is opened as bare.
//
// Returns ErrNotFound if no repository exists at the path.
//
// Example:
//
//	repo, err := git.Open("/home/me/.git-clone-cache/abc123")
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options := applyOptions(opts)

	scopedFs, err := options.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	var repo *gogit.Repository
	if stat, statErr := scopedFs.Stat(".git"); statErr == nil && stat.IsDir() {
		dotGitFs, err := scopedFs.Chroot(".git")
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}
		storage := filesystem.NewStorage(dotGitFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, scopedFs)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	} else {
		storage := filesystem.NewStorage(scopedFs, cache.NewObjectLRUDefault())
		repo, err = gogit.Open(storage, nil)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	}

	return &Repository{path: path, repo: repo, fs: scopedFs}, nil
}

func applyOptions(opts []RepositoryOption) *repositoryOptions {
	options := &repositoryOptions{
		fs: osfs.New("/"),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Path returns the path the repository was opened at.
func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the underlying go-git Repository for operations not
// covered by this wrapper.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the billy filesystem scoped to the repository.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}
