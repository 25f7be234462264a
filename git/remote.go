package git

import (
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// ListRemotes returns all configured remotes for this repository.
//
// Example:
//
//	remotes, err := repo.ListRemotes()
//	for _, remote := range remotes {
//	    fmt.Printf("Remote %s: %v\n", remote.Name, remote.URLs)
//	}
func (r *Repository) ListRemotes() ([]Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, wrapError(err, "failed to list remotes")
	}

	result := make([]Remote, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		result = append(result, Remote{
			Name: cfg.Name,
			URLs: cfg.URLs,
		})
	}

	return result, nil
}

// HasRemote reports whether a remote with exactly this name is configured.
func (r *Repository) HasRemote(name string) (bool, error) {
	_, err := r.repo.Remote(name)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapError(err, "failed to look up remote")
	}
	return true, nil
}

// AddRemote adds a new remote to the repository configuration.
// The remote name must be unique within the repository.
//
// Returns an error with code ErrAlreadyExists if the remote exists, or
// ErrInvalidInput if the configuration is invalid.
//
// Example:
//
//	err := repo.AddRemote(git.RemoteOptions{
//	    Name: "https---example.com-repo-git",
//	    URL:  "https://example.com/repo.git",
//	})
func (r *Repository) AddRemote(opts RemoteOptions) error {
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: opts.Name,
		URLs: []string{opts.URL},
	})
	if err != nil {
		return wrapError(err, "failed to add remote")
	}

	return nil
}
