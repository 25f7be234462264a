package git

import (
	"errors"
	"fmt"

	platformerrors "github.com/dilijev/git-clone-cache/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// wrapError classifies err as a platform error and prefixes context.
// The original chain stays reachable through errors.Is/errors.As.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", context, classifyError(err))
}

// classifyError maps go-git errors to platform error codes. Unknown errors
// pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, gogit.ErrRemoteNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote not found")
	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "repository already exists")
	case errors.Is(err, gogit.ErrRemoteExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "remote already exists")
	case errors.Is(err, config.ErrRemoteConfigEmptyName):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "remote name is required")
	case errors.Is(err, config.ErrRemoteConfigEmptyURL):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "remote URL is required")
	case errors.Is(err, gogit.ErrMissingURL):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "URL is required")
	}

	return err
}
