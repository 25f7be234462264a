package cache

import (
	"context"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/dilijev/git-clone-cache/errors"
)

// Linker makes an alias key a symlink to the canonical entry.
//
// The link text is the canonical key itself, relative to the cache root,
// so a relocated root keeps working.
type Linker struct {
	fs       billy.Filesystem
	resolver *Resolver
	logger   *Logger
}

// NewLinker returns a Linker mutating fs under resolver's root.
func NewLinker(fs billy.Filesystem, resolver *Resolver, logger *Logger) *Linker {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Linker{fs: fs, resolver: resolver, logger: logger}
}

// linkOptions are the per-run switches of Reconcile.
type linkOptions struct {
	force  bool
	dryRun bool
}

// Classify inspects alias and reports its state relative to canonical.
func (l *Linker) Classify(alias Key, canonical *Entry) (LinkState, *Entry, error) {
	if alias == canonical.Key {
		return StateLinkedCorrect, canonical, nil
	}

	entry, err := l.resolver.Resolve(alias)
	if err != nil {
		return "", entry, err
	}

	switch entry.Kind {
	case EntryMissing:
		return StateAbsent, entry, nil
	case EntrySymlink:
		if !entry.Dangling && entry.RealPath == canonical.RealPath {
			return StateLinkedCorrect, entry, nil
		}
		return StateLinkedWrong, entry, nil
	default:
		if entry.RealPath == canonical.RealPath {
			return StateLinkedCorrect, entry, nil
		}
		return StateOccupiedNonLink, entry, nil
	}
}

// Reconcile brings alias to the linked-correct state. Without force a
// wrong link or a real directory at alias is an error; with force it is
// removed first. In dry-run nothing is touched and the result is marked
// Planned.
func (l *Linker) Reconcile(ctx context.Context, alias Key, canonical *Entry, opts linkOptions) (*LinkResult, error) {
	logger := l.logger.WithKey(alias)
	target := canonical.Key.String()

	state, entry, err := l.Classify(alias, canonical)
	if err != nil {
		return nil, err
	}

	result := &LinkResult{
		State:   state,
		Action:  ActionUnchanged,
		Planned: opts.dryRun,
		Path:    entry.Path,
		Target:  target,
	}
	errCtx := map[string]interface{}{
		"path":      entry.Path,
		"canonical": canonical.RealPath,
	}

	switch state {
	case StateLinkedCorrect:
		logger.Info(ctx, "alias already links to canonical entry", "path", entry.Path)
		return result, nil

	case StateLinkedWrong:
		errCtx["link_target"] = entry.LinkTarget
		if entry.RealPath != "" {
			errCtx["resolves_to"] = entry.RealPath
		}
		if !opts.force {
			return result, errors.WithContextMap(errors.Newf(errors.CodeAliasConflict,
				"%s is a symlink to %q, not to the canonical entry; use --force to replace it",
				entry.Path, entry.LinkTarget), errCtx)
		}
		if opts.dryRun {
			logger.Info(ctx, "dry-run: would remove conflicting symlink", "path", entry.Path, "link_target", entry.LinkTarget)
		} else {
			logger.Warn(ctx, "removing conflicting symlink", "path", entry.Path, "link_target", entry.LinkTarget)
			if err := l.fs.Remove(entry.Path); err != nil {
				return result, errors.WrapWithContext(err, errors.CodeInternal, "failed to remove conflicting symlink", errCtx)
			}
		}
		result.Action = ActionReplaced

	case StateOccupiedNonLink:
		if !opts.force {
			return result, errors.WithContextMap(errors.Newf(errors.CodeAliasOccupied,
				"%s exists and is not a symlink; use --force to replace it", entry.Path), errCtx)
		}
		if opts.dryRun {
			logger.Info(ctx, "dry-run: would remove existing entry", "path", entry.Path, "kind", string(entry.Kind))
		} else {
			logger.Warn(ctx, "removing existing entry", "path", entry.Path, "kind", string(entry.Kind))
			if err := util.RemoveAll(l.fs, entry.Path); err != nil {
				return result, errors.WrapWithContext(err, errors.CodeInternal, "failed to remove existing entry", errCtx)
			}
		}
		result.Action = ActionReplaced

	case StateAbsent:
		result.Action = ActionCreated
	}

	if opts.dryRun {
		logger.Info(ctx, "dry-run: would create symlink", "path", entry.Path, "target", target)
		return result, nil
	}

	if err := l.fs.Symlink(target, entry.Path); err != nil {
		return result, errors.WrapWithContext(err, errors.CodeInternal, "failed to create symlink", errCtx)
	}
	logger.Info(ctx, "created symlink", "path", entry.Path, "target", target)

	if err := l.verify(alias, canonical); err != nil {
		return result, errors.WithContextMap(err, errCtx)
	}
	return result, nil
}

// verify re-resolves alias after a mutation.
func (l *Linker) verify(alias Key, canonical *Entry) error {
	entry, err := l.resolver.Resolve(alias)
	if err != nil {
		return errors.Wrap(err, errors.CodeLinkVerificationFailed, "failed to resolve new symlink")
	}
	if entry.Kind != EntrySymlink || entry.Dangling || entry.RealPath != canonical.RealPath {
		return errors.WithContext(errors.Newf(errors.CodeLinkVerificationFailed,
			"%s does not resolve to the canonical entry after linking", entry.Path),
			"resolves_to", entry.RealPath)
	}
	return nil
}
