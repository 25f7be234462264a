package cache

import (
	"context"
	"strings"
	"unicode"

	"github.com/dilijev/git-clone-cache/errors"
)

// RemoteName derives a git remote name from url. Characters git rejects in
// ref names become "-", as do ".." and leading or trailing dots, and a
// trailing ".git" or ".lock" keeps its suffix as "-git" / "-lock":
//
//	https://example.com/repo.git -> https---example.com-repo-git
func RemoteName(url string) string {
	var b strings.Builder
	for _, r := range url {
		switch {
		case unicode.IsSpace(r), unicode.IsControl(r):
			b.WriteByte('-')
		case strings.ContainsRune(`:/@\?#&=+~^*[]`, r):
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	name := b.String()

	for _, suffix := range []string{".git", ".lock"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix) + "-" + suffix[1:]
		}
	}

	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "--")
	}
	if strings.HasPrefix(name, ".") {
		name = "-" + name[1:]
	}
	if strings.HasSuffix(name, ".") {
		name = name[:len(name)-1] + "-"
	}

	return name
}

// RemoteRegistrar adds alias URLs as remotes of the canonical repository so
// a fetch through the cache can reach the alias location too.
type RemoteRegistrar struct {
	remotes RemoteManager
	logger  *Logger
}

// NewRemoteRegistrar returns a RemoteRegistrar using remotes.
func NewRemoteRegistrar(remotes RemoteManager, logger *Logger) *RemoteRegistrar {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &RemoteRegistrar{remotes: remotes, logger: logger}
}

// Register ensures repoPath has a remote for url. An existing remote of the
// same name is left untouched, whatever URL it points at.
func (r *RemoteRegistrar) Register(ctx context.Context, repoPath, url string) (RemoteResult, error) {
	name := RemoteName(url)
	result := RemoteResult{Name: name, Status: RemoteFailed}
	errCtx := map[string]interface{}{"repo": repoPath, "remote": name, "url": url}

	if name == "" {
		return result, errors.WithContextMap(errors.New(errors.CodeRemoteRegistrationFailed,
			"cannot derive a remote name from an empty URL"), errCtx)
	}

	exists, err := r.remotes.HasRemote(ctx, repoPath, name)
	if err != nil {
		return result, errors.WrapWithContext(err, errors.CodeRemoteRegistrationFailed,
			"failed to list remotes", errCtx)
	}
	if exists {
		r.logger.Debug(ctx, "remote already registered", "remote", name)
		result.Status = RemoteExists
		return result, nil
	}

	if err := r.remotes.AddRemote(ctx, repoPath, name, url); err != nil {
		if errors.HasCode(err, errors.CodeAlreadyExists) {
			result.Status = RemoteExists
			return result, nil
		}
		return result, errors.WrapWithContext(err, errors.CodeRemoteRegistrationFailed,
			"failed to add remote", errCtx)
	}

	r.logger.Info(ctx, "registered remote", "remote", name, "url", url)
	result.Status = RemoteAdded
	return result, nil
}
