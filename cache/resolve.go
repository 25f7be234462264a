package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/dilijev/git-clone-cache/errors"
)

// maxLinkHops bounds symlink expansion, matching the Linux ELOOP limit.
const maxLinkHops = 40

// Resolver inspects key paths in a cache root and resolves them to real
// paths. It never mutates the filesystem.
type Resolver struct {
	fs   billy.Filesystem
	root string
}

// NewResolver returns a Resolver for keys under root on fs.
func NewResolver(fs billy.Filesystem, root string) *Resolver {
	return &Resolver{fs: fs, root: filepath.Clean(root)}
}

// Root returns the cache root.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns root/key.
func (r *Resolver) Path(key Key) string {
	return filepath.Join(r.root, key.String())
}

// Resolve reports what occupies key's path. A symlink cycle anywhere on the
// way is returned as CodeResolutionCycle together with the partial entry.
func (r *Resolver) Resolve(key Key) (*Entry, error) {
	entry := &Entry{Key: key, Kind: EntryMissing, Path: r.Path(key)}

	root, err := r.RealPath(r.root)
	if err != nil {
		if isNotExist(err) {
			return entry, nil
		}
		return entry, err
	}

	physical := filepath.Join(root, key.String())
	info, err := r.fs.Lstat(physical)
	if err != nil {
		if isNotExist(err) {
			return entry, nil
		}
		return entry, errors.WrapWithContext(err, errors.CodeInternal, "failed to inspect cache entry",
			map[string]interface{}{"path": entry.Path})
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		entry.Kind = EntrySymlink
		target, err := r.fs.Readlink(physical)
		if err != nil {
			return entry, errors.WrapWithContext(err, errors.CodeInternal, "failed to read link",
				map[string]interface{}{"path": entry.Path})
		}
		entry.LinkTarget = target
	case info.IsDir():
		entry.Kind = EntryDirectory
	default:
		entry.Kind = EntryFile
	}

	realPath, err := r.RealPath(physical)
	switch {
	case err == nil:
		entry.RealPath = realPath
	case entry.Kind == EntrySymlink && isNotExist(err):
		entry.Dangling = true
	default:
		return entry, err
	}

	return entry, nil
}

// RealPath returns path with every symlink in every component expanded,
// relative link targets taken from the link's directory. A missing
// component yields an error satisfying os.IsNotExist.
func (r *Resolver) RealPath(path string) (string, error) {
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(string(filepath.Separator), path)
	}

	resolved := string(filepath.Separator)
	pending := splitPath(path)
	hops := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		if part == ".." {
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)
		info, err := r.fs.Lstat(next)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", errors.WithContext(
				errors.New(errors.CodeResolutionCycle, "too many levels of symbolic links"),
				"path", path)
		}

		target, err := r.fs.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			resolved = string(filepath.Separator)
		}
		pending = append(splitPath(target), pending...)
	}

	return resolved, nil
}

// IsDir reports whether path exists and is a directory after following
// symlinks.
func (r *Resolver) IsDir(path string) bool {
	realPath, err := r.RealPath(path)
	if err != nil {
		return false
	}
	info, err := r.fs.Lstat(realPath)
	return err == nil && info.IsDir()
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
