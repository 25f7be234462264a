package cache

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/git"
)

// Cache is a clone cache rooted at one directory.
type Cache struct {
	root      string
	fs        billy.Filesystem
	keys      *KeyDeriver
	resolver  *Resolver
	linker    *Linker
	index     *DirectoryIndex
	registrar *RemoteRegistrar
	logger    *Logger
}

// New returns a Cache rooted at root. A relative root is made absolute
// against the working directory. The root itself need not exist yet.
func New(root string, opts ...Option) (*Cache, error) {
	if root == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "cache root must not be empty")
	}
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to make cache root %q absolute", root)
		}
		root = abs
	}
	root = filepath.Clean(root)

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	if o.hasher == nil {
		o.hasher = NewDigestHasher()
	}
	if o.store == nil {
		o.store = NewJSONDocumentStore(o.fs, filepath.Join(root, DirectoryDocument))
	}
	if o.remotes == nil {
		o.remotes = git.NewNativeRemotes(o.fs)
	}
	if o.logger == nil {
		o.logger = NewNopLogger()
	}

	resolver := NewResolver(o.fs, root)
	return &Cache{
		root:      root,
		fs:        o.fs,
		keys:      NewKeyDeriver(o.hasher),
		resolver:  resolver,
		linker:    NewLinker(o.fs, resolver, o.logger),
		index:     NewDirectoryIndex(o.store, o.logger),
		registrar: NewRemoteRegistrar(o.remotes, o.logger),
		logger:    o.logger,
	}, nil
}

// Root returns the cache root.
func (c *Cache) Root() string {
	return c.root
}

// Key returns the cache key of url.
func (c *Cache) Key(ctx context.Context, url string) (Key, error) {
	key, err := c.keys.Derive(ctx, url)
	if err != nil {
		return "", errors.WithContext(err, "url", url)
	}
	return key, nil
}

// Lookup reports the key, on-disk entry and directory row of url.
// It never mutates the cache.
func (c *Cache) Lookup(ctx context.Context, url string) (*LookupResult, error) {
	key, err := c.Key(ctx, url)
	if err != nil {
		return nil, err
	}

	entry, err := c.resolver.Resolve(key)
	if err != nil {
		return nil, errors.WithContextMap(err, map[string]interface{}{"url": url, "key": key.String()})
	}

	indexed, ok, err := c.index.Lookup(ctx, url)
	if err != nil {
		return nil, errors.WithContextMap(err, map[string]interface{}{"url": url, "key": key.String()})
	}

	return &LookupResult{URL: url, Key: key, Entry: entry, IndexedKey: indexed, Indexed: ok}, nil
}

// Alias links every alias URL to the entry of canonicalURL, records it in
// the directory document and registers it as a remote of the canonical
// mirror.
//
// Aliases are processed in order and the first fatal error stops the run;
// aliases completed before it stay in place and are listed in the report.
// Remote registration failures are not fatal and land in the AliasResult.
func (c *Cache) Alias(ctx context.Context, canonicalURL string, aliasURLs []string, opts ...AliasOption) (*Report, error) {
	o := &aliasOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if len(aliasURLs) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "at least one alias URL is required")
	}

	logger := c.logger.WithOperation("alias")
	canonicalKey, err := c.Key(ctx, canonicalURL)
	if err != nil {
		return nil, err
	}

	canonical, err := c.canonicalEntry(canonicalURL, canonicalKey)
	if err != nil {
		logger.Error(ctx, "canonical entry unusable",
			"url", canonicalURL, "key", canonicalKey.Short(), "code", errors.GetCode(err), "error", err)
		return nil, err
	}

	report := &Report{
		CanonicalURL:  canonicalURL,
		CanonicalKey:  canonicalKey,
		CanonicalPath: canonical.RealPath,
		DryRun:        o.dryRun,
	}
	logger.Info(ctx, "canonical entry",
		"url", canonicalURL, "key", canonicalKey.Short(), "path", canonical.Path, "real_path", canonical.RealPath,
		"aliases", len(aliasURLs), "force", o.force, "dry_run", o.dryRun)

	for _, aliasURL := range aliasURLs {
		result, err := c.alias(ctx, logger, canonical, aliasURL, o)
		if result != nil {
			report.Aliases = append(report.Aliases, *result)
		}
		if err != nil {
			logger.Error(ctx, "alias failed", "url", aliasURL, "code", errors.GetCode(err), "error", err)
			return report, err
		}
	}

	logger.Info(ctx, "alias run complete", "aliases", len(report.Aliases), "dry_run", o.dryRun)
	return report, nil
}

func (c *Cache) alias(ctx context.Context, logger *Logger, canonical *Entry, url string, o *aliasOptions) (*AliasResult, error) {
	key, err := c.Key(ctx, url)
	if err != nil {
		return nil, err
	}
	errCtx := map[string]interface{}{"url": url, "key": key.String()}
	logger = logger.With("alias", url).WithKey(key)
	logger.Debug(ctx, "processing alias", "path", c.resolver.Path(key))

	result := &AliasResult{URL: url, Key: key, Index: IndexSkipped, Remote: RemoteResult{Status: RemoteSkipped}}

	link, err := c.linker.Reconcile(ctx, key, canonical, linkOptions{force: o.force, dryRun: o.dryRun})
	if link != nil {
		result.Link = *link
	}
	if err != nil {
		return result, errors.WithContextMap(err, errCtx)
	}

	if o.dryRun {
		logger.Info(ctx, "dry-run: would record URL in directory document and register remote",
			"remote", RemoteName(url))
		return result, nil
	}

	status, err := c.index.Upsert(ctx, url, key)
	if err != nil {
		return result, err
	}
	result.Index = status

	if key == canonical.Key {
		logger.Debug(ctx, "alias is the canonical URL, not registering a remote")
		return result, nil
	}

	remote, err := c.registrar.Register(ctx, canonical.RealPath, url)
	result.Remote = remote
	if err != nil {
		logger.Warn(ctx, "failed to register alias as remote", "remote", remote.Name, "error", err)
		result.RemoteErr = err
	}

	return result, nil
}

// canonicalEntry resolves the canonical key and requires it to end in a
// directory.
func (c *Cache) canonicalEntry(url string, key Key) (*Entry, error) {
	errCtx := map[string]interface{}{"url": url, "key": key.String()}

	entry, err := c.resolver.Resolve(key)
	if err != nil {
		return nil, errors.WithContextMap(err, errCtx)
	}
	errCtx["path"] = entry.Path

	switch {
	case entry.Kind == EntryMissing:
		return nil, errors.WithContextMap(errors.Newf(errors.CodeCanonicalMissing,
			"canonical cache entry %s does not exist; clone %s into it first", entry.Path, url), errCtx)
	case entry.Dangling:
		errCtx["link_target"] = entry.LinkTarget
		return nil, errors.WithContextMap(errors.Newf(errors.CodeCanonicalMissing,
			"canonical cache entry %s is a dangling symlink", entry.Path), errCtx)
	case !c.resolver.IsDir(entry.RealPath):
		return nil, errors.WithContextMap(errors.Newf(errors.CodeCanonicalMissing,
			"canonical cache entry %s is not a directory", entry.Path), errCtx)
	}

	return entry, nil
}
