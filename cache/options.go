package cache

import (
	"github.com/go-git/go-billy/v5"
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	fs      billy.Filesystem
	hasher  Hasher
	store   DocumentStore
	remotes RemoteManager
	logger  *Logger
}

// WithFilesystem sets the filesystem the cache root lives on. Defaults to
// the local filesystem rooted at "/".
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithHasher sets the key hasher. Defaults to DigestHasher.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// WithDocumentStore sets the directory document backend. Defaults to a
// JSONDocumentStore at <root>/directory.json.
func WithDocumentStore(s DocumentStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithRemoteManager sets the remote manager. Defaults to go-git on the
// cache filesystem.
func WithRemoteManager(m RemoteManager) Option {
	return func(o *options) {
		o.remotes = m
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// AliasOption configures one Alias run.
type AliasOption func(*aliasOptions)

type aliasOptions struct {
	force  bool
	dryRun bool
}

// WithForce replaces a conflicting symlink or an occupying directory at an
// alias key.
func WithForce() AliasOption {
	return func(o *aliasOptions) {
		o.force = true
	}
}

// WithDryRun reports planned mutations without performing them.
func WithDryRun() AliasOption {
	return func(o *aliasOptions) {
		o.dryRun = true
	}
}
