package cache

import (
	"context"

	"github.com/opencontainers/go-digest"

	"github.com/dilijev/git-clone-cache/errors"
)

// DirectoryDocument is the name of the URL→key document in the cache root.
const DirectoryDocument = "directory.json"

// keyAlgorithm is the digest every cache key is encoded with.
const keyAlgorithm = digest.SHA256

// Key is the hex digest of a URL and the on-disk name of its cache entry.
type Key string

// ParseKey validates s as a cache key.
func ParseKey(s string) (Key, error) {
	if err := keyAlgorithm.Validate(s); err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "invalid cache key %q", s)
	}
	return Key(s), nil
}

func (k Key) String() string {
	return string(k)
}

// Short returns a prefix of the key for log lines.
func (k Key) Short() string {
	if len(k) > 12 {
		return string(k[:12])
	}
	return string(k)
}

// Capability is the result of probing an external tool.
type Capability int

const (
	CapabilityUnknown Capability = iota
	CapabilityAvailable
	CapabilityUnavailable
)

func (c Capability) String() string {
	switch c {
	case CapabilityAvailable:
		return "available"
	case CapabilityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Hasher computes the hex digest a cache key is made of.
type Hasher interface {
	// Probe reports whether the hasher can run in this environment.
	Probe(ctx context.Context) Capability

	// Sum returns the lowercase hex SHA-256 digest of data.
	Sum(ctx context.Context, data string) (string, error)
}

// DocumentStore persists the URL→key directory document.
type DocumentStore interface {
	// Probe reports whether the backing tool is usable.
	Probe(ctx context.Context) Capability

	// Get returns the key recorded for url.
	Get(ctx context.Context, url string) (Key, bool, error)

	// Put records key for url and reports whether the document changed.
	Put(ctx context.Context, url string, key Key) (bool, error)
}

// RemoteManager manages the remotes of a repository on disk.
type RemoteManager interface {
	HasRemote(ctx context.Context, repoPath, name string) (bool, error)
	AddRemote(ctx context.Context, repoPath, name, url string) error
}

// EntryKind classifies what occupies a key's path.
type EntryKind string

const (
	EntryMissing   EntryKind = "missing"
	EntryDirectory EntryKind = "directory"
	EntrySymlink   EntryKind = "symlink"
	EntryFile      EntryKind = "file"
)

// Entry is the on-disk state of a cache key.
type Entry struct {
	Key  Key
	Kind EntryKind

	// Path is root/key, not resolved.
	Path string

	// LinkTarget is the raw link text. Symlinks only.
	LinkTarget string

	// RealPath is Path with every symlink resolved. Empty for missing
	// entries and dangling links.
	RealPath string

	// Dangling is set for symlinks whose target does not exist.
	Dangling bool
}

// LinkState is the state of an alias key found on entry to reconciliation.
type LinkState string

const (
	StateAbsent          LinkState = "absent"
	StateLinkedCorrect   LinkState = "linked-correct"
	StateLinkedWrong     LinkState = "linked-wrong"
	StateOccupiedNonLink LinkState = "occupied"
)

// LinkAction is what reconciliation did (or, in dry-run, would do).
type LinkAction string

const (
	ActionUnchanged LinkAction = "unchanged"
	ActionCreated   LinkAction = "created"
	ActionReplaced  LinkAction = "replaced"
)

// LinkResult describes one reconciliation.
type LinkResult struct {
	State  LinkState
	Action LinkAction

	// Planned is set when the action was only reported (dry-run).
	Planned bool

	Path   string
	Target string
}

// IndexStatus is the outcome of a directory document update.
type IndexStatus string

const (
	IndexUpdated   IndexStatus = "updated"
	IndexUnchanged IndexStatus = "unchanged"
	IndexSkipped   IndexStatus = "skipped"
)

// RemoteStatus is the outcome of a remote registration.
type RemoteStatus string

const (
	RemoteAdded   RemoteStatus = "added"
	RemoteExists  RemoteStatus = "exists"
	RemoteFailed  RemoteStatus = "failed"
	RemoteSkipped RemoteStatus = "skipped"
)

// RemoteResult describes one remote registration.
type RemoteResult struct {
	Name   string
	Status RemoteStatus
}

// AliasResult is the outcome for one alias URL.
type AliasResult struct {
	URL    string
	Key    Key
	Link   LinkResult
	Index  IndexStatus
	Remote RemoteResult

	// RemoteErr holds a registration failure; it does not fail the alias.
	RemoteErr error
}

// Report summarizes an Alias run. Aliases lists every alias processed
// before the run ended, including the one that failed, if any.
type Report struct {
	CanonicalURL  string
	CanonicalKey  Key
	CanonicalPath string
	DryRun        bool
	Aliases       []AliasResult
}

// LookupResult describes what the cache knows about one URL.
type LookupResult struct {
	URL   string
	Key   Key
	Entry *Entry

	// IndexedKey is the directory document's row for URL, if any.
	IndexedKey Key
	Indexed    bool
}
