// Package cache implements alias linking for a content-addressable cache of
// repository mirrors.
//
// Every URL maps to a cache key, the SHA-256 digest of the URL bytes, and
// the entry for a key lives at <root>/<key>. A canonical entry is a real
// directory holding a mirror, populated by some other tool. Alias URLs that
// denote the same repository get a symlink at their own key pointing at the
// canonical key, so a lookup by any of them lands on one physical mirror:
//
//	c, err := cache.New("/home/me/.git-clone-cache", cache.WithLogger(logger))
//	report, err := c.Alias(ctx,
//	    "https://example.com/repo",
//	    []string{"https://example.com/repo.git", "git@example.com:repo.git"})
//
// For each alias, in order, Alias
//
//   - derives the alias key (KeyDeriver),
//   - reconciles <root>/<alias key> to a symlink to the canonical key
//     (Linker; WithForce replaces conflicting links and directories),
//   - records URL→key in <root>/directory.json (DirectoryIndex),
//   - adds the alias URL as a remote of the canonical mirror
//     (RemoteRegistrar).
//
// Link, index and verification failures stop the run. Remote registration
// failures are logged and reported but do not. WithDryRun logs every planned
// mutation and performs none.
//
// The external collaborators are small interfaces with an in-process
// default and a subprocess alternative: Hasher (DigestHasher,
// CommandHasher), DocumentStore (JSONDocumentStore, JQDocumentStore) and
// RemoteManager (git.NativeRemotes, git.CLIRemotes).
package cache
