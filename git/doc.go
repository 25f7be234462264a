// Package git is a thin wrapper around go-git for the repository operations
// the clone cache needs: opening (or, in tests, initializing) mirrors and
// managing their remotes.
//
// All repository I/O goes through a go-billy filesystem. By default that is
// the local filesystem rooted at "/", so absolute cache paths work unchanged;
// tests pass memfs through WithFilesystem.
//
// go-git errors are classified onto the platform error codes of the errors
// package (a missing repository is CodeNotFound, a duplicate remote is
// CodeAlreadyExists), so callers never match go-git sentinels directly.
//
// Two remote managers implement the same small surface:
//
//   - NativeRemotes uses go-git and needs no git binary.
//   - CLIRemotes shells out to a git binary through the exec package.
//
// Example:
//
//	remotes := git.NewNativeRemotes(nil)
//	exists, err := remotes.HasRemote(ctx, "/cache/abc123", "https---example.com-repo-git")
//	if err == nil && !exists {
//	    err = remotes.AddRemote(ctx, "/cache/abc123", "https---example.com-repo-git",
//	        "https://example.com/repo.git")
//	}
package git
