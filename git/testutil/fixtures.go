package testutil

// Sample repository URLs used across tests.
const (
	// CanonicalURL is the URL a mirror is normally cloned from.
	CanonicalURL = "https://example.com/repo"

	// AliasURL refers to the same repository with a .git suffix.
	AliasURL = "https://example.com/repo.git"

	// SSHAliasURL refers to the same repository over SSH.
	SSHAliasURL = "git@example.com:repo.git"
)
