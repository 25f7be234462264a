package cache

import (
	"context"
	_ "crypto/sha256"
	"strings"

	"github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/exec"
)

// DigestHasher hashes in-process with go-digest.
type DigestHasher struct{}

// NewDigestHasher returns the default hasher.
func NewDigestHasher() *DigestHasher {
	return &DigestHasher{}
}

// Probe reports whether SHA-256 is linked into the binary.
func (h *DigestHasher) Probe(context.Context) Capability {
	if keyAlgorithm.Available() {
		return CapabilityAvailable
	}
	return CapabilityUnavailable
}

// Sum returns the hex SHA-256 digest of data.
func (h *DigestHasher) Sum(_ context.Context, data string) (string, error) {
	return keyAlgorithm.FromString(data).Encoded(), nil
}

// CommandHasher pipes data through an external SHA-256 tool, preferring
// sha256sum and falling back to `shasum -a 256`.
type CommandHasher struct {
	executor   exec.Executor
	candidates [][]string
	lookPath   func(string) (string, error)
}

// NewCommandHasher returns a CommandHasher running through executor.
func NewCommandHasher(executor exec.Executor) *CommandHasher {
	return &CommandHasher{
		executor: executor,
		candidates: [][]string{
			{"sha256sum"},
			{"shasum", "-a", "256"},
		},
		lookPath: exec.LookPath,
	}
}

// Probe reports whether any candidate tool is on PATH.
func (h *CommandHasher) Probe(context.Context) Capability {
	if h.command() == nil {
		return CapabilityUnavailable
	}
	return CapabilityAvailable
}

// Sum runs the first available tool with data on stdin and returns the
// first field of its output.
func (h *CommandHasher) Sum(ctx context.Context, data string) (string, error) {
	cmd := h.command()
	if cmd == nil {
		return "", errors.New(errors.CodeToolingUnavailable, "neither sha256sum nor shasum is on PATH")
	}

	res, err := h.executor.Clone().
		WithContext(ctx).
		WithStdin(strings.NewReader(data)).
		Run(cmd...)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeToolingUnavailable, "%s failed", cmd[0])
	}

	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return "", errors.Newf(errors.CodeToolingUnavailable, "%s printed no digest", cmd[0])
	}
	return strings.ToLower(fields[0]), nil
}

func (h *CommandHasher) command() []string {
	for _, c := range h.candidates {
		if _, err := h.lookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// KeyDeriver turns URLs into cache keys. The URL is hashed byte for byte:
// no trimming, case folding or scheme normalization.
type KeyDeriver struct {
	hasher Hasher
}

// NewKeyDeriver returns a KeyDeriver using hasher.
func NewKeyDeriver(hasher Hasher) *KeyDeriver {
	return &KeyDeriver{hasher: hasher}
}

// Derive returns the cache key of url.
func (d *KeyDeriver) Derive(ctx context.Context, url string) (Key, error) {
	if url == "" {
		return "", errors.New(errors.CodeInvalidInput, "URL must not be empty")
	}
	if d.hasher.Probe(ctx) != CapabilityAvailable {
		return "", errors.New(errors.CodeToolingUnavailable, "no SHA-256 hashing capability available")
	}

	sum, err := d.hasher.Sum(ctx, url)
	if err != nil {
		if errors.HasCode(err, errors.CodeToolingUnavailable) {
			return "", err
		}
		return "", errors.Wrap(err, errors.CodeToolingUnavailable, "failed to hash URL")
	}
	if err := keyAlgorithm.Validate(sum); err != nil {
		return "", errors.Wrapf(err, errors.CodeToolingUnavailable, "hasher returned malformed digest %q", sum)
	}

	return Key(sum), nil
}
