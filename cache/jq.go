package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/exec"
)

// JQDocumentStore edits the directory document with the jq binary. When
// jq is not on PATH the store probes as unavailable and the index update
// is skipped.
type JQDocumentStore struct {
	fs       billy.Filesystem
	path     string
	jq       *exec.CommandWrapper
	lookPath func(string) (string, error)
	mu       sync.Mutex
}

// NewJQDocumentStore returns a store for the document at path on fs,
// running binary (default "jq") through executor.
func NewJQDocumentStore(fs billy.Filesystem, path string, executor exec.Executor, binary string) *JQDocumentStore {
	if binary == "" {
		binary = "jq"
	}
	return &JQDocumentStore{
		fs:       fs,
		path:     path,
		jq:       exec.NewWrapper(executor, binary),
		lookPath: exec.LookPath,
	}
}

// Probe reports whether jq is on PATH.
func (s *JQDocumentStore) Probe(context.Context) Capability {
	if _, err := s.lookPath(s.jq.Binary()); err != nil {
		return CapabilityUnavailable
	}
	return CapabilityAvailable
}

// Get runs `jq -r '.[$url] // empty'` over the document.
func (s *JQDocumentStore) Get(ctx context.Context, url string) (Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	return s.get(ctx, doc, url)
}

// Put runs `jq -S '.[$url] = $key'` over the document and writes the
// result back atomically, unless the entry is already current.
func (s *JQDocumentStore) Put(ctx context.Context, url string, key Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}

	existing, ok, err := s.get(ctx, doc, url)
	if err != nil {
		return false, err
	}
	if ok && existing == key {
		return false, nil
	}

	res, err := s.jq.Clone().
		WithContext(ctx).
		WithStdin(bytes.NewReader(doc)).
		Run("-S", "--arg", "url", url, "--arg", "key", key.String(), ".[$url] = $key")
	if err != nil {
		return false, errors.WrapWithContext(err, errors.CodeIndexUpdateFailed,
			"jq failed to update directory document", map[string]interface{}{"path": s.path})
	}

	if err := writeDocument(s.fs, s.path, []byte(res.Stdout)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JQDocumentStore) get(ctx context.Context, doc []byte, url string) (Key, bool, error) {
	res, err := s.jq.Clone().
		WithContext(ctx).
		WithStdin(bytes.NewReader(doc)).
		Run("-r", "--arg", "url", url, ".[$url] // empty")
	if err != nil {
		return "", false, errors.WrapWithContext(err, errors.CodeIndexUpdateFailed,
			"jq failed to read directory document", map[string]interface{}{"path": s.path})
	}

	value := strings.TrimSpace(res.Stdout)
	if value == "" {
		return "", false, nil
	}
	return Key(value), true, nil
}

// read returns the document bytes, "{}" when it does not exist yet.
func (s *JQDocumentStore) read() ([]byte, error) {
	data, err := readDocument(s.fs, s.path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}
