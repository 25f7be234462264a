// Package testutil provides in-memory implementations of the cache
// collaborators for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/dilijev/git-clone-cache/cache"
	"github.com/dilijev/git-clone-cache/errors"
)

// StaticHasher returns fixed digests. Sums maps input to digest; inputs
// without an entry fail. Capability defaults to available.
type StaticHasher struct {
	Capability cache.Capability
	Sums       map[string]string
}

func (h *StaticHasher) Probe(context.Context) cache.Capability {
	if h.Capability == cache.CapabilityUnknown {
		return cache.CapabilityAvailable
	}
	return h.Capability
}

func (h *StaticHasher) Sum(_ context.Context, data string) (string, error) {
	sum, ok := h.Sums[data]
	if !ok {
		return "", errors.Newf(errors.CodeToolingUnavailable, "no digest configured for %q", data)
	}
	return sum, nil
}

// MemoryDocumentStore keeps the directory document in a map.
type MemoryDocumentStore struct {
	Capability cache.Capability
	// PutErr, when set, is returned by every Put.
	PutErr error

	mu   sync.Mutex
	docs map[string]cache.Key
	puts int
}

// NewMemoryDocumentStore returns an empty, available store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string]cache.Key)}
}

func (s *MemoryDocumentStore) Probe(context.Context) cache.Capability {
	if s.Capability == cache.CapabilityUnknown {
		return cache.CapabilityAvailable
	}
	return s.Capability
}

func (s *MemoryDocumentStore) Get(_ context.Context, url string) (cache.Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.docs[url]
	return key, ok, nil
}

func (s *MemoryDocumentStore) Put(_ context.Context, url string, key cache.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return false, s.PutErr
	}
	if s.docs[url] == key {
		return false, nil
	}
	s.docs[url] = key
	s.puts++
	return true, nil
}

// Entries returns a copy of the document.
func (s *MemoryDocumentStore) Entries() map[string]cache.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]cache.Key, len(s.docs))
	for k, v := range s.docs {
		out[k] = v
	}
	return out
}

// Writes returns how many Puts changed the document.
func (s *MemoryDocumentStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// MemoryRemoteManager records remotes per repository path.
type MemoryRemoteManager struct {
	// AddErr, when set, is returned by every AddRemote.
	AddErr error

	mu      sync.Mutex
	remotes map[string]map[string]string
}

// NewMemoryRemoteManager returns a manager with no remotes.
func NewMemoryRemoteManager() *MemoryRemoteManager {
	return &MemoryRemoteManager{remotes: make(map[string]map[string]string)}
}

func (m *MemoryRemoteManager) HasRemote(_ context.Context, repoPath, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.remotes[repoPath][name]
	return ok, nil
}

func (m *MemoryRemoteManager) AddRemote(_ context.Context, repoPath, name, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	if _, ok := m.remotes[repoPath][name]; ok {
		return errors.Newf(errors.CodeAlreadyExists, "remote %s already exists", name)
	}
	if m.remotes[repoPath] == nil {
		m.remotes[repoPath] = make(map[string]string)
	}
	m.remotes[repoPath][name] = url
	return nil
}

// Remotes returns a copy of the remotes of repoPath, name to URL.
func (m *MemoryRemoteManager) Remotes(repoPath string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.remotes[repoPath]))
	for k, v := range m.remotes[repoPath] {
		out[k] = v
	}
	return out
}

// SHA-256 keys of the git/testutil sample URLs.
const (
	CanonicalKey cache.Key = "01a2cc067ea6a95daf8219289bd171dd275ca3341149254ca94772867b6f938d"
	AliasKey     cache.Key = "3f71ca0a9a455fa908a2efa64f43dd6bf7ed6d77de8d06bdcdef5aeaf099bf80"
	SSHAliasKey  cache.Key = "b109e5b2ef8536ce2f83f0838533195fe0a98044caea98c4cda2bee201b56831"
)
