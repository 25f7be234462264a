package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/dilijev/git-clone-cache/errors"
)

// DirectoryIndex keeps the URL→key directory document up to date. It
// tolerates a missing store backend but never overwrites a document it
// could not read.
type DirectoryIndex struct {
	store  DocumentStore
	logger *Logger
}

// NewDirectoryIndex returns a DirectoryIndex over store.
func NewDirectoryIndex(store DocumentStore, logger *Logger) *DirectoryIndex {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &DirectoryIndex{store: store, logger: logger}
}

// Upsert records url→key.
func (d *DirectoryIndex) Upsert(ctx context.Context, url string, key Key) (IndexStatus, error) {
	if d.store.Probe(ctx) != CapabilityAvailable {
		d.logger.Warn(ctx, "directory document backend unavailable, skipping index update", "url", url)
		return IndexSkipped, nil
	}

	changed, err := d.store.Put(ctx, url, key)
	if err != nil {
		if !errors.HasCode(err, errors.CodeIndexUpdateFailed) {
			err = errors.Wrap(err, errors.CodeIndexUpdateFailed, "failed to update directory document")
		}
		return "", errors.WithContextMap(err, map[string]interface{}{"url": url, "key": key.String()})
	}

	if !changed {
		d.logger.Debug(ctx, "directory document already up to date", "url", url, "key", key.Short())
		return IndexUnchanged, nil
	}
	d.logger.Info(ctx, "recorded URL in directory document", "url", url, "key", key.Short())
	return IndexUpdated, nil
}

// Lookup returns the key recorded for url. An unavailable backend reads
// as an empty document.
func (d *DirectoryIndex) Lookup(ctx context.Context, url string) (Key, bool, error) {
	if d.store.Probe(ctx) != CapabilityAvailable {
		d.logger.Debug(ctx, "directory document backend unavailable", "url", url)
		return "", false, nil
	}
	return d.store.Get(ctx, url)
}

// JSONDocumentStore reads and writes the directory document in-process.
type JSONDocumentStore struct {
	fs   billy.Filesystem
	path string
	mu   sync.Mutex
}

// NewJSONDocumentStore returns a store for the document at path on fs.
func NewJSONDocumentStore(fs billy.Filesystem, path string) *JSONDocumentStore {
	return &JSONDocumentStore{fs: fs, path: path}
}

// Probe always succeeds: the store needs nothing outside the process.
func (s *JSONDocumentStore) Probe(context.Context) Capability {
	return CapabilityAvailable
}

// Get returns the key recorded for url.
func (s *JSONDocumentStore) Get(_ context.Context, url string) (Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	key, ok := doc[url]
	return Key(key), ok, nil
}

// Put records key for url. The document is rewritten only when the entry
// is new or different.
func (s *JSONDocumentStore) Put(_ context.Context, url string, key Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	if existing, ok := doc[url]; ok && existing == key.String() {
		return false, nil
	}
	doc[url] = key.String()

	// encoding/json sorts map keys, which keeps diffs of the file stable.
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, errors.Wrap(err, errors.CodeIndexUpdateFailed, "failed to encode directory document")
	}
	if err := writeDocument(s.fs, s.path, append(data, '\n')); err != nil {
		return false, err
	}
	return true, nil
}

// load reads the document; a missing or empty file is an empty document.
func (s *JSONDocumentStore) load() (map[string]string, error) {
	data, err := readDocument(s.fs, s.path)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]string)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeIndexUpdateFailed,
			"directory document is not a JSON object of strings", map[string]interface{}{"path": s.path})
	}
	return doc, nil
}

// readDocument returns the trimmed document bytes, or nil when the
// document does not exist yet.
func readDocument(fs billy.Filesystem, path string) ([]byte, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithContext(err, errors.CodeIndexUpdateFailed,
			"failed to read directory document", map[string]interface{}{"path": path})
	}
	return bytes.TrimSpace(data), nil
}

// writeDocument replaces path atomically: the data goes to a uniquely
// named sibling first and is renamed over the document.
func writeDocument(fs billy.Filesystem, path string, data []byte) error {
	fail := func(err error, msg string) error {
		return errors.WrapWithContext(err, errors.CodeIndexUpdateFailed, msg, map[string]interface{}{"path": path})
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fail(err, "failed to create directory document parent")
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	tmpFile, err := fs.Create(tmpPath)
	if err != nil {
		return fail(err, "failed to create temporary directory document")
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = fs.Remove(tmpPath)
		return fail(err, "failed to write temporary directory document")
	}

	if err := tmpFile.Close(); err != nil {
		_ = fs.Remove(tmpPath)
		return fail(err, "failed to close temporary directory document")
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fail(err, "failed to replace directory document")
	}

	return nil
}
