package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/exec"
	"github.com/dilijev/git-clone-cache/exec/mocks"
)

const docPath = "/cache/" + DirectoryDocument

func TestJSONDocumentStore(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	store := NewJSONDocumentStore(fs, docPath)

	_, ok, err := store.Get(ctx, aliasURL)
	require.NoError(t, err)
	assert.False(t, ok, "missing document reads as empty")

	changed, err := store.Put(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Put(ctx, canonicalURL, canonicalKey)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := util.ReadFile(fs, docPath)
	require.NoError(t, err)
	want := fmt.Sprintf("{\n  %q: %q,\n  %q: %q\n}\n", canonicalURL, canonicalKey, aliasURL, aliasKey)
	assert.Equal(t, want, string(data), "keys sorted, two-space indent")

	changed, err = store.Put(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.False(t, changed)

	key, ok, err := store.Get(ctx, aliasURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, aliasKey, key)

	entries, err := fs.ReadDir("/cache")
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")
	assert.Equal(t, DirectoryDocument, entries[0].Name())
}

func TestJSONDocumentStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewJSONDocumentStore(memfs.New(), docPath)

	_, err := store.Put(ctx, aliasURL, otherKey)
	require.NoError(t, err)
	changed, err := store.Put(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.True(t, changed)

	key, _, err := store.Get(ctx, aliasURL)
	require.NoError(t, err)
	assert.Equal(t, aliasKey, key)
}

func TestJSONDocumentStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, docPath, []byte("{not json"), 0o644))

	_, err := NewJSONDocumentStore(fs, docPath).Put(ctx, aliasURL, aliasKey)
	require.Error(t, err)
	assert.Equal(t, errors.CodeIndexUpdateFailed, errors.GetCode(err))

	data, err := util.ReadFile(fs, docPath)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "unreadable document is never clobbered")
}

func TestDirectoryIndex_Upsert(t *testing.T) {
	ctx := context.Background()
	index := NewDirectoryIndex(NewJSONDocumentStore(memfs.New(), docPath), nil)

	status, err := index.Upsert(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.Equal(t, IndexUpdated, status)

	status, err = index.Upsert(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.Equal(t, IndexUnchanged, status)

	key, ok, err := index.Lookup(ctx, aliasURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, aliasKey, key)
}

func TestDirectoryIndex_UnavailableBackend(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	fs := memfs.New()
	store := NewJQDocumentStore(fs, docPath, &mocks.ExecutorMock{}, "")
	store.lookPath = func(string) (string, error) { return "", fmt.Errorf("not found") }
	index := NewDirectoryIndex(store, NewLogger(LogConfig{Output: &out}))

	status, err := index.Upsert(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.Equal(t, IndexSkipped, status)
	assert.Contains(t, out.String(), "level=warning")

	_, err = fs.Stat(docPath)
	assert.True(t, isNotExist(err))

	_, ok, err := index.Lookup(ctx, aliasURL)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryIndex_StoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, docPath, []byte("[1, 2]"), 0o644))

	_, err := NewDirectoryIndex(NewJSONDocumentStore(fs, docPath), nil).Upsert(ctx, aliasURL, aliasKey)
	require.Error(t, err)
	assert.Equal(t, errors.CodeIndexUpdateFailed, errors.GetCode(err))

	var platformErr errors.PlatformError
	require.True(t, errors.As(err, &platformErr))
	assert.Equal(t, aliasURL, platformErr.Context()["url"])
}

func TestJQDocumentStore(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, docPath, []byte(`{"a": "b"}`), 0o644))

	updated := fmt.Sprintf("{\n  \"a\": \"b\",\n  %q: %q\n}\n", aliasURL, aliasKey)
	mock := &mocks.ExecutorMock{
		RunFunc: func(call mocks.Call) (*exec.Result, error) {
			if call.Args[1] == "-r" {
				return &exec.Result{}, nil
			}
			return &exec.Result{Stdout: updated}, nil
		},
	}
	store := NewJQDocumentStore(fs, docPath, mock, "/usr/bin/jq")
	store.lookPath = func(string) (string, error) { return "/usr/bin/jq", nil }

	assert.Equal(t, CapabilityAvailable, store.Probe(ctx))
	changed, err := store.Put(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.True(t, changed)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"/usr/bin/jq", "-r", "--arg", "url", aliasURL, ".[$url] // empty"}, calls[0].Args)
	assert.Equal(t, []string{"/usr/bin/jq", "-S", "--arg", "url", aliasURL, "--arg", "key", aliasKey.String(), ".[$url] = $key"}, calls[1].Args)
	assert.Equal(t, `{"a": "b"}`, calls[1].Stdin)

	data, err := util.ReadFile(fs, docPath)
	require.NoError(t, err)
	assert.Equal(t, updated, string(data))
}

func TestJQDocumentStore_Unchanged(t *testing.T) {
	ctx := context.Background()
	mock := &mocks.ExecutorMock{
		RunFunc: func(call mocks.Call) (*exec.Result, error) {
			return &exec.Result{Stdout: aliasKey.String() + "\n"}, nil
		},
	}
	store := NewJQDocumentStore(memfs.New(), docPath, mock, "")

	changed, err := store.Put(ctx, aliasURL, aliasKey)
	require.NoError(t, err)
	assert.False(t, changed)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "jq", calls[0].Args[0])
	assert.Equal(t, "{}", calls[0].Stdin, "missing document is fed to jq as an empty object")
}

func TestJQDocumentStore_Failure(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, docPath, []byte("{broken"), 0o644))
	mock := &mocks.ExecutorMock{
		RunFunc: func(call mocks.Call) (*exec.Result, error) {
			stderr := "jq: error (at <stdin>:1): Cannot parse"
			return &exec.Result{Stderr: stderr, ExitCode: 2}, &exec.ExecError{Command: call.Args, ExitCode: 2, Stderr: stderr}
		},
	}

	_, err := NewJQDocumentStore(fs, docPath, mock, "").Put(ctx, aliasURL, aliasKey)
	require.Error(t, err)
	assert.Equal(t, errors.CodeIndexUpdateFailed, errors.GetCode(err))
	assert.True(t, strings.Contains(err.Error(), "Cannot parse"))

	data, err := util.ReadFile(fs, docPath)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}
