package cache

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilijev/git-clone-cache/errors"
	"github.com/dilijev/git-clone-cache/exec"
	"github.com/dilijev/git-clone-cache/exec/mocks"
)

const (
	canonicalURL = "https://example.com/repo"
	canonicalKey = Key("01a2cc067ea6a95daf8219289bd171dd275ca3341149254ca94772867b6f938d")
	aliasURL     = "https://example.com/repo.git"
	aliasKey     = Key("3f71ca0a9a455fa908a2efa64f43dd6bf7ed6d77de8d06bdcdef5aeaf099bf80")
)

type fixedHasher struct {
	capability Capability
	sum        string
	err        error
}

func (h fixedHasher) Probe(context.Context) Capability { return h.capability }

func (h fixedHasher) Sum(context.Context, string) (string, error) { return h.sum, h.err }

func TestKeyDeriver_Derive(t *testing.T) {
	d := NewKeyDeriver(NewDigestHasher())
	ctx := context.Background()

	tests := []struct {
		url  string
		want Key
	}{
		{canonicalURL, canonicalKey},
		{aliasURL, aliasKey},
		{"git@example.com:repo.git", "b109e5b2ef8536ce2f83f0838533195fe0a98044caea98c4cda2bee201b56831"},
		{"https://example.com/repo/", "acf1b51db0771c34d5e8e499de285460ea84067a162a6d5bda5fb7778d2de95e"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, err := d.Derive(ctx, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)

			again, err := d.Derive(ctx, tt.url)
			require.NoError(t, err)
			assert.Equal(t, key, again)
		})
	}
}

func TestKeyDeriver_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		hasher Hasher
		url    string
		code   errors.ErrorCode
	}{
		{
			name:   "empty url",
			hasher: NewDigestHasher(),
			url:    "",
			code:   errors.CodeInvalidInput,
		},
		{
			name:   "unavailable",
			hasher: fixedHasher{capability: CapabilityUnavailable},
			url:    canonicalURL,
			code:   errors.CodeToolingUnavailable,
		},
		{
			name:   "unknown capability",
			hasher: fixedHasher{capability: CapabilityUnknown},
			url:    canonicalURL,
			code:   errors.CodeToolingUnavailable,
		},
		{
			name:   "hash failure",
			hasher: fixedHasher{capability: CapabilityAvailable, err: fmt.Errorf("broken pipe")},
			url:    canonicalURL,
			code:   errors.CodeToolingUnavailable,
		},
		{
			name:   "malformed digest",
			hasher: fixedHasher{capability: CapabilityAvailable, sum: "not-hex"},
			url:    canonicalURL,
			code:   errors.CodeToolingUnavailable,
		},
		{
			name:   "uppercase digest",
			hasher: fixedHasher{capability: CapabilityAvailable, sum: strings.ToUpper(canonicalKey.String())},
			url:    canonicalURL,
			code:   errors.CodeToolingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyDeriver(tt.hasher).Derive(ctx, tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(canonicalKey.String())
	require.NoError(t, err)
	assert.Equal(t, canonicalKey, key)
	assert.Equal(t, "01a2cc067ea6", key.Short())

	for _, bad := range []string{"", "../etc", canonicalKey.String()[:63], canonicalKey.String() + "0"} {
		_, err := ParseKey(bad)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidInput), bad)
	}
}

func TestCommandHasher(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers sha256sum", func(t *testing.T) {
		mock := &mocks.ExecutorMock{
			RunFunc: func(call mocks.Call) (*exec.Result, error) {
				return &exec.Result{Stdout: canonicalKey.String() + "  -\n"}, nil
			},
		}
		h := NewCommandHasher(mock)
		h.lookPath = func(string) (string, error) { return "/usr/bin/x", nil }

		assert.Equal(t, CapabilityAvailable, h.Probe(ctx))
		key, err := NewKeyDeriver(h).Derive(ctx, canonicalURL)
		require.NoError(t, err)
		assert.Equal(t, canonicalKey, key)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"sha256sum"}, calls[0].Args)
		assert.Equal(t, canonicalURL, calls[0].Stdin, "URL must be hashed without a trailing newline")
	})

	t.Run("falls back to shasum", func(t *testing.T) {
		mock := &mocks.ExecutorMock{
			RunFunc: func(call mocks.Call) (*exec.Result, error) {
				return &exec.Result{Stdout: aliasKey.String() + "  -\n"}, nil
			},
		}
		h := NewCommandHasher(mock)
		h.lookPath = func(name string) (string, error) {
			if name == "shasum" {
				return "/usr/bin/shasum", nil
			}
			return "", fmt.Errorf("not found")
		}

		sum, err := h.Sum(ctx, aliasURL)
		require.NoError(t, err)
		assert.Equal(t, aliasKey.String(), sum)
		assert.Equal(t, []string{"shasum", "-a", "256"}, mock.Calls()[0].Args)
	})

	t.Run("nothing on PATH", func(t *testing.T) {
		mock := &mocks.ExecutorMock{}
		h := NewCommandHasher(mock)
		h.lookPath = func(string) (string, error) { return "", fmt.Errorf("not found") }

		assert.Equal(t, CapabilityUnavailable, h.Probe(ctx))
		_, err := NewKeyDeriver(h).Derive(ctx, canonicalURL)
		assert.Equal(t, errors.CodeToolingUnavailable, errors.GetCode(err))
		assert.Empty(t, mock.Calls())
	})

	t.Run("tool fails", func(t *testing.T) {
		mock := &mocks.ExecutorMock{
			RunFunc: func(call mocks.Call) (*exec.Result, error) {
				return &exec.Result{ExitCode: 1}, &exec.ExecError{Command: call.Args, ExitCode: 1}
			},
		}
		h := NewCommandHasher(mock)
		h.lookPath = func(string) (string, error) { return "/usr/bin/x", nil }

		_, err := h.Sum(ctx, canonicalURL)
		assert.Equal(t, errors.CodeToolingUnavailable, errors.GetCode(err))
	})
}
