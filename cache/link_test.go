package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilijev/git-clone-cache/errors"
)

const otherKey = Key("d6c5ed4260ccae517e1843d8d7eb99b74785219f43501e92b9df312a3fa2158d")

func TestLinker_Reconcile(t *testing.T) {
	ctx := context.Background()
	aliasPath := "/cache/" + aliasKey.String()

	tests := []struct {
		name       string
		setup      func(t *testing.T, fs billy.Filesystem)
		opts       linkOptions
		wantState  LinkState
		wantAction LinkAction
		wantCode   errors.ErrorCode
	}{
		{
			name:       "absent",
			wantState:  StateAbsent,
			wantAction: ActionCreated,
		},
		{
			name: "already linked",
			setup: func(t *testing.T, fs billy.Filesystem) {
				require.NoError(t, fs.Symlink(canonicalKey.String(), aliasPath))
			},
			wantState:  StateLinkedCorrect,
			wantAction: ActionUnchanged,
		},
		{
			name: "linked through absolute target",
			setup: func(t *testing.T, fs billy.Filesystem) {
				require.NoError(t, fs.Symlink("/cache/"+canonicalKey.String(), aliasPath))
			},
			wantState:  StateLinkedCorrect,
			wantAction: ActionUnchanged,
		},
		{
			name: "wrong link",
			setup: func(t *testing.T, fs billy.Filesystem) {
				require.NoError(t, fs.Symlink(otherKey.String(), aliasPath))
			},
			wantState:  StateLinkedWrong,
			wantAction: ActionUnchanged,
			wantCode:   errors.CodeAliasConflict,
		},
		{
			name: "wrong link forced",
			setup: func(t *testing.T, fs billy.Filesystem) {
				require.NoError(t, fs.Symlink(otherKey.String(), aliasPath))
			},
			opts:       linkOptions{force: true},
			wantState:  StateLinkedWrong,
			wantAction: ActionReplaced,
		},
		{
			name: "dangling link",
			setup: func(t *testing.T, fs billy.Filesystem) {
				require.NoError(t, fs.Symlink("gone", aliasPath))
			},
			wantState:  StateLinkedWrong,
			wantAction: ActionUnchanged,
			wantCode:   errors.CodeAliasConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, r := newMemRoot(t)
			require.NoError(t, fs.MkdirAll("/cache/"+otherKey.String(), 0o755))
			if tt.setup != nil {
				tt.setup(t, fs)
			}
			canonical, err := r.Resolve(canonicalKey)
			require.NoError(t, err)

			result, err := NewLinker(fs, r, nil).Reconcile(ctx, aliasKey, canonical, tt.opts)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantState, result.State)
			assert.Equal(t, tt.wantAction, result.Action)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				return
			}
			require.NoError(t, err)

			entry, err := r.Resolve(aliasKey)
			require.NoError(t, err)
			assert.Equal(t, EntrySymlink, entry.Kind)
			assert.Equal(t, canonical.RealPath, entry.RealPath)
		})
	}
}

func TestLinker_ConflictLeavesLinkUntouched(t *testing.T) {
	fs, r := newMemRoot(t)
	aliasPath := "/cache/" + aliasKey.String()
	require.NoError(t, fs.Symlink(otherKey.String(), aliasPath))
	canonical, err := r.Resolve(canonicalKey)
	require.NoError(t, err)

	_, err = NewLinker(fs, r, nil).Reconcile(context.Background(), aliasKey, canonical, linkOptions{})
	require.Error(t, err)

	target, err := fs.Readlink(aliasPath)
	require.NoError(t, err)
	assert.Equal(t, otherKey.String(), target)
}

func TestLinker_Occupied(t *testing.T) {
	ctx := context.Background()
	aliasPath := "/cache/" + aliasKey.String()

	t.Run("without force", func(t *testing.T) {
		fs, r := newMemRoot(t)
		require.NoError(t, util.WriteFile(fs, aliasPath+"/HEAD", []byte("ref: refs/heads/main\n"), 0o644))
		canonical, err := r.Resolve(canonicalKey)
		require.NoError(t, err)

		result, err := NewLinker(fs, r, nil).Reconcile(ctx, aliasKey, canonical, linkOptions{})
		require.Error(t, err)
		assert.Equal(t, errors.CodeAliasOccupied, errors.GetCode(err))
		assert.Equal(t, StateOccupiedNonLink, result.State)

		data, err := util.ReadFile(fs, aliasPath+"/HEAD")
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(data))
	})

	t.Run("forced", func(t *testing.T) {
		fs, r := newMemRoot(t)
		require.NoError(t, util.WriteFile(fs, aliasPath+"/HEAD", []byte("ref: refs/heads/main\n"), 0o644))
		canonical, err := r.Resolve(canonicalKey)
		require.NoError(t, err)

		result, err := NewLinker(fs, r, nil).Reconcile(ctx, aliasKey, canonical, linkOptions{force: true})
		require.NoError(t, err)
		assert.Equal(t, ActionReplaced, result.Action)

		target, err := fs.Readlink(aliasPath)
		require.NoError(t, err)
		assert.Equal(t, canonicalKey.String(), target)
	})

	t.Run("file forced", func(t *testing.T) {
		fs, r := newMemRoot(t)
		require.NoError(t, util.WriteFile(fs, aliasPath, []byte("stray"), 0o644))
		canonical, err := r.Resolve(canonicalKey)
		require.NoError(t, err)

		result, err := NewLinker(fs, r, nil).Reconcile(ctx, aliasKey, canonical, linkOptions{force: true})
		require.NoError(t, err)
		assert.Equal(t, StateOccupiedNonLink, result.State)
		assert.Equal(t, ActionReplaced, result.Action)
	})
}

func TestLinker_DryRun(t *testing.T) {
	ctx := context.Background()
	aliasPath := "/cache/" + aliasKey.String()

	fs, r := newMemRoot(t)
	require.NoError(t, fs.MkdirAll("/cache/"+otherKey.String(), 0o755))
	require.NoError(t, fs.Symlink(otherKey.String(), aliasPath))
	canonical, err := r.Resolve(canonicalKey)
	require.NoError(t, err)
	linker := NewLinker(fs, r, nil)

	result, err := linker.Reconcile(ctx, aliasKey, canonical, linkOptions{force: true, dryRun: true})
	require.NoError(t, err)
	assert.True(t, result.Planned)
	assert.Equal(t, ActionReplaced, result.Action)

	target, err := fs.Readlink(aliasPath)
	require.NoError(t, err)
	assert.Equal(t, otherKey.String(), target)

	result, err = linker.Reconcile(ctx, otherKey, canonical, linkOptions{dryRun: true})
	require.Error(t, err, "dry-run still reports conflicts")
	assert.Equal(t, errors.CodeAliasOccupied, errors.GetCode(err))
	assert.Equal(t, StateOccupiedNonLink, result.State)

	fresh := Key("acf1b51db0771c34d5e8e499de285460ea84067a162a6d5bda5fb7778d2de95e")
	result, err = linker.Reconcile(ctx, fresh, canonical, linkOptions{dryRun: true})
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, result.Action)
	_, err = fs.Lstat("/cache/" + fresh.String())
	assert.True(t, isNotExist(err))
}

func TestLinker_SameKey(t *testing.T) {
	fs, r := newMemRoot(t)
	canonical, err := r.Resolve(canonicalKey)
	require.NoError(t, err)

	result, err := NewLinker(fs, r, nil).Reconcile(context.Background(), canonicalKey, canonical, linkOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateLinkedCorrect, result.State)
	assert.Equal(t, ActionUnchanged, result.Action)
}

// misdirectingFS creates every symlink pointing at target, whatever it is
// asked for.
type misdirectingFS struct {
	billy.Filesystem
	target string
}

func (m misdirectingFS) Symlink(_, link string) error {
	return m.Filesystem.Symlink(m.target, link)
}

func TestLinker_VerificationFailure(t *testing.T) {
	fs, r := newMemRoot(t)
	require.NoError(t, fs.MkdirAll("/cache/"+otherKey.String(), 0o755))
	canonical, err := r.Resolve(canonicalKey)
	require.NoError(t, err)

	linker := NewLinker(misdirectingFS{Filesystem: fs, target: otherKey.String()}, r, nil)
	result, err := linker.Reconcile(context.Background(), aliasKey, canonical, linkOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeLinkVerificationFailed, errors.GetCode(err))
	assert.Equal(t, ActionCreated, result.Action)
}

func TestLinker_CycleAtAlias(t *testing.T) {
	for _, force := range []bool{false, true} {
		t.Run(fmt.Sprintf("force=%v", force), func(t *testing.T) {
			fs, r := newMemRoot(t)
			require.NoError(t, fs.Symlink(aliasKey.String(), "/cache/"+aliasKey.String()))
			canonical, err := r.Resolve(canonicalKey)
			require.NoError(t, err)

			_, err = NewLinker(fs, r, nil).Reconcile(context.Background(), aliasKey, canonical, linkOptions{force: force})
			require.Error(t, err)
			assert.Equal(t, errors.CodeResolutionCycle, errors.GetCode(err))

			target, err := fs.Readlink("/cache/" + aliasKey.String())
			require.NoError(t, err)
			assert.Equal(t, aliasKey.String(), target)
		})
	}
}
