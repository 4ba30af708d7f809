package transcript_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xeb/lldb-copilot/internal/transcript"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

func newStore(t *testing.T) *transcript.Store {
	t.Helper()
	store, err := transcript.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func sampleSession(identity types.TargetIdentity) *types.Session {
	sess := types.NewSession(identity)
	sess.Append(types.Turn{
		Role:      types.RoleUser,
		Content:   "why did it crash?",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	sess.Append(types.Turn{
		Role: types.RoleTool,
		ToolCalls: []types.ToolCall{{
			ID:        "call-1",
			Name:      types.ToolLLDBCommand,
			Arguments: map[string]any{"command": "bt"},
			Result:    &types.ToolResult{Output: "#0 main", Succeeded: true},
		}},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
	})
	sess.Append(types.Turn{
		Role:      types.RoleAgent,
		Content:   "null pointer dereference in main",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC),
	})
	return sess
}

func TestLoad_MissingIsEmpty(t *testing.T) {
	store := newStore(t)

	sess, err := store.Load("crashy-abc123")
	require.NoError(t, err)
	assert.Equal(t, types.TargetIdentity("crashy-abc123"), sess.Identity)
	assert.Zero(t, sess.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := newStore(t)
	sess := sampleSession("crashy-abc123")

	require.NoError(t, store.Save(sess))

	loaded, err := store.Load("crashy-abc123")
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)
}

func TestSave_Deterministic(t *testing.T) {
	dir := t.TempDir()
	store, err := transcript.NewStore(dir, nil)
	require.NoError(t, err)
	sess := sampleSession("crashy-abc123")

	require.NoError(t, store.Save(sess))
	first, err := os.ReadFile(filepath.Join(dir, "crashy-abc123.json"))
	require.NoError(t, err)

	loaded, err := store.Load("crashy-abc123")
	require.NoError(t, err)
	require.NoError(t, store.Save(loaded))

	second, err := os.ReadFile(filepath.Join(dir, "crashy-abc123.json"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "saving an unchanged session must be byte-identical")
}

func TestSave_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := transcript.NewStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleSession("crashy-abc123")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "crashy-abc123.json", entries[0].Name())
}

func TestClear_Idempotent(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save(sampleSession("crashy-abc123")))
	require.NoError(t, store.Clear("crashy-abc123"))

	sess, err := store.Load("crashy-abc123")
	require.NoError(t, err)
	assert.Zero(t, sess.Len())

	// Clearing again, and clearing something never saved, are fine.
	require.NoError(t, store.Clear("crashy-abc123"))
	require.NoError(t, store.Clear("never-saved"))
}

func TestIdentities_Sorted(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Save(sampleSession("zeta-ffffff")))
	require.NoError(t, store.Save(sampleSession("alpha-000000")))
	require.NoError(t, store.Save(sampleSession("mid-123456")))

	ids, err := store.Identities()
	require.NoError(t, err)
	assert.Equal(t, []types.TargetIdentity{"alpha-000000", "mid-123456", "zeta-ffffff"}, ids)
}

func TestIdentities_Empty(t *testing.T) {
	store := newStore(t)

	ids, err := store.Identities()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoad_FilenameIdentityWins(t *testing.T) {
	dir := t.TempDir()
	store, err := transcript.NewStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleSession("original-abc123")))

	// A renamed record must not carry its old identity along.
	require.NoError(t, os.Rename(
		filepath.Join(dir, "original-abc123.json"),
		filepath.Join(dir, "renamed-def456.json"),
	))

	loaded, err := store.Load("renamed-def456")
	require.NoError(t, err)
	assert.Equal(t, types.TargetIdentity("renamed-def456"), loaded.Identity)
	assert.Equal(t, 3, loaded.Len())
}
