package conversation

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestHistory_AddAndSnapshot(t *testing.T) {
	h, err := New(5, "", testLogger())
	require.NoError(t, err)

	require.NoError(t, h.Add(RoleUser, "Hello expert"))
	require.NoError(t, h.Add(RoleAssistant, "Hello user"))

	snap := h.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, RoleUser, snap[0].Role)
	assert.Equal(t, "Hello expert", snap[0].Content)

	// Mutating the snapshot must not touch the history.
	snap[0].Content = "tampered"
	assert.Equal(t, "Hello expert", h.Snapshot()[0].Content)
}

func TestHistory_RejectsNonPositiveMaxTurns(t *testing.T) {
	for _, maxTurns := range []int{0, -1} {
		_, err := New(maxTurns, "", testLogger())
		assert.Error(t, err)
	}
}

func TestHistory_RejectsInvalidRole(t *testing.T) {
	h, err := New(3, "", testLogger())
	require.NoError(t, err)

	err = h.Add(Role("moderator"), "out of band")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, 0, h.Len())
}

func TestHistory_RejectsInvalidUTF8(t *testing.T) {
	h, err := New(3, "", testLogger())
	require.NoError(t, err)

	err = h.Add(RoleUser, string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.Equal(t, 0, h.Len())
}

func TestHistory_TurnCounting(t *testing.T) {
	h, err := New(2, "", testLogger())
	require.NoError(t, err)

	assert.False(t, h.IsComplete())
	h.IncrementTurn()
	assert.Equal(t, 1, h.Turns())
	assert.False(t, h.IsComplete())
	h.IncrementTurn()
	assert.True(t, h.IsComplete())
	assert.Equal(t, 2, h.MaxTurns())
}

func TestHistory_SeedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("  prior findings\n"), 0o644))

	h, err := New(4, path, testLogger())
	require.NoError(t, err)

	require.Equal(t, 1, h.Len())
	msg := h.Snapshot()[0]
	assert.Equal(t, RoleSystem, msg.Role)
	assert.Equal(t, "Initial context from history file (notes.txt):\n---\nprior findings\n---", msg.Content)
}

func TestHistory_SeedFileMissing(t *testing.T) {
	_, err := New(4, filepath.Join(t.TempDir(), "absent.txt"), testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestHistory_SeedFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n\t"), 0o644))

	h, err := New(4, path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestRole_Title(t *testing.T) {
	assert.Equal(t, "User", RoleUser.Title())
	assert.Equal(t, "Expert", RoleAssistant.Title())
	assert.Equal(t, "System", RoleSystem.Title())
}
