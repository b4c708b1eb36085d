package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statevet/statevet/internal/store"
)

func runRecordCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewRecordCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestRecordAppendsEntry(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")

	buf, err := runRecordCmd(t, "text",
		"--db", dbPath,
		"--definition", filepath.Join("testdata", "definitions", "pipeline.json"),
		"--entity", "grant-1",
		"--actor", "alice",
		"--from", "Draft",
		"--to", "Submitted",
		"--action", "submit",
		"--timestamp", "1700000000")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ recorded")
	assert.Contains(t, buf.String(), "grant-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Submitted", entries[0].ToState)
	assert.Equal(t, int64(1700000000), entries[0].Timestamp)
}

func TestRecordChainsEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")
	defPath := filepath.Join("testdata", "definitions", "pipeline.json")

	steps := [][2]string{
		{"Draft", "Submitted"},
		{"Submitted", "Approved"},
		{"Approved", "Archived"},
	}
	actions := []string{"submit", "approve", "archive"}

	for i, step := range steps {
		_, err := runRecordCmd(t, "text",
			"--db", dbPath,
			"--definition", defPath,
			"--entity", "grant-1",
			"--actor", "alice",
			"--from", step[0],
			"--to", step[1],
			"--action", actions[i],
			"--timestamp", "1700000000")
		require.NoError(t, err, "step %d should record", i)
	}

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecordRejectsUndeclaredTransition(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")

	buf, err := runRecordCmd(t, "json",
		"--db", dbPath,
		"--definition", filepath.Join("testdata", "definitions", "pipeline.json"),
		"--entity", "grant-1",
		"--actor", "mallory",
		"--from", "Draft",
		"--to", "Approved",
		"--action", "fast-track",
		"--timestamp", "1700000000")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E301", resp.Error.Code)

	// A rejected entry is never written.
	st, serr := store.Open(dbPath)
	require.NoError(t, serr)
	defer st.Close()
	n, serr := st.Len(context.Background())
	require.NoError(t, serr)
	assert.Equal(t, 0, n)
}

func TestRecordRejectsContinuityBreak(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")
	defPath := filepath.Join("testdata", "definitions", "pipeline.json")

	_, err := runRecordCmd(t, "text",
		"--db", dbPath,
		"--definition", defPath,
		"--entity", "grant-1",
		"--actor", "alice",
		"--from", "Draft",
		"--to", "Submitted",
		"--action", "submit",
		"--timestamp", "1")
	require.NoError(t, err)

	// grant-1 is now in Submitted; a second entry must leave from there.
	buf, err := runRecordCmd(t, "text",
		"--db", dbPath,
		"--definition", defPath,
		"--entity", "grant-1",
		"--actor", "bob",
		"--from", "Approved",
		"--to", "Archived",
		"--action", "archive",
		"--timestamp", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E302")

	st, serr := store.Open(dbPath)
	require.NoError(t, serr)
	defer st.Close()
	n, serr := st.Len(context.Background())
	require.NoError(t, serr)
	assert.Equal(t, 1, n)
}

func TestRecordWithoutDefinition(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")

	// Continuity is still enforced even without a definition.
	_, err := runRecordCmd(t, "text",
		"--db", dbPath,
		"--entity", "ticket-9",
		"--actor", "alice",
		"--from", "Open",
		"--to", "Closed",
		"--action", "close",
		"--timestamp", "10")
	require.NoError(t, err)

	buf, err := runRecordCmd(t, "text",
		"--db", dbPath,
		"--entity", "ticket-9",
		"--actor", "alice",
		"--from", "Open",
		"--to", "Closed",
		"--action", "close",
		"--timestamp", "11")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E302")
}

func TestRecordJSONResult(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trail.db")

	buf, err := runRecordCmd(t, "json",
		"--db", dbPath,
		"--entity", "grant-1",
		"--actor", "alice",
		"--from", "Draft",
		"--to", "Submitted",
		"--action", "submit",
		"--timestamp", "1700000000")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), data["position"])
	id, _ := data["id"].(string)
	assert.Len(t, id, 64)
}

func TestRecordRequiresDB(t *testing.T) {
	_, err := runRecordCmd(t, "text",
		"--entity", "grant-1",
		"--actor", "alice",
		"--from", "Draft",
		"--to", "Submitted",
		"--action", "submit")
	require.Error(t, err)
}
