package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func sampleEntries() []Entry {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []Entry{
		{
			ID: "a", Timestamp: base, SessionID: "s1",
			Instruction: "remove duplicates", Status: "success",
			ActionID: "remove_duplicates", Confidence: 100, Description: "Removed duplicate rows",
		},
		{
			ID: "b", Timestamp: base.Add(time.Second), SessionID: "s1",
			Instruction: "qqqq", Status: "warning", Confidence: 0,
			Description: "Instruction not recognized",
		},
		{
			ID: "c", Timestamp: base.Add(2 * time.Second), SessionID: "s1",
			Instruction: "fill missing", Status: "success",
			ActionID: "fill_missing", Confidence: 100, Description: "Filled missing values with 'Unknown'",
		},
	}
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("s1", "remove duplicates", "success")
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "s1", e.SessionID)
	assert.NotEqual(t, e.ID, NewEntry("s1", "x", "warning").ID)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.Record(context.Background(), Entry{}))
	assert.NoError(t, r.Close())
}

func TestFileRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	ctx := context.Background()

	r, err := NewFileRecorder(path)
	require.NoError(t, err)
	for _, e := range sampleEntries()[:2] {
		require.NoError(t, r.Record(ctx, e))
	}
	require.NoError(t, r.Close())

	// Reopening appends instead of truncating
	r, err = NewFileRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(ctx, sampleEntries()[2]))
	require.NoError(t, r.Close())

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, want := range sampleEntries() {
		assert.Equal(t, want.ID, got[i].ID)
		assert.True(t, want.Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, want.Instruction, got[i].Instruction)
		assert.Equal(t, want.Status, got[i].Status)
		assert.Equal(t, want.ActionID, got[i].ActionID)
		assert.Equal(t, want.Confidence, got[i].Confidence)
		assert.Equal(t, want.Description, got[i].Description)
	}
}

func TestFileRecorderFillsIDAndTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	r, err := NewFileRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(context.Background(), Entry{Instruction: "x", Status: "warning"}))
	require.NoError(t, r.Close())

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestFileRecorderClosed(t *testing.T) {
	r, err := NewFileRecorder(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	assert.Error(t, r.Record(context.Background(), Entry{}))
}

func TestFileRecorderReturnsWriteErrors(t *testing.T) {
	r, err := NewFileRecorder(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	// Close the file underneath the recorder so the next write fails
	require.NoError(t, r.file.Close())
	err = r.Record(context.Background(), sampleEntries()[0])
	assert.ErrorContains(t, err, "failed to write audit log")
}

func TestFileRecorderDeviceFull(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	r, err := NewFileRecorder("/dev/full")
	require.NoError(t, err)
	defer r.Close()

	assert.Error(t, r.Record(context.Background(), sampleEntries()[0]))
}

func TestReadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"a\"}\nnot json\n"), 0o644))

	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "line 2")
}

func openSQLite(t *testing.T) *SQLRecorder {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "audit.db")
	r, err := OpenSQLRecorder(context.Background(), "sqlite", dsn, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLRecorderRoundTrip(t *testing.T) {
	r := openSQLite(t)
	ctx := context.Background()

	for _, e := range sampleEntries() {
		require.NoError(t, r.Record(ctx, e))
	}

	got, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "warning", got[1].Status)
	assert.Empty(t, got[1].ActionID)
	assert.True(t, sampleEntries()[2].Timestamp.Equal(got[0].Timestamp))
	assert.Equal(t, 100.0, got[0].Confidence)

	all, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLRecorderDuplicateID(t *testing.T) {
	r := openSQLite(t)
	ctx := context.Background()

	e := sampleEntries()[0]
	require.NoError(t, r.Record(ctx, e))
	assert.Error(t, r.Record(ctx, e))
}

func TestSQLRecorderEnsureSchemaIsRepeatable(t *testing.T) {
	r := openSQLite(t)
	assert.NoError(t, r.EnsureSchema(context.Background()))
}

func TestSQLRecorderSharedConnection(t *testing.T) {
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLRecorder(db, "custom_audit", nil)
	ctx := context.Background()
	require.NoError(t, r.EnsureSchema(ctx))
	require.NoError(t, r.Record(ctx, sampleEntries()[0]))
	require.NoError(t, r.Close())

	// Close must not close a connection the recorder does not own
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM "custom_audit"`))
	assert.Equal(t, 1, count)
}
