package writer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchlog/internal/core"
)

func testProfile(name string) *core.DatasetProfile {
	p := core.NewDatasetProfile(name,
		core.WithSessionID("sess-1"),
		core.WithTimestamps(time.Time{}, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)),
	)
	p.TrackRow(map[string]interface{}{"amount": 12.5, "country": "jp"})
	return p
}

func TestLocalWriterRequiresPath(t *testing.T) {
	_, err := NewLocalWriter(LocalOptions{})
	assert.Error(t, err)
}

func TestLocalWriterWritesSummary(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(LocalOptions{Path: dir, Filename: "{name}_{timestamp}"})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(context.Background(), testProfile("orders"), ""))

	path := filepath.Join(dir, "orders_2024-05-01_09-30-00.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var summary core.DatasetSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "orders", summary.Name)
	assert.Equal(t, int64(1), summary.RowCount)
}

func TestLocalWriterSuffixAndTokens(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(LocalOptions{Path: dir, Filename: "{name}_{session}"})
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), testProfile("orders"), ".2024-05-01"))

	_, err = os.Stat(filepath.Join(dir, "orders_sess-1.2024-05-01.json"))
	assert.NoError(t, err)
}

func TestLocalWriterSanitizesNames(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(LocalOptions{Path: dir, Filename: "{name}"})
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), testProfile("raw/events"), ""))

	_, err = os.Stat(filepath.Join(dir, "raw-events.json"))
	assert.NoError(t, err)
}

func TestLocalWriterStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(LocalOptions{Path: dir, Filename: "{name}", State: true})
	require.NoError(t, err)

	p := testProfile("orders")
	require.NoError(t, w.Write(context.Background(), p, ""))

	restored, err := ReadProfile(filepath.Join(dir, "orders.profile.json"))
	require.NoError(t, err)
	assert.Equal(t, "orders", restored.Name())
	assert.Equal(t, int64(1), restored.RowCount())

	// State files stay mergeable
	require.NoError(t, restored.Merge(p))
	assert.Equal(t, int64(2), restored.RowCount())
}

func TestLocalWriterCanceledContext(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLocalWriter(LocalOptions{Path: dir, Filename: "{name}"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, w.Write(ctx, testProfile("orders"), ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadProfileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadProfile(filepath.Join(dir, "missing.profile.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.profile.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = ReadProfile(bad)
	assert.Error(t, err)
}
