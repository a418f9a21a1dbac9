package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardterm/internal/card"
	"cardterm/internal/export"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListExportsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.RecordExport(ctx, &Export{
			ID:        id,
			Theme:     "classic",
			Format:    "png",
			Filename:  "John_Doe_business_card.png",
			CreatedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		}))
	}

	got, err := store.ListExports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[2].ID)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(time.Second)))

	limited, err := store.ListExports(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordExportRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	e := &Export{ID: "dup", Theme: "classic", Format: "pdf", Filename: "x_business_card.pdf"}
	require.NoError(t, store.RecordExport(ctx, e))
	assert.False(t, e.CreatedAt.IsZero())
	require.ErrorIs(t, store.RecordExport(ctx, e), ErrExportExists)
	require.Error(t, store.RecordExport(ctx, &Export{}))
}

func TestGetExportNotFound(t *testing.T) {
	_, err := openTestStore(t).GetExport(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRecordsPipelineResults(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	dir := t.TempDir()

	p := export.New(export.DirSink{Dir: dir}, export.WithRecorder(store))
	res, err := p.Export(ctx, export.CardSource{Card: card.New()}, export.FormatPDF)
	require.NoError(t, err)

	c := card.New()
	require.NoError(t, c.Update(card.FieldTheme, "missing"))
	_, err = p.Export(ctx, export.CardSource{Card: c}, export.FormatPNG)
	require.Error(t, err)

	got, err := store.GetExport(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "pdf", got.Format)
	assert.Equal(t, "John_Doe_business_card.pdf", got.Filename)
	assert.Equal(t, res.Path, got.Path)
	assert.Equal(t, len(res.Artifact.Data), got.Bytes)
	assert.Equal(t, 1200, got.PixelWidth)

	counts, err := store.CountByFormat(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FormatCount{{Format: "pdf", Count: 1}}, counts)
}

func TestWriteExportsCSV(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.RecordExport(ctx, &Export{
		ID:        "one",
		Theme:     "ocean",
		Format:    "png",
		Filename:  "Jane,_Q._business_card.png",
		Path:      "/tmp/out/Jane,_Q._business_card.png",
		Bytes:     42,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}))

	var buf bytes.Buffer
	require.NoError(t, store.WriteExportsCSV(ctx, &buf, 10))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"one", "2024-01-02T03:04:05Z", "ocean", "png", "Jane,_Q._business_card.png", "/tmp/out/Jane,_Q._business_card.png", "42", "0", "0"}, records[1])
}
