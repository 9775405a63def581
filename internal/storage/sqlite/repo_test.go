package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvaudit/internal/quality"
	"csvaudit/internal/storage"
)

func openTest(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func sampleRecord(id, hash string, uploaded time.Time) storage.ReportRecord {
	return storage.ReportRecord{
		ID:          id,
		Filename:    "orders.csv",
		ContentHash: hash,
		RowCount:    4,
		ColumnCount: 3,
		Report: &quality.Report{
			RowCount:    4,
			ColumnCount: 3,
			Missing: []quality.Issue{{
				Kind:    quality.KindMissing,
				Column:  "email",
				Row:     -1,
				Rows:    []int{1, 3},
				Count:   2,
				Message: `2 missing value(s) in "email"`,
			}},
			Summary: map[quality.IssueKind]int{
				quality.KindMissing:   2,
				quality.KindFormat:    0,
				quality.KindLogical:   0,
				quality.KindDuplicate: 0,
				quality.KindOutlier:   0,
			},
		},
		UploadedAt: uploaded,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	repo := openTest(t)
	ctx := context.Background()
	uploaded := time.Date(2025, 6, 15, 12, 0, 0, 123456789, time.UTC)

	want := sampleRecord("r-1", "aabb", uploaded)
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Get(ctx, "r-1")
	require.NoError(t, err)

	assert.Equal(t, want.Filename, got.Filename)
	assert.Equal(t, want.ContentHash, got.ContentHash)
	assert.Equal(t, want.RowCount, got.RowCount)
	assert.True(t, uploaded.Equal(got.UploadedAt))
	require.NotNil(t, got.Report)
	assert.Equal(t, want.Report.Missing, got.Report.Missing)
	assert.Equal(t, want.Report.Summary, got.Report.Summary)
}

func TestGetNotFound(t *testing.T) {
	repo := openTest(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListNewestFirstSummaryOnly(t *testing.T) {
	repo := openTest(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleRecord("r-old", "h1", base)))
	require.NoError(t, repo.Save(ctx, sampleRecord("r-new", "h2", base.Add(time.Minute))))

	recs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r-new", recs[0].ID)
	assert.Equal(t, "r-old", recs[1].ID)

	// History rows carry the summary but not the issue detail.
	require.NotNil(t, recs[0].Report)
	assert.Equal(t, 2, recs[0].Report.Summary[quality.KindMissing])
	assert.Empty(t, recs[0].Report.Missing)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r-new", limited[0].ID)
}

func TestSaveFailedRead(t *testing.T) {
	repo := openTest(t)
	ctx := context.Background()

	rec := storage.ReportRecord{
		ID:          "r-bad",
		Filename:    "broken.csv",
		ContentHash: "dead",
		ReadError:   "csv has no header row",
		UploadedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "r-bad")
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Equal(t, "csv has no header row", got.ReadError)
}

func TestSeenHash(t *testing.T) {
	repo := openTest(t)
	ctx := context.Background()

	seen, err := repo.SeenHash(ctx, "cafe")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.Save(ctx, sampleRecord("r-1", "cafe", time.Now())))

	seen, err = repo.SeenHash(ctx, "cafe")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSaveDuplicateID(t *testing.T) {
	repo := openTest(t)
	ctx := context.Background()

	rec := sampleRecord("r-1", "h1", time.Now())
	require.NoError(t, repo.Save(ctx, rec))
	assert.Error(t, repo.Save(ctx, rec))
}
