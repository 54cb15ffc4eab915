package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"plc-vision/internal/domain/entity"
)

func TestMemoryInspectionRepository_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryInspectionRepository(3)
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, repo.Save(ctx, entity.Inspection{FrameSeq: i, Result: entity.ResultPass}))
	}

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, uint64(5), recent[0].FrameSeq)
	require.Equal(t, uint64(3), recent[2].FrameSeq)

	recent, err = repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, uint64(5), recent[0].FrameSeq)
}

func TestMemoryInspectionRepository_Totals(t *testing.T) {
	repo := NewMemoryInspectionRepository(10)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entity.Inspection{Result: entity.ResultPass}))
	require.NoError(t, repo.Save(ctx, entity.Inspection{Result: entity.ResultFail}))
	require.NoError(t, repo.Save(ctx, entity.Inspection{Result: entity.ResultNone, ErrorCode: entity.ErrNoFrame}))

	totals, err := repo.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, entity.InspectionTotals{Total: 3, Passed: 1, Failed: 1, Errors: 1}, totals)

	empty := NewMemoryInspectionRepository(0)
	recent, err := empty.Recent(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, recent)
}
