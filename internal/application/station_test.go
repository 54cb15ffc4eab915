package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/infrastructure/storage"
)

type fixedLink entity.LinkStatus

func (l fixedLink) Status() entity.LinkStatus { return entity.LinkStatus(l) }

func TestStationService_SnapshotBeforeFirstFrame(t *testing.T) {
	frames := storage.NewFrameBuffer()
	svc := NewStationService(fixedLink{}, frames, storage.NewMemoryInspectionRepository(5), 0)

	_, _, err := svc.Snapshot()
	require.ErrorIs(t, err, ErrNoSnapshot)

	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte("jpeg")})
	data, seq, err := svc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), data)
	require.Equal(t, uint64(1), seq)
}

func TestStationService_Status(t *testing.T) {
	frames := storage.NewFrameBuffer()
	history := storage.NewMemoryInspectionRepository(5)
	ctx := context.Background()
	require.NoError(t, history.Save(ctx, entity.Inspection{FrameSeq: 1, Result: entity.ResultPass}))
	require.NoError(t, history.Save(ctx, entity.Inspection{FrameSeq: 2, Result: entity.ResultFail}))
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte("x")})

	svc := NewStationService(fixedLink{Bound: true, Reconnects: 3}, frames, history, 1)
	st, err := svc.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Link.Bound)
	require.Equal(t, 3, st.Link.Reconnects)
	require.Equal(t, uint64(1), st.FrameSeq)
	require.Len(t, st.Recent, 1)
	require.Equal(t, entity.ResultFail, st.LastInspection().Result)
	require.Equal(t, 2, st.Totals.Total)
}

func TestStationService_StatusCountsFramesWithoutPreview(t *testing.T) {
	frames := storage.NewFrameBuffer()
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte("x")})
	// кадр, для которого не удалось собрать JPEG
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}})

	svc := NewStationService(fixedLink{}, frames, storage.NewMemoryInspectionRepository(5), 0)
	st, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), st.FrameSeq)

	_, _, err = svc.Snapshot()
	require.ErrorIs(t, err, ErrNoSnapshot)
}
