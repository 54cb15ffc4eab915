package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"plc-vision/internal/infrastructure/storage"
)

func TestOperatorService_SubscribeAndUnsubscribe(t *testing.T) {
	repo := storage.NewMemoryOperatorRepository()
	svc := NewOperatorService(repo)
	ctx := context.Background()

	op, err := svc.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, op.Subscribed)

	_, err = svc.Subscribe(ctx, 2, 20)
	require.NoError(t, err)

	chats, err := svc.SubscribedChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20}, chats)

	op, err = svc.Unsubscribe(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, op.Subscribed)

	chats, err = svc.SubscribedChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{20}, chats)
}
