package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOperator_NotSubscribed(t *testing.T) {
	o := NewOperator(1, 10)
	require.False(t, o.Subscribed)
	require.Equal(t, int64(1), o.ID)
	require.Equal(t, int64(10), o.ChatID)

	o.SetSubscribed(true)
	require.True(t, o.Subscribed)
}

func TestLinkEvent_Restored(t *testing.T) {
	require.False(t, LinkEvent{Kind: LinkUp}.Restored())
	require.True(t, LinkEvent{Kind: LinkUp, Reconnects: 2}.Restored())
	require.False(t, LinkEvent{Kind: LinkDown, Reconnects: 2}.Restored())
}
