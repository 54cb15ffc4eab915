package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame_CloneIsIndependent(t *testing.T) {
	f := &Frame{Seq: 3, Width: 1, Height: 1, Pixels: []byte{1, 2, 3}, Preview: []byte{9}}
	c := f.Clone()
	require.Equal(t, f, c)

	f.Pixels[0] = 100
	f.Preview[0] = 0
	require.Equal(t, byte(1), c.Pixels[0])
	require.Equal(t, byte(9), c.Preview[0])
}

func TestFrame_Empty(t *testing.T) {
	var nilFrame *Frame
	require.True(t, nilFrame.Empty())
	require.Nil(t, nilFrame.Clone())
	require.True(t, (&Frame{Width: 2, Height: 2}).Empty())
	require.False(t, (&Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}}).Empty())
}
