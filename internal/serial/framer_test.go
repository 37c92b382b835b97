package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T, codec Codec, frames []Frame) []byte {
	t.Helper()
	var stream []byte
	for _, f := range frames {
		wire, err := codec.Encode(f)
		require.NoError(t, err)
		stream = append(stream, wire...)
	}
	return stream
}

// Chunk boundaries chosen by the transport must never change the decoded
// sequence: one byte at a time, all at once, and odd splits all agree.
func TestChunkingInvariance(t *testing.T) {
	codec := Codec{Multiplexed: true, MaxCluster: 2}
	frames := []Frame{
		{Cluster: 1, TempRaw: 240, HumRaw: 0},
		{Cluster: 2, TempRaw: 0, HumRaw: 560},
		{Cluster: 1, TempRaw: 241, HumRaw: 555},
		{Cluster: 2, TempRaw: 1023, HumRaw: 1},
	}
	stream := encodeAll(t, codec, frames)

	feed := func(chunkSizes func(i int) int) []Result {
		f := NewFramer(codec)
		var out []Result
		for i := 0; i < len(stream); {
			n := chunkSizes(i)
			if i+n > len(stream) {
				n = len(stream) - i
			}
			out = append(out, f.Push(stream[i:i+n])...)
			i += n
		}
		require.NoError(t, f.Close())
		return out
	}

	oneAtATime := feed(func(int) int { return 1 })
	allAtOnce := feed(func(int) int { return len(stream) })
	oddSplits := feed(func(i int) int { return 3 })

	require.Len(t, oneAtATime, len(frames))
	assert.Equal(t, allAtOnce, oneAtATime)
	assert.Equal(t, allAtOnce, oddSplits)
	for i, res := range allAtOnce {
		require.NoError(t, res.Err)
		assert.Equal(t, frames[i], res.Frame)
	}
}

// A 9-byte chunk against a 5-byte frame yields exactly one frame with the
// remainder retained; the bytes that follow complete the next frame.
func TestPartialChunkRetention(t *testing.T) {
	codec := Codec{Multiplexed: true, MaxCluster: 2}
	stream := encodeAll(t, codec, []Frame{
		{Cluster: 1, TempRaw: 100, HumRaw: 200},
		{Cluster: 2, TempRaw: 300, HumRaw: 400},
	})
	require.Len(t, stream, 10)

	f := NewFramer(codec)

	out := f.Push(stream[:9])
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	assert.Equal(t, Frame{Cluster: 1, TempRaw: 100, HumRaw: 200}, out[0].Frame)
	assert.Equal(t, 4, f.Pending())

	out = f.Push(stream[9:])
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	assert.Equal(t, Frame{Cluster: 2, TempRaw: 300, HumRaw: 400}, out[0].Frame)
	assert.Equal(t, 0, f.Pending())
}

func TestNeverEmitsBeforeFullFrame(t *testing.T) {
	f := NewFramer(Codec{})
	assert.Empty(t, f.Push([]byte{0x00}))
	assert.Empty(t, f.Push([]byte{0x01, 0x02}))
	assert.Equal(t, 3, f.Pending())

	out := f.Push([]byte{0x03})
	require.Len(t, out, 1)
	require.NoError(t, out[0].Err)
	assert.Equal(t, Frame{TempRaw: 0x0001, HumRaw: 0x0203}, out[0].Frame)
}

func TestTruncatedTail(t *testing.T) {
	f := NewFramer(Codec{})
	f.Push([]byte{0xaa, 0xbb})

	err := f.Close()
	assert.ErrorIs(t, err, ErrTruncatedTail)
	assert.Equal(t, 0, f.Pending(), "tail discarded")

	// reusable for a fresh connection on the same endpoint
	require.NoError(t, f.Close())
	out := f.Push([]byte{0x00, 0x01, 0x00, 0x02})
	require.Len(t, out, 1)
	assert.Equal(t, Frame{TempRaw: 1, HumRaw: 2}, out[0].Frame)
}

// A bad frame is reported in sequence and does not poison its successors.
func TestDecodeErrorInStream(t *testing.T) {
	codec := Codec{Multiplexed: true, MaxCluster: 2}
	good, err := codec.Encode(Frame{Cluster: 1, TempRaw: 7, HumRaw: 8})
	require.NoError(t, err)
	bad := []byte{0x09, 0x00, 0x00, 0x00, 0x00} // tag out of range

	f := NewFramer(codec)
	out := f.Push(append(append([]byte{}, bad...), good...))
	require.Len(t, out, 2)
	assert.ErrorIs(t, out[0].Err, ErrUnknownCluster)
	require.NoError(t, out[1].Err)
	assert.Equal(t, Frame{Cluster: 1, TempRaw: 7, HumRaw: 8}, out[1].Frame)
}
