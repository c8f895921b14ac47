package desk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type heightRecorder struct {
	heights []float64
}

func (r *heightRecorder) PublishHeight(h float64) {
	r.heights = append(r.heights, h)
}

func statusBytes(codes ...byte) []byte {
	var data []byte
	for _, code := range codes {
		frame := EncodeStatus(code)
		data = append(data, frame[:]...)
	}
	return data
}

func feedAll(d *FrameDecoder, st *State, data []byte) {
	for _, b := range data {
		d.Feed(st, b)
	}
}

func TestFrameDecoder(t *testing.T) {
	testCases := []struct {
		name    string
		resync  bool
		in      []byte
		heights []float64
	}{
		{
			name:    "single frame",
			in:      statusBytes(0x4c),
			heights: []float64{29.9},
		},
		{
			name:    "partial frame",
			in:      statusBytes(0x4c)[:5],
			heights: nil,
		},
		{
			name:    "publish on change only",
			in:      statusBytes(0x4c, 0x4c, 0x4d, 0x4d, 0x4c),
			heights: []float64{29.9, 30.3, 29.9},
		},
		{
			name:    "out of range",
			in:      statusBytes(0x4a, 0x7c, 0x4b),
			heights: []float64{29.5},
		},
		{
			name:    "malformed frames",
			in:      append([]byte{0x98, 0x98, 0, 0, 0x4c, 0x4d, 0x99, 0x98, 0, 0, 0x4c, 0x4c}, statusBytes(0x50)...),
			heights: []float64{31.5},
		},
		{
			name:    "misaligned stays lost",
			in:      append([]byte{0x00}, statusBytes(0x4c, 0x4c, 0x4c)...),
			heights: nil,
		},
		{
			name:    "misaligned resync",
			resync:  true,
			in:      append([]byte{0x00}, statusBytes(0x4c, 0x4c, 0x4d)...),
			heights: []float64{29.9, 30.3},
		},
		{
			name:    "resync on trailing sync byte",
			resync:  true,
			in:      append([]byte{0x00, 0x00, 0x00, 0x00, 0x00}, statusBytes(0x4c)...),
			heights: []float64{29.9},
		},
		{
			name:    "aligned corrupted frame keeps alignment",
			resync:  true,
			in:      append([]byte{0x98, 0x98, 0x98, 0x98, 0x4c, 0x4d}, statusBytes(0x4e)...),
			heights: []float64{30.7},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec heightRecorder
			var st State
			d := &FrameDecoder{Scale: DefaultScale, Sink: &rec, Resync: tc.resync}
			feedAll(d, &st, tc.in)
			require.Len(t, rec.heights, len(tc.heights))
			for n, h := range tc.heights {
				require.InDelta(t, h, rec.heights[n], 1e-9)
			}
			height, known := st.Height()
			require.Equal(t, len(tc.heights) > 0, known)
			if known {
				require.InDelta(t, tc.heights[len(tc.heights)-1], height, 1e-9)
			}
		})
	}
}

func TestFrameDecoderMalformedKeepsHeight(t *testing.T) {
	var st State
	d := &FrameDecoder{}
	feedAll(d, &st, statusBytes(0x50))
	feedAll(d, &st, []byte{0x98, 0x98, 0, 0, 0x51, 0x52})
	feedAll(d, &st, statusBytes(0x7f))
	height, known := st.Height()
	require.True(t, known)
	require.InDelta(t, 31.5, height, 1e-9)
}

func TestFrameDecoderReset(t *testing.T) {
	var st State
	d := &FrameDecoder{}
	feedAll(d, &st, []byte{0x98, 0x98, 0x00})
	d.Reset()
	feedAll(d, &st, statusBytes(0x4b))
	height, known := st.Height()
	require.True(t, known)
	require.InDelta(t, 29.5, height, 1e-9)
}
