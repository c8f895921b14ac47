package desk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	testCases := []struct {
		mask   Button
		expect [CommandFrameSize]byte
	}{
		{ButtonNone, [CommandFrameSize]byte{0xd8, 0xd8, 0x66, 0x00, 0x00}},
		{ButtonUp, [CommandFrameSize]byte{0xd8, 0xd8, 0x66, 0x01, 0x01}},
		{ButtonDown, [CommandFrameSize]byte{0xd8, 0xd8, 0x66, 0x02, 0x02}},
		{ButtonMemory, [CommandFrameSize]byte{0xd8, 0xd8, 0x66, 0x40, 0x40}},
	}
	for _, tc := range testCases {
		t.Run(tc.mask.String(), func(t *testing.T) {
			frame := EncodeCommand(tc.mask)
			require.Equal(t, tc.expect, frame)
			mask, ok := ParseCommandFrame(frame[:])
			require.True(t, ok)
			require.Equal(t, tc.mask, mask)
		})
	}
}

func TestParseCommandFrame(t *testing.T) {
	testCases := []struct {
		name  string
		frame []byte
		ok    bool
	}{
		{"short", []byte{0xd8, 0xd8, 0x66, 0x01}, false},
		{"bad sync", []byte{0xd8, 0x98, 0x66, 0x01, 0x01}, false},
		{"bad kind", []byte{0xd8, 0xd8, 0x65, 0x01, 0x01}, false},
		{"mask mismatch", []byte{0xd8, 0xd8, 0x66, 0x01, 0x02}, false},
		{"valid", []byte{0xd8, 0xd8, 0x66, 0x04, 0x04}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ParseCommandFrame(tc.frame)
			require.Equal(t, tc.ok, ok)
		})
	}
}

func TestParseStatusFrame(t *testing.T) {
	testCases := []struct {
		name  string
		frame [StatusFrameSize]byte
		code  byte
		ok    bool
	}{
		{"valid", [StatusFrameSize]byte{0x98, 0x98, 0x00, 0x00, 0x4c, 0x4c}, 0x4c, true},
		{"ignores middle bytes", [StatusFrameSize]byte{0x98, 0x98, 0x12, 0x34, 0x50, 0x50}, 0x50, true},
		{"first sync", [StatusFrameSize]byte{0x97, 0x98, 0x00, 0x00, 0x4c, 0x4c}, 0, false},
		{"second sync", [StatusFrameSize]byte{0x98, 0x00, 0x00, 0x00, 0x4c, 0x4c}, 0, false},
		{"code mismatch", [StatusFrameSize]byte{0x98, 0x98, 0x00, 0x00, 0x4c, 0x4d}, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := ParseStatusFrame(tc.frame)
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.code, code)
			}
		})
	}
}

func TestScale(t *testing.T) {
	s := DefaultScale
	testCases := []struct {
		code   byte
		height float64
		ok     bool
	}{
		{0x4a, 0, false},
		{0x4b, 29.5, true},
		{0x4c, 29.9, true},
		{0x50, 31.5, true},
		{0x7b, 29.5 + 0.4*48, true},
		{0x7c, 0, false},
	}
	for _, tc := range testCases {
		height, ok := s.Height(tc.code)
		require.Equal(t, tc.ok, ok, "code 0x%02x", tc.code)
		if ok {
			require.InDelta(t, tc.height, height, 1e-9, "code 0x%02x", tc.code)
			require.Equal(t, tc.code, s.Code(height))
		}
	}

	require.Equal(t, s.CodeMin, s.Code(10))
	require.Equal(t, s.CodeMax, s.Code(100))
	require.Equal(t, byte(0x4c), s.Code(30.0))
	lo, hi := s.Range()
	require.InDelta(t, 29.5, lo, 1e-9)
	require.InDelta(t, 48.7, hi, 1e-9)
}

func TestButtonNames(t *testing.T) {
	testCases := []struct {
		name   string
		button Button
	}{
		{"up", ButtonUp},
		{"DOWN", ButtonDown},
		{"1", ButtonPreset1},
		{"4", ButtonPreset4},
		{" m ", ButtonMemory},
		{"none", ButtonNone},
		{"release", ButtonNone},
	}
	for _, tc := range testCases {
		button, err := ParseButton(tc.name)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.button, button, tc.name)
	}
	_, err := ParseButton("5")
	require.Error(t, err)

	require.Equal(t, "none", ButtonNone.String())
	require.Equal(t, "up+m", (ButtonUp | ButtonMemory).String())
	require.Equal(t, "0x80", Button(0x80).String())
}
