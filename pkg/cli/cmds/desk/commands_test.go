package desk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/deskbridge/pkg/cli/sh"
	"github.com/robotalks/deskbridge/pkg/deskctl/msgs"
)

func TestFormatStatus(t *testing.T) {
	testCases := []struct {
		status *msgs.DeskStatus
		str    string
	}{
		{nil, "height unknown"},
		{&msgs.DeskStatus{Height: 30}, "height unknown"},
		{&msgs.DeskStatus{Height: 29.9, HeightKnown: true}, "height 29.9 in, idle"},
		{
			&msgs.DeskStatus{Height: 30.3, HeightKnown: true, Seeking: true, Target: 32},
			"height 30.3 in, seeking 32.0 in",
		},
		{
			&msgs.DeskStatus{Height: 30.3, HeightKnown: true, Suppressed: 12},
			"height 30.3 in, idle (12 remote bytes dropped, 0 overflowed)",
		},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.str, FormatStatus(tc.status))
	}
}

func TestFormatStatusReply(t *testing.T) {
	str, ok := formatStatus(&msgs.DeskStatusReply{Status: &msgs.DeskStatus{Height: 25, HeightKnown: true}})
	require.True(t, ok)
	require.Equal(t, "height 25.0 in, idle", str)
	_, ok = formatStatus(&msgs.DeskStatusQuery{})
	require.False(t, ok)
}

func TestFormatEvent(t *testing.T) {
	require.Equal(t, "EVENT height 31.1 in, seeking 33.0 in",
		sh.FormatEvent(&msgs.DeskStatus{Height: 31.1, HeightKnown: true, Seeking: true, Target: 33}))
	require.Equal(t, "EVENT DeskStop ", sh.FormatEvent(&msgs.DeskStop{}))
}
