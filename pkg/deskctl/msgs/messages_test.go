package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/deskbridge/pkg/l1/msgs"
)

func TestRegistered(t *testing.T) {
	for _, msg := range []msgs.SerializableMessage{
		&DeskStatus{},
		&DeskStatusQuery{},
		&DeskStatusReply{},
		&DeskGoToHeight{},
		&DeskGoUp{},
		&DeskGoDown{},
		&DeskStop{},
		&DeskPressButton{},
	} {
		registered, ok := msgs.MessageTypes[msg.TypeID()]
		require.True(t, ok, "%T", msg)
		require.IsType(t, msg, registered.NewMessage())
	}
	typed := msgs.Typed{TypeID: DeskStatusEventTypeID}
	require.True(t, typed.IsEvent())
	typed.TypeID = DeskStatusReplyTypeID
	require.True(t, typed.IsCommand())
}

func TestStatusOnWire(t *testing.T) {
	typed, err := msgs.TypedFrom(&DeskStatusReply{Status: &DeskStatus{
		Height:      30.7,
		HeightKnown: true,
		Seeking:     true,
		Target:      32,
	}})
	require.NoError(t, err)
	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := msgs.DecodeTyped(data)
	require.NoError(t, err)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	reply := msg.(*DeskStatusReply)
	require.NotNil(t, reply.Status)
	require.Equal(t, 30.7, reply.Status.Height)
	require.True(t, reply.Status.HeightKnown)
	require.True(t, reply.Status.Seeking)
	require.Equal(t, 32.0, reply.Status.Target)
}
