package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1/msgs"
)

// DeskGoToHeight moves the desk to a height in inches.
type DeskGoToHeight struct {
	Height float64 `protobuf:"fixed64,1,opt,name=height,proto3" json:"height,omitempty"`
}

// NewMessage implements Message.
func (m *DeskGoToHeight) NewMessage() fx.Message { return &DeskGoToHeight{} }

// TypeID implements SerializableMessage.
func (m *DeskGoToHeight) TypeID() uint32 { return DeskGoToHeightTypeID }

// Serializable implements SerializableMessage.
func (m *DeskGoToHeight) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskGoToHeight) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskGoToHeight) Reset() { *m = DeskGoToHeight{} }

// String implements proto.Message.
func (m *DeskGoToHeight) String() string { return proto.CompactTextString(m) }

// DeskGoUp moves the desk up by a distance in inches.
type DeskGoUp struct {
	Distance float64 `protobuf:"fixed64,1,opt,name=distance,proto3" json:"distance,omitempty"`
}

// NewMessage implements Message.
func (m *DeskGoUp) NewMessage() fx.Message { return &DeskGoUp{} }

// TypeID implements SerializableMessage.
func (m *DeskGoUp) TypeID() uint32 { return DeskGoUpTypeID }

// Serializable implements SerializableMessage.
func (m *DeskGoUp) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskGoUp) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskGoUp) Reset() { *m = DeskGoUp{} }

// String implements proto.Message.
func (m *DeskGoUp) String() string { return proto.CompactTextString(m) }

// DeskGoDown moves the desk down by a distance in inches.
type DeskGoDown struct {
	Distance float64 `protobuf:"fixed64,1,opt,name=distance,proto3" json:"distance,omitempty"`
}

// NewMessage implements Message.
func (m *DeskGoDown) NewMessage() fx.Message { return &DeskGoDown{} }

// TypeID implements SerializableMessage.
func (m *DeskGoDown) TypeID() uint32 { return DeskGoDownTypeID }

// Serializable implements SerializableMessage.
func (m *DeskGoDown) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskGoDown) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskGoDown) Reset() { *m = DeskGoDown{} }

// String implements proto.Message.
func (m *DeskGoDown) String() string { return proto.CompactTextString(m) }

// DeskStop abandons the current move.
type DeskStop struct {
}

// NewMessage implements Message.
func (m *DeskStop) NewMessage() fx.Message { return &DeskStop{} }

// TypeID implements SerializableMessage.
func (m *DeskStop) TypeID() uint32 { return DeskStopTypeID }

// Serializable implements SerializableMessage.
func (m *DeskStop) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskStop) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskStop) Reset() { *m = DeskStop{} }

// String implements proto.Message.
func (m *DeskStop) String() string { return proto.CompactTextString(m) }

// DeskPressButton sends one command frame with a button mask.
type DeskPressButton struct {
	Button     uint32 `protobuf:"varint,1,opt,name=button,proto3" json:"button,omitempty"`
	DurationMs uint32 `protobuf:"varint,2,opt,name=duration_ms,json=durationMs,proto3" json:"duration_ms,omitempty"`
}

// NewMessage implements Message.
func (m *DeskPressButton) NewMessage() fx.Message { return &DeskPressButton{} }

// TypeID implements SerializableMessage.
func (m *DeskPressButton) TypeID() uint32 { return DeskPressButtonTypeID }

// Serializable implements SerializableMessage.
func (m *DeskPressButton) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskPressButton) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskPressButton) Reset() { *m = DeskPressButton{} }

// String implements proto.Message.
func (m *DeskPressButton) String() string { return proto.CompactTextString(m) }

// DeskStatusQuery queries the status.
type DeskStatusQuery struct {
}

// NewMessage implements Message.
func (m *DeskStatusQuery) NewMessage() fx.Message { return &DeskStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *DeskStatusQuery) TypeID() uint32 { return DeskStatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DeskStatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskStatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskStatusQuery) Reset() { *m = DeskStatusQuery{} }

// String implements proto.Message.
func (m *DeskStatusQuery) String() string { return proto.CompactTextString(m) }

// DeskStatusReply is the response for DeskStatusQuery.
type DeskStatusReply struct {
	Status *DeskStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *DeskStatusReply) NewMessage() fx.Message { return &DeskStatusReply{} }

// TypeID implements SerializableMessage.
func (m *DeskStatusReply) TypeID() uint32 { return DeskStatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *DeskStatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskStatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskStatusReply) Reset() { *m = DeskStatusReply{} }

// String implements proto.Message.
func (m *DeskStatusReply) String() string { return proto.CompactTextString(m) }

// DeskStatus is an Event message reflecting the desk status.
type DeskStatus struct {
	Height      float64 `protobuf:"fixed64,1,opt,name=height,proto3" json:"height,omitempty"`
	HeightKnown bool    `protobuf:"varint,2,opt,name=height_known,json=heightKnown,proto3" json:"height_known,omitempty"`
	Seeking     bool    `protobuf:"varint,3,opt,name=seeking,proto3" json:"seeking,omitempty"`
	Target      float64 `protobuf:"fixed64,4,opt,name=target,proto3" json:"target,omitempty"`
	// Suppressed counts remote bytes dropped while seeking.
	Suppressed uint64 `protobuf:"varint,5,opt,name=suppressed,proto3" json:"suppressed,omitempty"`
	// Overflow counts received bytes dropped by full line buffers.
	Overflow uint64 `protobuf:"varint,6,opt,name=overflow,proto3" json:"overflow,omitempty"`
}

// NewMessage implements Message.
func (m *DeskStatus) NewMessage() fx.Message { return &DeskStatus{} }

// TypeID implements SerializableMessage.
func (m *DeskStatus) TypeID() uint32 { return DeskStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *DeskStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeskStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeskStatus) Reset() { *m = DeskStatus{} }

// String implements proto.Message.
func (m *DeskStatus) String() string { return proto.CompactTextString(m) }

// GroupDesk defines the custom group.
const GroupDesk = msgs.GroupCustom

// TypeIDs
const (
	DeskStatusEventTypeID uint32 = GroupDesk | msgs.TypeIDKindEvent | 0x0000
	DeskStatusQueryTypeID uint32 = GroupDesk | 0x0000
	DeskStatusReplyTypeID uint32 = GroupDesk | msgs.TypeIDMaskReply | 0x0000
	DeskGoToHeightTypeID  uint32 = GroupDesk | 0x0001
	DeskGoUpTypeID        uint32 = GroupDesk | 0x0002
	DeskGoDownTypeID      uint32 = GroupDesk | 0x0003
	DeskStopTypeID        uint32 = GroupDesk | 0x0004
	DeskPressButtonTypeID uint32 = GroupDesk | 0x0005
)

func init() {
	msgs.MessageTypes[DeskStatusEventTypeID] = (*DeskStatus)(nil)
	msgs.MessageTypes[DeskStatusQueryTypeID] = (*DeskStatusQuery)(nil)
	msgs.MessageTypes[DeskStatusReplyTypeID] = (*DeskStatusReply)(nil)
	msgs.MessageTypes[DeskGoToHeightTypeID] = (*DeskGoToHeight)(nil)
	msgs.MessageTypes[DeskGoUpTypeID] = (*DeskGoUp)(nil)
	msgs.MessageTypes[DeskGoDownTypeID] = (*DeskGoDown)(nil)
	msgs.MessageTypes[DeskStopTypeID] = (*DeskStop)(nil)
	msgs.MessageTypes[DeskPressButtonTypeID] = (*DeskPressButton)(nil)
}
