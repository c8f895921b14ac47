// Package msgs defines the typed envelope exchanged between L1
// controllers and the programs commanding them, and the generic replies.
//
// Every message is a protobuf message identified by a 32-bit type ID:
// the top bit tells events from commands, the group bits select the
// owner of the type, and bit 15 marks replies.
package msgs
