package desk

import (
	"fmt"
	"strings"
)

// Desk link protocol.
//
// The motor controller periodically sends a 6-byte status frame:
//
//	98 98 XX XX CODE CODE
//
// and accepts 5-byte command frames from the remote:
//
//	D8 D8 66 MASK MASK
//
// The remote side carries the same protocol unmodified.
const (
	StatusFrameSize  = 6
	CommandFrameSize = 5

	statusSync  byte = 0x98
	commandSync byte = 0xd8
	commandKind byte = 0x66
)

// Button is the mask of remote buttons held in a command frame.
type Button uint8

// Buttons on the remote.
const (
	ButtonNone    Button = 0x00
	ButtonUp      Button = 0x01
	ButtonDown    Button = 0x02
	ButtonPreset1 Button = 0x04
	ButtonPreset2 Button = 0x08
	ButtonPreset3 Button = 0x10
	ButtonPreset4 Button = 0x20
	ButtonMemory  Button = 0x40
)

var buttonNames = []struct {
	button Button
	name   string
}{
	{ButtonUp, "up"},
	{ButtonDown, "down"},
	{ButtonPreset1, "1"},
	{ButtonPreset2, "2"},
	{ButtonPreset3, "3"},
	{ButtonPreset4, "4"},
	{ButtonMemory, "m"},
}

// String implements fmt.Stringer.
func (b Button) String() string {
	if b == ButtonNone {
		return "none"
	}
	var names []string
	for _, item := range buttonNames {
		if b&item.button != 0 {
			names = append(names, item.name)
		}
	}
	if rest := b &^ 0x7f; rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", byte(rest)))
	}
	return strings.Join(names, "+")
}

// ParseButton parses a button name: up, down, 1-4, m or none.
func ParseButton(name string) (Button, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" || name == "release" {
		return ButtonNone, nil
	}
	for _, item := range buttonNames {
		if item.name == name {
			return item.button, nil
		}
	}
	return ButtonNone, fmt.Errorf("unknown button %q", name)
}

// EncodeCommand builds the command frame for a button mask.
func EncodeCommand(mask Button) [CommandFrameSize]byte {
	return [CommandFrameSize]byte{commandSync, commandSync, commandKind, byte(mask), byte(mask)}
}

// ParseCommandFrame extracts the button mask from a command frame.
func ParseCommandFrame(frame []byte) (Button, bool) {
	if len(frame) < CommandFrameSize {
		return ButtonNone, false
	}
	if frame[0] != commandSync || frame[1] != commandSync || frame[2] != commandKind || frame[3] != frame[4] {
		return ButtonNone, false
	}
	return Button(frame[3]), true
}

// EncodeStatus builds a status frame reporting a height code.
func EncodeStatus(code byte) [StatusFrameSize]byte {
	return [StatusFrameSize]byte{statusSync, statusSync, 0, 0, code, code}
}

// ParseStatusFrame validates a status frame and returns its height code.
// The frame is valid if it starts with the sync pair and the code is repeated.
func ParseStatusFrame(frame [StatusFrameSize]byte) (byte, bool) {
	if frame[0] != statusSync || frame[1] != statusSync {
		return 0, false
	}
	if frame[4] != frame[5] {
		return 0, false
	}
	return frame[4], true
}

// Scale converts height codes to inches.
type Scale struct {
	Base    float64 // height of CodeMin in inches
	Step    float64 // inches per code
	CodeMin byte
	CodeMax byte
}

// DefaultScale is the scale used by the desk and its remote.
var DefaultScale = Scale{
	Base:    29.5,
	Step:    0.4,
	CodeMin: 0x4b,
	CodeMax: 0x7b,
}

// Height converts a code, false if out of range.
func (s Scale) Height(code byte) (float64, bool) {
	if code < s.CodeMin || code > s.CodeMax {
		return 0, false
	}
	return s.Base + s.Step*float64(code-s.CodeMin), true
}

// Code returns the code closest to height, clamped to the range.
func (s Scale) Code(height float64) byte {
	steps := (height - s.Base) / s.Step
	if steps <= 0 {
		return s.CodeMin
	}
	code := int(steps+0.5) + int(s.CodeMin)
	if code > int(s.CodeMax) {
		return s.CodeMax
	}
	return byte(code)
}

// Range returns the lowest and highest heights.
func (s Scale) Range() (float64, float64) {
	lo, _ := s.Height(s.CodeMin)
	hi, _ := s.Height(s.CodeMax)
	return lo, hi
}
