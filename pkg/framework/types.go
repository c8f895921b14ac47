package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name, used in logs.
type Named interface {
	Name() string
}

// Runnable is a background task bound to a context.
type Runnable interface {
	Run(context.Context) error
}

// Message is consumed by controllers during a loop iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is evaluated once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time of the current iteration.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is passed to controllers in one iteration.
type ControlContext interface {
	TimeSource
	LoopControl

	// Context retrieves context.Context.
	Context() context.Context
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Triggered reports whether the iteration was started by TriggerNext
	// instead of the interval.
	Triggered() bool
	// Messages retrieves messages collected when the iteration started.
	Messages() MessageStore
}

// PriorityLevels is the number of priority levels. Controllers at a lower
// level run earlier in an iteration.
const PriorityLevels int = 16

// Predefined priority levels.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is for controllers reading sensors.
	PrLvSense = PrLvHigh
	// PrLvControl is for controlling logic.
	PrLvControl = PrLvNormal
	// PrLvAcuate is for actuators.
	PrLvAcuate = PrLvLow
	// PrLvPostProc is for reporting after everything else ran.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl is safe to use from any goroutine.
type LoopControl interface {
	// PostMessage enqueues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext runs the next iteration without waiting for the interval.
	TriggerNext()
}

// MessageStore provides access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages passes each message to proc.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages for controllers running later.
	AddMessages(msgs ...Message)
}

// MessageProcessor processes one message at a time.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the context of the message being processed.
type MessageProcessingContext interface {
	// CurrentMessage gets the message.
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
