package l1

import (
	"context"

	fx "github.com/robotalks/deskbridge/pkg/framework"
)

// Registrar announces an L1 controller so that L2 programs can find it,
// and delivers commands to it as CommandMsg in the loop.
type Registrar interface {
	// SendEvent sends an event to subscribers.
	SendEvent(context.Context, fx.Message) error
}

// StatePublisher is implemented by registrars which can also publish
// plain text values, e.g. a sensor reading, for consumers which don't
// decode typed messages.
type StatePublisher interface {
	PublishState(ctx context.Context, name, value string) error
}

// Command is a received command waiting for a reply.
type Command interface {
	Msg() fx.Message
	Done(reply fx.Message) error
}

// CommandMsg carries a Command through the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef identifies an L1 controller.
type ControllerRef struct {
	// Type is the controller type, e.g. smart-table.
	Type string
	// ID is unique among controllers of the same type.
	ID string
}

// Name is the path-like name Type/ID.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both Type and ID are set.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published when a controller registers.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo describes a registered controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector finds and connects L1 controllers.
type Connector interface {
	// Discover lists registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to a controller.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is a connection to a controller.
type ControllerConn interface {
	// DoCommand sends a command, the reply arrives in the future.
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers exactly one Result.
type CommandFuture interface {
	ResultChan() <-chan Result
}
