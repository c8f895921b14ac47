package desk

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/deskbridge/pkg/cli/sh"
	core "github.com/robotalks/deskbridge/pkg/desk"
	"github.com/robotalks/deskbridge/pkg/deskctl/msgs"
	fx "github.com/robotalks/deskbridge/pkg/framework"
)

var (
	// StatusCmd exposes DeskStatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "desk.status",
		Aliases: []string{"status", "st"},
		Help:    "show height and control state",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommandWith(c, &msgs.DeskStatusQuery{}, formatStatus)
		}),
	}

	// GoToCmd exposes DeskGoToHeight command.
	GoToCmd = ishell.Cmd{
		Name:    "desk.goto",
		Aliases: []string{"goto", "g"},
		Help:    "HEIGHT(in)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, err := inchesArg(c, "HEIGHT")
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.DeskGoToHeight{Height: val})
		}),
	}

	// UpCmd exposes DeskGoUp command.
	UpCmd = ishell.Cmd{
		Name:    "desk.up",
		Aliases: []string{"up"},
		Help:    "DISTANCE(in)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, err := inchesArg(c, "DISTANCE")
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.DeskGoUp{Distance: val})
		}),
	}

	// DownCmd exposes DeskGoDown command.
	DownCmd = ishell.Cmd{
		Name:    "desk.down",
		Aliases: []string{"down"},
		Help:    "DISTANCE(in)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, err := inchesArg(c, "DISTANCE")
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.DeskGoDown{Distance: val})
		}),
	}

	// PressCmd exposes DeskPressButton command.
	PressCmd = ishell.Cmd{
		Name:    "desk.press",
		Aliases: []string{"press", "p"},
		Help:    "BUTTON(up|down|1-4|m|none) [DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("BUTTON required"))
				return
			}
			button, err := core.ParseButton(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			msg := &msgs.DeskPressButton{Button: uint32(button)}
			if len(c.Args) > 1 {
				dur, err := time.ParseDuration(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
				msg.DurationMs = uint32(dur / time.Millisecond)
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StopCmd exposes DeskStop command.
	StopCmd = ishell.Cmd{
		Name:    "desk.stop",
		Aliases: []string{"stop", "s"},
		Help:    "abandon the current move",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.DeskStop{})
		}),
	}
)

func init() {
	sh.AddCmds(
		&StatusCmd,
		&GoToCmd,
		&UpCmd,
		&DownCmd,
		&PressCmd,
		&StopCmd,
	)
	sh.AddEventFormatters(formatStatusEvent)
}

func inchesArg(c *ishell.Context, name string) (float64, error) {
	if len(c.Args) < 1 {
		return 0, fmt.Errorf("%s required", name)
	}
	val, err := strconv.ParseFloat(c.Args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return val, nil
}

// FormatStatus formats DeskStatus for display.
func FormatStatus(status *msgs.DeskStatus) string {
	if status == nil || !status.HeightKnown {
		return "height unknown"
	}
	str := fmt.Sprintf("height %.1f in", status.Height)
	if status.Seeking {
		str += fmt.Sprintf(", seeking %.1f in", status.Target)
	} else {
		str += ", idle"
	}
	if status.Suppressed > 0 || status.Overflow > 0 {
		str += fmt.Sprintf(" (%d remote bytes dropped, %d overflowed)", status.Suppressed, status.Overflow)
	}
	return str
}

func formatStatus(reply fx.Message) (string, bool) {
	if m, ok := reply.(*msgs.DeskStatusReply); ok {
		return FormatStatus(m.Status), true
	}
	return "", false
}

func formatStatusEvent(event fx.Message) (string, bool) {
	if m, ok := event.(*msgs.DeskStatus); ok {
		return FormatStatus(m), true
	}
	return "", false
}
