package desk

import "errors"

var (
	// ErrLinkNotReady indicates the desk link is not available for commands.
	ErrLinkNotReady = errors.New("desk link not ready")
	// ErrHeightUnknown indicates no valid status frame has been received yet,
	// so a move relative to the current height can't be planned.
	ErrHeightUnknown = errors.New("desk height unknown")
)
