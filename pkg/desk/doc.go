// Package desk bridges a desk motor controller and its remote.
//
// A Bridge relays bytes between the two serial links, decodes status
// frames sent by the desk to track its height, and drives the desk to
// a target height by sending the same command frames the remote does.
// All operations are evaluated in Tick and never block.
package desk
