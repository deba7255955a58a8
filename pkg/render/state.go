// ABOUTME: Render engine lifecycle states
// ABOUTME: Idle, Starting, Running, RecoveringDevice, Silent, Stopped
package render

import "fmt"

// State is the render engine lifecycle state
type State int32

const (
	Idle State = iota
	Starting
	Running
	RecoveringDevice
	Silent
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case RecoveringDevice:
		return "recovering"
	case Silent:
		return "silent"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
