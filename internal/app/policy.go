package app

import "github.com/dkeye/WatchParty/internal/core"

type BackpressureAction int

const (
	KickMember BackpressureAction = iota
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(key ChannelKey, cid core.ConnID) BackpressureAction
}

// SimplePolicy kicks slow connections; they resynchronize with
// get-room-details after reconnecting.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(ChannelKey, core.ConnID) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow connections and loses the frame that did not fit.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(ChannelKey, core.ConnID) BackpressureAction {
	return DropFrame
}

// PolicyFor maps the backpressure config value to a policy. Unknown names
// fall back to SimplePolicy.
func PolicyFor(name string) Policy {
	if name == "drop" {
		return DropPolicy{}
	}
	return SimplePolicy{}
}
