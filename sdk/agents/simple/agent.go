// Package simple provides a scripted agent that always takes the most
// obvious way forward: end the turn in combat, proceed past screens, pick
// the first choice, skip rewards, leave shops.
package simple

import (
	"github.com/spirebridge/spirebots/sdk"
)

// Agent implements the priority script
type Agent struct{}

// New creates a simple agent
func New() *Agent {
	return &Agent{}
}

// Act picks the first applicable command in priority order
func (*Agent) Act(state *sdk.State) (sdk.Action, bool) {
	switch {
	case state.HasCommand("end"):
		return sdk.EndTurn(), true
	case state.HasCommand("proceed"):
		return sdk.Proceed(), true
	case state.HasCommand("confirm"):
		return sdk.Confirm(), true
	case state.HasCommand("choose"):
		return sdk.Choose(0), true
	case state.HasCommand("skip"):
		return sdk.Skip(), true
	case state.HasCommand("leave"):
		return sdk.Leave(), true
	case state.HasCommand("return"):
		return sdk.Return(), true
	}
	return sdk.Action{}, false
}

// Check it implements the sdk.Agent interface
var _ sdk.Agent = (*Agent)(nil)
