package sdk

// Agent represents a decision-making entity that plays through the bridge
type Agent interface {
	// Act inspects the latest game snapshot and returns the next action
	// to send. Returning false means no action this time; the runner
	// polls again after the configured interval.
	Act(state *State) (Action, bool)
}

// AgentFunc adapts a plain function to the Agent interface
type AgentFunc func(state *State) (Action, bool)

// Act calls f
func (f AgentFunc) Act(state *State) (Action, bool) {
	return f(state)
}
