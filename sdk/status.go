package sdk

// ConnectionStatus represents the client's view of the bridge connection
type ConnectionStatus int

const (
	// Disconnected means the bridge is unreachable or failing
	Disconnected ConnectionStatus = iota
	// Connected means the bridge answered a health probe but no state has been seen
	Connected
	// WaitingForState means the client is polling for the first game state
	WaitingForState
	// Ready means game state has been received and actions can be sent
	Ready
)

// String returns the string representation of a connection status
func (s ConnectionStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case WaitingForState:
		return "waiting_for_state"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// StatusFromString converts a string to a ConnectionStatus
func StatusFromString(s string) ConnectionStatus {
	switch s {
	case "connected":
		return Connected
	case "waiting_for_state", "waiting":
		return WaitingForState
	case "ready":
		return Ready
	default:
		return Disconnected
	}
}
