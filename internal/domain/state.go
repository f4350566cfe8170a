package domain

import "fmt"

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateError        ConnectionState = "error"
)

// ConnectionState is the runtime connection state of a registered MCP server.
type ConnectionState string

// ConnectionStates returns every defined connection state, in lifecycle order.
func ConnectionStates() []ConnectionState {
	return []ConnectionState{
		StateDisconnected,
		StateConnecting,
		StateConnected,
		StateReconnecting,
		StateError,
	}
}

// ParseConnectionState converts a string into a known ConnectionState.
func ParseConnectionState(s string) (ConnectionState, error) {
	for _, st := range ConnectionStates() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown connection state: %s", s)
}
