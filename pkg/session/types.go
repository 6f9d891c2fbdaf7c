package session

import "time"

// State is the lifecycle state of the session controller.
type State int

const (
	// StateDisconnected is the initial and terminal state of each cycle.
	StateDisconnected State = iota
	// StateConnecting covers device setup and the connection handshake.
	StateConnecting
	// StateConnected means audio is streaming in both directions.
	StateConnected
	// StateError is entered on failure before teardown completes.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one immutable entry in the conversation log.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
}

// Complexity grades how hard an automation candidate is to implement.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// AutomationCandidate is one workflow the model flagged as automatable.
// Created once per tool call, never mutated afterwards.
type AutomationCandidate struct {
	ID                 string
	Title              string
	Description        string
	Frequency          string
	EstimatedTimeSaved string
	Complexity         Complexity
	Steps              []string
}
