package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastSession(sessionID string, msgType string, payload interface{})
}

// MsgSessionUpdated carries a fresh session snapshot after every persisted transition
const MsgSessionUpdated = "session_updated"
