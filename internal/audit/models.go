package audit

import "time"

// Entry records one admin action.
type Entry struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	ActorID      string         `json:"actorId,omitempty"`
	ActorEmail   string         `json:"actorEmail,omitempty"`
	ActorRole    string         `json:"actorRole,omitempty"`
	IP           string         `json:"ip,omitempty"`
	RequestID    string         `json:"requestId,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
