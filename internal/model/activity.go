package model

import "time"

// ActivityLog is an append-only audit entry. ActorID is nil for
// system-attributed actions such as scheduled scans.
type ActivityLog struct {
	ID          int64     `json:"id"`
	ActorID     *int64    `json:"actor_id"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	ResourceID  int64     `json:"resource_id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}
