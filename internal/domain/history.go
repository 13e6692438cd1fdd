package domain

import "time"

// HistoryEntry is an immutable record of one accepted transition.
type HistoryEntry struct {
	ID          string
	ComplaintID string
	Sequence    int64
	Event       Event
	FromStatus  ComplaintStatus
	ToStatus    ComplaintStatus
	ActorID     string
	ActorRole   ActorRole
	Message     string
	CreatedAt   time.Time
}
