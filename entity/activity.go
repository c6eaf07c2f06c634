package entity

import "time"

type ActivityKind string

const (
	ActivityTicketBooked    ActivityKind = "ticket_booked"
	ActivityTicketCancelled ActivityKind = "ticket_cancelled"
	ActivityTicketValidated ActivityKind = "ticket_validated"
)

// ActivityEntry is one row of the "recent activity" read model.
type ActivityEntry struct {
	EventID     string       `json:"eventId" db:"event_id"`
	OccurredAt  time.Time    `json:"occurredAt" db:"occurred_at"`
	Kind        ActivityKind `json:"kind" db:"kind"`
	PassengerID string       `json:"passengerId" db:"passenger_id"`
	TicketID    string       `json:"ticketId" db:"ticket_id"`
	TripID      string       `json:"tripId,omitempty" db:"trip_id"`
	Details     string       `json:"details" db:"details"`
}
