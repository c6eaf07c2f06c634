package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

type TicketBooked struct {
	Header      EventHeader  `json:"header"`
	TicketID    string       `json:"ticket_id"`
	PassengerID string       `json:"passenger_id"`
	TripID      string       `json:"trip_id"`
	SeatNumber  string       `json:"seat_number,omitempty"`
	TicketType  TicketType   `json:"ticket_type"`
	Price       float64      `json:"price"`
	Status      TicketStatus `json:"status"`
}

type TicketCancelled struct {
	Header      EventHeader `json:"header"`
	TicketID    string      `json:"ticket_id"`
	PassengerID string      `json:"passenger_id"`
}

type TicketValidated struct {
	Header      EventHeader `json:"header"`
	TicketID    string      `json:"ticket_id"`
	PassengerID string      `json:"passenger_id"`
	ValidatorID string      `json:"validator_id"`
	IsValid     bool        `json:"is_valid"`
	Message     string      `json:"message"`
}
