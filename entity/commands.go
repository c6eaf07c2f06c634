package entity

type BookTicketRequest struct {
	PassengerID string     `json:"passengerId"`
	TripID      string     `json:"tripId"`
	SeatNumber  string     `json:"seatNumber,omitempty"`
	TicketType  TicketType `json:"ticketType"`
}

type ValidateTicketRequest struct {
	TicketID    string `json:"ticketId"`
	QRCode      string `json:"qrCode"`
	ValidatorID string `json:"validatorId"`
}

type ValidationResult struct {
	IsValid     bool       `json:"isValid"`
	TicketID    string     `json:"ticketId"`
	PassengerID string     `json:"passengerId"`
	ValidatedAt *Timestamp `json:"validatedAt,omitempty"`
	Message     string     `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
