package entity

type TicketStatus string

const (
	TicketStatusCreated   TicketStatus = "CREATED"
	TicketStatusPaid      TicketStatus = "PAID"
	TicketStatusValidated TicketStatus = "VALIDATED"
	TicketStatusExpired   TicketStatus = "EXPIRED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// ticketTransitions is enforced by the ticketing service; the client only
// uses it to decide which actions to offer.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusCreated:   {TicketStatusPaid, TicketStatusCancelled, TicketStatusExpired},
	TicketStatusPaid:      {TicketStatusValidated, TicketStatusCancelled, TicketStatusExpired},
	TicketStatusValidated: {TicketStatusExpired},
}

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusCreated, TicketStatusPaid, TicketStatusValidated, TicketStatusExpired, TicketStatusCancelled:
		return true
	default:
		return false
	}
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsCancellable reports whether a cancel action may be offered for a ticket
// in this status.
func (s TicketStatus) IsCancellable() bool {
	return s.CanTransitionTo(TicketStatusCancelled)
}

type TicketType string

const (
	TicketTypeSingle      TicketType = "single"
	TicketTypeReturn      TicketType = "return"
	TicketTypeDayPass     TicketType = "day-pass"
	TicketTypeWeeklyPass  TicketType = "weekly-pass"
	TicketTypeMonthlyPass TicketType = "monthly-pass"
	TicketTypeStandard    TicketType = "standard"
)

type Ticket struct {
	TicketID     string       `json:"ticketId"`
	PassengerID  string       `json:"passengerId"`
	TripID       string       `json:"tripId"`
	SeatNumber   string       `json:"seatNumber,omitempty"`
	TicketType   TicketType   `json:"ticketType"`
	Price        float64      `json:"price"`
	Status       TicketStatus `json:"status"`
	PurchaseDate Timestamp    `json:"purchaseDate"`
	ValidFrom    *Timestamp   `json:"validFrom,omitempty"`
	ValidUntil   *Timestamp   `json:"validUntil,omitempty"`
	QRCode       string       `json:"qrCode"`

	// sent by the ticketing service only, the passenger service leaves them empty
	RouteName            string     `json:"routeName,omitempty"`
	RouteNumber          string     `json:"routeNumber,omitempty"`
	ValidatedAt          *Timestamp `json:"validatedAt,omitempty"`
	PaymentID            string     `json:"paymentId,omitempty"`
	TransactionReference string     `json:"transactionReference,omitempty"`
}

func (t Ticket) IsCancellable() bool {
	return t.Status.IsCancellable()
}
