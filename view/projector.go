package view

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"ticketsync/entity"
	"ticketsync/viewmodel"
)

const (
	dateLayout = "Jan 2, 2006 15:04"

	EmptyListMessage     = "You don't have any tickets yet. Book your first ticket now!"
	EmptyCategoryMessage = "No tickets in this category."
)

var typeLabels = map[entity.TicketType]string{
	entity.TicketTypeSingle:      "Single Ride",
	entity.TicketTypeReturn:      "Return Ticket",
	entity.TicketTypeDayPass:     "Day Pass",
	entity.TicketTypeWeeklyPass:  "Weekly Pass",
	entity.TicketTypeMonthlyPass: "Monthly Pass",
	entity.TicketTypeStandard:    "Standard",
}

type TicketView struct {
	TicketID     string              `json:"ticketId"`
	ShortID      string              `json:"shortId"`
	TripID       string              `json:"tripId"`
	Route        string              `json:"route,omitempty"`
	SeatNumber   string              `json:"seatNumber"`
	TypeLabel    string              `json:"typeLabel"`
	Price        string              `json:"price"`
	Status       entity.TicketStatus `json:"status"`
	StatusClass  string              `json:"statusClass"`
	PurchaseDate string              `json:"purchaseDate"`
	ValidFrom    string              `json:"validFrom,omitempty"`
	ValidUntil   string              `json:"validUntil,omitempty"`
	ValidatedAt  string              `json:"validatedAt,omitempty"`
	QRCode       string              `json:"qrCode"`
	CanCancel    bool                `json:"canCancel"`
}

type ListView struct {
	Category viewmodel.Category         `json:"category"`
	Tickets  []TicketView               `json:"tickets"`
	Counts   map[viewmodel.Category]int `json:"counts"`
	Message  string                     `json:"message,omitempty"`
}

func Project(t entity.Ticket) TicketView {
	return TicketView{
		TicketID:     t.TicketID,
		ShortID:      shortID(t.TicketID),
		TripID:       t.TripID,
		Route:        route(t),
		SeatNumber:   lo.Ternary(t.SeatNumber == "", "Any", t.SeatNumber),
		TypeLabel:    TypeLabel(t.TicketType),
		Price:        fmt.Sprintf("$%.2f", t.Price),
		Status:       t.Status,
		StatusClass:  "status-" + strings.ToLower(string(t.Status)),
		PurchaseDate: formatDate(&t.PurchaseDate),
		ValidFrom:    formatDate(t.ValidFrom),
		ValidUntil:   formatDate(t.ValidUntil),
		ValidatedAt:  formatDate(t.ValidatedAt),
		QRCode:       t.QRCode,
		CanCancel:    t.IsCancellable(),
	}
}

func ProjectAll(tickets []entity.Ticket) []TicketView {
	return lo.Map(tickets, func(t entity.Ticket, _ int) TicketView {
		return Project(t)
	})
}

// List renders the category tab of a passenger's list. all is the whole
// cached list, used for the per-tab counters and the empty message.
func List(category viewmodel.Category, all []entity.Ticket) ListView {
	visible := viewmodel.Filter(all, category)

	counts := make(map[viewmodel.Category]int, len(viewmodel.Categories))
	for _, c := range viewmodel.Categories {
		counts[c] = len(viewmodel.Filter(all, c))
	}

	list := ListView{
		Category: category,
		Tickets:  ProjectAll(visible),
		Counts:   counts,
	}

	switch {
	case len(all) == 0:
		list.Message = EmptyListMessage
	case len(visible) == 0:
		list.Message = EmptyCategoryMessage
	}

	return list
}

// TypeLabel shows unknown ticket types as they came from the backend.
func TypeLabel(ticketType entity.TicketType) string {
	if label, ok := typeLabels[ticketType]; ok {
		return label
	}
	return string(ticketType)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func route(t entity.Ticket) string {
	switch {
	case t.RouteNumber != "" && t.RouteName != "":
		return t.RouteNumber + " " + t.RouteName
	case t.RouteName != "":
		return t.RouteName
	default:
		return t.RouteNumber
	}
}

func formatDate(ts *entity.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Format(dateLayout)
}
