package viewmodel

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"ticketsync/entity"
)

type Category string

const (
	CategoryAll       Category = "all"
	CategoryActive    Category = "active"
	CategoryUsed      Category = "used"
	CategoryExpired   Category = "expired"
	CategoryCancelled Category = "cancelled"
)

var Categories = []Category{
	CategoryAll,
	CategoryActive,
	CategoryUsed,
	CategoryExpired,
	CategoryCancelled,
}

var categoryStatuses = map[Category][]entity.TicketStatus{
	CategoryActive:    {entity.TicketStatusCreated, entity.TicketStatusPaid},
	CategoryUsed:      {entity.TicketStatusValidated},
	CategoryExpired:   {entity.TicketStatusExpired},
	CategoryCancelled: {entity.TicketStatusCancelled},
}

// Matches reports whether a ticket in the given status belongs to the
// category. Categories outside the table match the status of the same name.
func (c Category) Matches(status entity.TicketStatus) bool {
	if c == CategoryAll {
		return true
	}

	statuses, ok := categoryStatuses[c]
	if !ok {
		return status == entity.TicketStatus(strings.ToUpper(string(c)))
	}

	return lo.Contains(statuses, status)
}

func (c Category) Known() bool {
	return lo.Contains(Categories, c)
}

// Filter keeps the tickets of the category in their original order.
func Filter(tickets []entity.Ticket, category Category) []entity.Ticket {
	return lo.Filter(tickets, func(t entity.Ticket, _ int) bool {
		return category.Matches(t.Status)
	})
}

// ParseCategory reads a category from user input. An empty value is "all".
// Unknown values are rejected unless legacy is set, in which case they go
// through to the status-name fallback of Matches.
func ParseCategory(value string, legacy bool) (Category, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return CategoryAll, nil
	}

	category := Category(value)
	if category.Known() || legacy {
		return category, nil
	}

	return "", fmt.Errorf("%w: %q", entity.ErrUnknownCategory, value)
}
