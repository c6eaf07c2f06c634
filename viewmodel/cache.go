package viewmodel

import (
	"sync"
	"time"

	"ticketsync/entity"
)

// TicketCollection is the last snapshot of a passenger's tickets, in the
// order the ticketing service returned them. Readers get copies, the
// snapshot itself is only ever replaced as a whole.
type TicketCollection struct {
	lock sync.RWMutex

	tickets  []entity.Ticket
	loadedAt time.Time
}

func NewTicketCollection() *TicketCollection {
	return &TicketCollection{
		tickets: make([]entity.Ticket, 0),
	}
}

func (c *TicketCollection) ReplaceAll(tickets []entity.Ticket) {
	snapshot := make([]entity.Ticket, len(tickets))
	copy(snapshot, tickets)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.tickets = snapshot
	c.loadedAt = time.Now()
}

func (c *TicketCollection) All() []entity.Ticket {
	c.lock.RLock()
	defer c.lock.RUnlock()

	tickets := make([]entity.Ticket, len(c.tickets))
	copy(tickets, c.tickets)

	return tickets
}

func (c *TicketCollection) Get(ticketID string) (entity.Ticket, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, t := range c.tickets {
		if t.TicketID == ticketID {
			return t, true
		}
	}

	return entity.Ticket{}, false
}

func (c *TicketCollection) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.tickets)
}

// LoadedAt is zero until the first successful reload.
func (c *TicketCollection) LoadedAt() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.loadedAt
}
