package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/workflow"
)

const ticketKeyPrefix = "delete_ticket:"

// Tickets keeps pending delete confirmations in the browser session, so a
// confirmation can only be completed by the session that requested it.
type Tickets struct {
	sm *scs.SessionManager
}

// NewTickets returns a session-backed workflow.TicketStore.
func NewTickets(sm *scs.SessionManager) *Tickets {
	return &Tickets{sm: sm}
}

// PutTicket implements workflow.TicketStore.
func (t *Tickets) PutTicket(ctx context.Context, key string, ticket workflow.Ticket) error {
	b, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encoding ticket: %w", err)
	}
	t.sm.Put(ctx, ticketKeyPrefix+key, string(b))
	return nil
}

// TakeTicket implements workflow.TicketStore.
func (t *Tickets) TakeTicket(ctx context.Context, key string) (workflow.Ticket, bool) {
	raw := t.sm.PopString(ctx, ticketKeyPrefix+key)
	if raw == "" {
		return workflow.Ticket{}, false
	}
	var ticket workflow.Ticket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return workflow.Ticket{}, false
	}
	return ticket, true
}

// PeekTicket returns the ticket for key without removing it.
func (t *Tickets) PeekTicket(ctx context.Context, key string) (workflow.Ticket, bool) {
	raw := t.sm.GetString(ctx, ticketKeyPrefix+key)
	if raw == "" {
		return workflow.Ticket{}, false
	}
	var ticket workflow.Ticket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return workflow.Ticket{}, false
	}
	return ticket, true
}
