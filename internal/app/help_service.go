package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const helpTicketOpen = "open"

var helpPriorities = map[string]bool{"low": true, "medium": true, "high": true}

// HelpService files help tickets.
type HelpService struct {
	store HelpStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewHelpService(store HelpStore, log logrus.FieldLogger) *HelpService {
	return &HelpService{store: store, log: log, now: time.Now}
}

// Submit opens a ticket for userID.
func (s *HelpService) Submit(ctx context.Context, userID string, ticket domain.HelpTicket) (domain.HelpTicket, error) {
	ticket.Subject = strings.TrimSpace(ticket.Subject)
	ticket.Category = strings.TrimSpace(ticket.Category)
	ticket.Description = strings.TrimSpace(ticket.Description)
	ticket.Priority = strings.ToLower(strings.TrimSpace(ticket.Priority))
	if ticket.Subject == "" || ticket.Category == "" || ticket.Description == "" {
		return domain.HelpTicket{}, fmt.Errorf("%w: missing ticket fields", domain.ErrInvalidRequest)
	}
	if !helpPriorities[ticket.Priority] {
		return domain.HelpTicket{}, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidRequest, ticket.Priority)
	}
	ticket.UserID = userID
	ticket.Status = helpTicketOpen
	ticket.CreatedAt = s.now().UTC()

	created, err := s.store.CreateHelpTicket(ctx, ticket)
	if err != nil {
		return domain.HelpTicket{}, err
	}
	s.log.WithFields(logrus.Fields{"ticket_id": created.ID, "user_id": userID, "priority": created.Priority}).Info("help ticket opened")
	return created, nil
}
