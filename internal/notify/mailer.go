package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BearBump/TrackSim/internal/broker/messages"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes the rendered email to the log instead of sending it.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, e Email) error {
	m.log.InfoContext(ctx, "email", "to", e.To, "subject", e.Subject, "body", e.Body)
	return nil
}

// Render builds the customer email for a status change.
func Render(msg messages.StatusChanged) Email {
	var b strings.Builder
	name := msg.CustomerName
	if name == "" {
		name = "customer"
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Your shipment %s is now: %s (%d%%).\n", msg.TrackingID, msg.StatusLabel, msg.Progress)
	if msg.Description != "" {
		fmt.Fprintf(&b, "%s.\n", strings.TrimSuffix(msg.Description, "."))
	}
	if msg.Location != "" {
		fmt.Fprintf(&b, "Current location: %s\n", msg.Location)
	}
	if msg.EstimatedDelivery != nil {
		fmt.Fprintf(&b, "Estimated delivery: %s\n", msg.EstimatedDelivery.Format("2006-01-02"))
	}
	if msg.OrderID != "" {
		fmt.Fprintf(&b, "Order reference: %s\n", msg.OrderID)
	}

	return Email{
		To:      msg.CustomerEmail,
		Subject: fmt.Sprintf("Shipment %s: %s", msg.TrackingID, msg.StatusLabel),
		Body:    b.String(),
	}
}
