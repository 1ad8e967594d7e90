package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/TrackSim/internal/broker/messages"
	"github.com/pkg/errors"
)

// Handler turns consumed StatusChanged messages into emails.
type Handler struct {
	mailer Mailer
	log    *slog.Logger
}

func NewHandler(mailer Mailer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{mailer: mailer, log: log.With("component", "notify_handler")}
}

// Handle skips messages it cannot decode or address; only mailer failures are
// returned, so the offset is not committed for them.
func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	var msg messages.StatusChanged
	if err := json.Unmarshal(value, &msg); err != nil {
		h.log.Warn("skip malformed notification", "key", string(key), "error", err.Error())
		return nil
	}
	if msg.CustomerEmail == "" {
		h.log.Warn("skip notification without recipient", "tracking_id", msg.TrackingID)
		return nil
	}
	if err := h.mailer.Send(ctx, Render(msg)); err != nil {
		return errors.Wrap(err, "send email")
	}
	return nil
}
