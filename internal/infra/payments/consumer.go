package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"babiloc/internal/app/commands"
	bookinghandlers "babiloc/internal/app/handlers/booking"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const (
	TypeConfirmed = "payment.confirmed"
	TypeFailed    = "payment.failed"
	TypeCancelled = "payment.cancelled"
)

// Inbox deduplicates redelivered events. An event is marked only after its
// command committed or was rejected, so a crash in between leads to redelivery.
type Inbox interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Event is the CloudEvents envelope published by the payment provider bridge.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ReservationID string `json:"reservation_id"`
		Reason        string `json:"reason"`
	} `json:"data"`
}

// Handler turns payment outcomes into reservation transitions run by the system actor.
type Handler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.log().Warn("payment event is not valid json", "offset", msg.Offset, "err", err)
		return nil
	}
	return h.Process(ctx, evt)
}

// Process applies one decoded event. Business rejections (already cancelled, unknown
// reservation) are logged and acknowledged; infrastructure errors are returned for redelivery.
func (h *Handler) Process(ctx context.Context, evt Event) error {
	kind := strings.TrimSuffix(evt.Type, ".v1")
	cmd, ok := commandFor(kind, evt)
	if !ok {
		return nil
	}
	if evt.ID == "" || evt.Data.ReservationID == "" {
		h.log().Warn("payment event missing id or reservation", "type", evt.Type, "event_id", evt.ID)
		return nil
	}
	if h.Inbox != nil {
		done, err := h.Inbox.Processed(ctx, evt.ID)
		if err != nil {
			return err
		}
		if done {
			h.log().Debug("payment event already processed", "event_id", evt.ID)
			return nil
		}
	}
	_, err := h.Bus.Dispatch(ctx, cmd)
	if err != nil {
		fe, ok := failure.As(err)
		if !ok {
			return fmt.Errorf("payments: apply %s for %s: %w", kind, evt.Data.ReservationID, err)
		}
		h.log().Info("payment event rejected", "event_id", evt.ID, "reservation_id", evt.Data.ReservationID, "kind", fe.Kind, "code", fe.Code)
	} else {
		h.log().Info("payment event applied", "event_id", evt.ID, "type", kind, "reservation_id", evt.Data.ReservationID)
	}
	if h.Inbox != nil {
		if err := h.Inbox.MarkProcessed(ctx, evt.ID); err != nil {
			return fmt.Errorf("payments: mark %s processed: %w", evt.ID, err)
		}
	}
	return nil
}

func commandFor(kind string, evt Event) (commands.Command, bool) {
	switch kind {
	case TypeConfirmed:
		return bookinghandlers.ConfirmReservationCommand{
			Actor:         user.SystemActor,
			ReservationID: evt.Data.ReservationID,
		}, true
	case TypeFailed, TypeCancelled:
		reason := evt.Data.Reason
		if reason == "" {
			reason = kind
		}
		return bookinghandlers.CancelReservationCommand{
			Actor:         user.SystemActor,
			ReservationID: evt.Data.ReservationID,
			Reason:        reason,
		}, true
	}
	return nil, false
}

func (h *Handler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
