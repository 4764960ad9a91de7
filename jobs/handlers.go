package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/alimmenta/alimmenta/internal/identity"
	"github.com/alimmenta/alimmenta/internal/observability"
	"github.com/alimmenta/alimmenta/internal/subscriptions"
)

// Handlers bundles the services the worker tasks act on.
type Handlers struct {
	Logger        *slog.Logger
	Mailer        Mailer
	Subscriptions *subscriptions.Service
	Identity      *identity.Service
	Metrics       *observability.Metrics
}

// TaskHandlers lists the registrations for the worker mux.
func (h *Handlers) TaskHandlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskTypeSendEmail, Handler: h.HandleSendEmail},
		{Type: TaskTypeExpireSubscriptions, Handler: h.HandleExpireSubscriptions},
		{Type: TaskTypePruneSessions, Handler: h.HandlePruneSessions},
	}
}

func (h *Handlers) record(task string, err error) {
	if h.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.Metrics.RecordJob(task, outcome)
}

// HandleSendEmail delivers a queued email through the configured mailer.
func (h *Handlers) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.record(TaskTypeSendEmail, err)
		return asynq.SkipRetry
	}
	err := h.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	h.record(TaskTypeSendEmail, err)
	if err != nil {
		h.Logger.Error("send email failed",
			slog.String("to", payload.To),
			slog.Any("error", err))
		return err
	}
	h.Logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// HandleExpireSubscriptions sweeps subscriptions whose expiry date passed.
func (h *Handlers) HandleExpireSubscriptions(ctx context.Context, _ *asynq.Task) error {
	count, err := h.Subscriptions.ExpireDue(ctx)
	h.record(TaskTypeExpireSubscriptions, err)
	if err != nil {
		h.Logger.Error("subscription sweep failed", slog.Any("error", err))
		return err
	}
	h.Logger.Info("subscription sweep done", slog.Int64("expired", count))
	return nil
}

// HandlePruneSessions removes session rows that expired more than a day ago.
func (h *Handlers) HandlePruneSessions(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(-24 * time.Hour)
	count, err := h.Identity.PruneSessions(ctx, cutoff)
	h.record(TaskTypePruneSessions, err)
	if err != nil {
		h.Logger.Error("session prune failed", slog.Any("error", err))
		return err
	}
	h.Logger.Info("session prune done", slog.Int64("removed", count))
	return nil
}
