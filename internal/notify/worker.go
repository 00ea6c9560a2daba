package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

type RecipientLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Worker performs a single delivery: resolve the recipient, render, send,
// and record the attempt.
type Worker struct {
	users    RecipientLookup
	renderer *Renderer
	mailer   Mailer
	attempts models.DeliveryLog
	logger   *slog.Logger
	timeout  time.Duration
}

func NewWorker(users RecipientLookup, renderer *Renderer, mailer Mailer, attempts models.DeliveryLog, logger *slog.Logger) *Worker {
	return &Worker{
		users:    users,
		renderer: renderer,
		mailer:   mailer,
		attempts: attempts,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

func (w *Worker) Deliver(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	attempt := &models.NotificationAttempt{
		Kind:            job.Kind,
		BookingID:       job.BookingID,
		ChangeRequestID: job.ChangeRequestID,
		Subject:         job.Subject,
	}
	err := w.deliver(ctx, job, attempt)

	switch {
	case err == nil:
		attempt.Status = models.AttemptSent
	case errors.Is(err, ErrMailDisabled):
		attempt.Status = models.AttemptSkipped
		attempt.Error = err.Error()
		err = nil
	default:
		attempt.Status = models.AttemptFailed
		attempt.Error = err.Error()
	}
	w.record(ctx, attempt)

	if err != nil {
		w.logger.Warn("Notification delivery failed",
			"kind", job.Kind,
			"booking_id", job.BookingID,
			"error", err,
		)
		return err
	}
	w.logger.Info("Notification processed",
		"kind", job.Kind,
		"booking_id", job.BookingID,
		"status", attempt.Status,
	)
	return nil
}

func (w *Worker) deliver(ctx context.Context, job Job, attempt *models.NotificationAttempt) error {
	user, err := w.users.GetUser(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", job.UserID, err)
	}
	attempt.Recipient = user.Email
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", job.UserID)
	}

	data := make(map[string]string, len(job.Data)+1)
	for k, v := range job.Data {
		data[k] = v
	}
	data["name"] = user.FullName
	if data["name"] == "" {
		data["name"] = "User"
	}

	html, err := w.renderer.Render(job.Template, data)
	if err != nil {
		return err
	}
	return w.mailer.Send(ctx, Message{To: user.Email, Subject: job.Subject, HTML: html})
}

func (w *Worker) record(ctx context.Context, attempt *models.NotificationAttempt) {
	if w.attempts == nil {
		return
	}
	if err := w.attempts.RecordAttempt(ctx, attempt); err != nil {
		w.logger.Warn("Failed to record notification attempt", "kind", attempt.Kind, "error", err)
	}
}
