package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/delivery"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/jobs"
	"github.com/geocoder89/worklink/internal/notifications"
	"github.com/geocoder89/worklink/internal/observability"
)

// permanentError marks failures that retrying cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

func isPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// ProcessOne claims and runs a single job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.Jobs.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.Stats.Claimed()
	if w.Prom != nil {
		w.Prom.JobsInFlight.Inc()
		defer w.Prom.JobsInFlight.Dec()
	}

	start := time.Now()
	log := w.Log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	execCtx, cancelExec := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.execute(execCtx, j)
	cancelExec()

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.observe(j.Type, result, time.Since(start))
		log.Warn("job failed", "result", result, "err", err)
		return true, nil
	}

	if err := w.Jobs.MarkDone(ctx, j.ID); err != nil {
		_ = w.Jobs.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		w.observe(j.Type, observability.ResultFailed, time.Since(start))
		return true, err
	}

	w.observe(j.Type, observability.ResultDone, time.Since(start))
	log.Info("job done", "duration_ms", time.Since(start).Milliseconds())
	return true, nil
}

func (w *Worker) observe(jobType, result string, d time.Duration) {
	w.Stats.Finished(result, d)
	if w.Prom != nil {
		w.Prom.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
		w.Prom.JobResults.WithLabelValues(jobType, result).Inc()
	}
}

// handleFailure retries with backoff, or dead-letters permanent and exhausted jobs.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	msg := cause.Error()

	if isPermanent(cause) || j.Exhausted() {
		if err := w.Jobs.MarkFailed(ctx, j.ID, msg); err != nil {
			w.Log.Error("mark failed error", "job_id", j.ID, "err", err)
		}
		if isPermanent(cause) {
			return observability.ResultFailed
		}
		return observability.ResultDeadLetter
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(j.Attempts))
	if err := w.Jobs.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		w.Log.Error("reschedule error", "job_id", j.ID, "err", err)
	}
	return observability.ResultRetry
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	t, payload, err := jobs.DecodePayload(j)
	if err != nil {
		return permanent(err)
	}

	req, err := w.Requests.GetByID(ctx, payload.ConnectionRequestID)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return permanent(err)
		}
		return err
	}

	recipient, err := w.Users.GetByID(ctx, payload.RecipientID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return permanent(err)
		}
		return err
	}

	n, err := buildNotification(t, req, recipient)
	if err != nil {
		return permanent(err)
	}

	kind := string(n.Kind)

	err = w.Deliveries.TryStart(ctx, kind, req.ID, j.ID, recipient.Email)
	if err != nil {
		if errors.Is(err, delivery.ErrAlreadySent) {
			return nil
		}
		return err
	}

	if err := w.Notifier.Send(ctx, n); err != nil {
		w.countNotification(kind, "error")
		if markErr := w.Deliveries.MarkFailed(ctx, kind, req.ID, err.Error()); markErr != nil {
			w.Log.Error("mark delivery failed error", "job_id", j.ID, "err", markErr)
		}
		return err
	}
	w.countNotification(kind, "sent")
	w.Stats.Delivered(kind)

	return w.Deliveries.MarkSent(ctx, kind, req.ID, nil)
}

func (w *Worker) countNotification(kind, result string) {
	if w.Prom != nil {
		w.Prom.NotificationsTotal.WithLabelValues(kind, result).Inc()
	}
}

func buildNotification(t jobs.JobType, req connection.Request, recipient user.User) (notifications.Notification, error) {
	n := notifications.Notification{
		Recipient: notifications.Recipient{Email: recipient.Email, Name: recipient.Name},
		Data: map[string]string{
			"workPostId":     req.WorkPostID,
			"workPostTitle":  req.WorkPostTitle,
			"workerName":     req.SenderName,
			"contractorName": req.ReceiverName,
			"chatId":         req.ChatID,
		},
	}

	switch t {
	case jobs.JobNotifyJobApplication:
		n.Kind = notifications.KindJobApplication
	case jobs.JobNotifyContactRequest:
		n.Kind = notifications.KindContactRequest
	default:
		return notifications.Notification{}, fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, t)
	}
	return n, nil
}
