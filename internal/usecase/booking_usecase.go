package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trailer-booking/internal/domain"
	"trailer-booking/pkg/logger"
	"trailer-booking/pkg/metrics"
)

type bookingUsecase struct {
	catalog  *domain.Catalog
	sessions domain.FormSessionRepository
	backend  domain.BookingBackend
	metrics  *metrics.BookingMetrics
	timeout  time.Duration
}

// NewBookingUsecase creates the booking form usecase.
// A nil backend makes every submission fail as unavailable; timeout 0 means
// the backend call is never cut short.
func NewBookingUsecase(
	catalog *domain.Catalog,
	sessions domain.FormSessionRepository,
	backend domain.BookingBackend,
	m *metrics.BookingMetrics,
	timeout time.Duration,
) domain.BookingUsecase {
	return &bookingUsecase{
		catalog:  catalog,
		sessions: sessions,
		backend:  backend,
		metrics:  m,
		timeout:  timeout,
	}
}

func (uc *bookingUsecase) Catalog() *domain.Catalog {
	return uc.catalog
}

// loadForm reads the session's form; the submitting flag mirrors the submit lock
func (uc *bookingUsecase) loadForm(ctx context.Context, sessionID string) (*domain.BookingForm, error) {
	form, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form session: %w", err)
	}
	locked, err := uc.sessions.IsLocked(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read submit lock: %w", err)
	}
	form.Submission.Submitting = locked
	return form, nil
}

func (uc *bookingUsecase) LoadForm(ctx context.Context, sessionID string) (*domain.FormView, error) {
	form, err := uc.loadForm(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return form.View(uc.catalog), nil
}

// ApplyEdit changes fields of the session's form. Edits are refused while a
// submission is outstanding, since its outcome may clear the form.
func (uc *bookingUsecase) ApplyEdit(ctx context.Context, sessionID string, edit domain.FormEdit) (*domain.FormView, error) {
	var view *domain.FormView
	var editErr error
	err := uc.sessions.Update(ctx, sessionID, func(form *domain.BookingForm, locked bool) error {
		form.Submission.Submitting = locked
		editErr = nil
		if locked {
			editErr = domain.ErrSubmissionInFlight
		} else {
			editErr = form.Apply(uc.catalog, edit)
		}
		view = form.View(uc.catalog)
		return editErr
	})
	switch {
	case err == nil:
		uc.metrics.ObserveEdit(true)
		return view, nil
	case editErr == nil:
		return nil, fmt.Errorf("failed to save form session: %w", err)
	case errors.Is(editErr, domain.ErrSubmissionInFlight):
		return view, editErr
	default:
		uc.metrics.ObserveEdit(false)
		return view, editErr
	}
}

// ResetForm starts the session over with an empty form
func (uc *bookingUsecase) ResetForm(ctx context.Context, sessionID string) (*domain.FormView, error) {
	err := uc.sessions.Update(ctx, sessionID, func(form *domain.BookingForm, locked bool) error {
		if locked {
			return domain.ErrSubmissionInFlight
		}
		*form = *domain.NewBookingForm()
		return nil
	})
	if errors.Is(err, domain.ErrSubmissionInFlight) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset form session: %w", err)
	}
	return domain.NewBookingForm().View(uc.catalog), nil
}

// SubmitForm validates the session's form and forwards it to the backend.
//
// The returned result is set whenever the form reached a conclusion, including
// validation and backend failures; the error then tells the caller which one.
func (uc *bookingUsecase) SubmitForm(ctx context.Context, sessionID string) (*domain.SubmissionResult, error) {
	token, acquired, err := uc.sessions.TryLock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to take submit lock: %w", err)
	}
	if !acquired {
		uc.metrics.ObserveSubmission("", metrics.OutcomeInFlight)
		return nil, domain.ErrSubmissionInFlight
	}
	defer func() {
		if err := uc.sessions.Unlock(context.WithoutCancel(ctx), sessionID, token); err != nil {
			logger.Log.Error("Failed to release submit lock", "session_id", sessionID, "error", err)
		}
	}()
	stop := uc.holdLock(sessionID, token)
	defer stop()

	form, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form session: %w", err)
	}
	// The lock is ours; a stored flag is left over from a submission that never concluded
	form.Submission.Submitting = false
	category := form.Category

	fields, err := form.BeginSubmit(uc.catalog)
	if err != nil {
		uc.metrics.ObserveSubmission(string(category), metrics.OutcomeValidationError)
		if saveErr := uc.sessions.Save(ctx, sessionID, form); saveErr != nil {
			return nil, fmt.Errorf("failed to save form session: %w", saveErr)
		}
		return uc.result(form, true), err
	}
	if err := uc.sessions.Save(ctx, sessionID, form); err != nil {
		return nil, fmt.Errorf("failed to save form session: %w", err)
	}

	outcome := uc.process(ctx, fields)
	form.Conclude(outcome)
	uc.observeOutcome(string(category), outcome)
	logger.Log.Info("Booking submission concluded",
		"session_id", sessionID,
		"category", category,
		"backend", uc.backendName(),
		"classification", form.Submission.Kind,
	)

	// The backend already has the booking; a failed save must not hide that.
	if err := uc.sessions.Save(context.WithoutCancel(ctx), sessionID, form); err != nil {
		logger.Log.Error("Failed to save concluded form session", "session_id", sessionID, "error", err)
	}
	return uc.result(form, true), submissionErr(outcome)
}

// SubmitBooking runs one complete booking through the same checks and backend
// as a form session, without storing anything.
func (uc *bookingUsecase) SubmitBooking(ctx context.Context, req *domain.BookingRequest) (*domain.SubmissionResult, error) {
	form := domain.NewBookingForm()
	if err := form.Apply(uc.catalog, req.Edit()); err != nil {
		return nil, err
	}

	fields, err := form.BeginSubmit(uc.catalog)
	if err != nil {
		uc.metrics.ObserveSubmission(string(req.Category), metrics.OutcomeValidationError)
		return uc.result(form, false), err
	}

	outcome := uc.process(ctx, fields)
	form.Conclude(outcome)
	uc.observeOutcome(string(req.Category), outcome)
	logger.Log.Info("Booking request concluded",
		"category", req.Category,
		"backend", uc.backendName(),
		"classification", form.Submission.Kind,
	)
	return uc.result(form, false), submissionErr(outcome)
}

// process makes the single backend call of a submission. It outlives the
// caller's request, and only the configured timeout can cut it short.
func (uc *bookingUsecase) process(ctx context.Context, fields domain.BookingFields) (out domain.Outcome) {
	if uc.backend == nil {
		return domain.Outcome{Err: domain.ErrBackendUnavailable}
	}

	ctx = context.WithoutCancel(ctx)
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		uc.metrics.ObserveBackendLatency(uc.backend.Name(), time.Since(start))
		if r := recover(); r != nil {
			logger.Log.Error("Booking backend panicked", "backend", uc.backend.Name(), "panic", r)
			out = domain.Outcome{Err: fmt.Errorf("an unexpected error occurred: %v", r)}
		}
	}()

	confirmation, err := uc.backend.ProcessBooking(ctx, fields)
	if err != nil {
		if !errors.Is(err, domain.ErrBackendUnavailable) {
			logger.Log.Warn("Booking backend failed", "backend", uc.backend.Name(), "error", err)
		}
		return domain.Outcome{Err: err}
	}
	if confirmation == "" {
		confirmation = domain.MsgBookingReceived
	}
	return domain.Outcome{Confirmation: confirmation}
}

// holdLock refreshes the submit lock every third of its TTL until the returned
// stop is called, so a slow backend call never outlives the lock
func (uc *bookingUsecase) holdLock(sessionID, token string) (stop func()) {
	interval := uc.sessions.LockTTL() / 3
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				held, err := uc.sessions.RefreshLock(context.Background(), sessionID, token)
				if err != nil {
					logger.Log.Warn("Failed to refresh submit lock", "session_id", sessionID, "error", err)
					continue
				}
				if !held {
					logger.Log.Error("Submit lock lost while the backend call is outstanding", "session_id", sessionID)
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func (uc *bookingUsecase) observeOutcome(category string, out domain.Outcome) {
	switch {
	case out.Err == nil:
		uc.metrics.ObserveSubmission(category, metrics.OutcomeSuccess)
	case errors.Is(out.Err, domain.ErrBackendUnavailable):
		uc.metrics.ObserveSubmission(category, metrics.OutcomeUnavailable)
	default:
		uc.metrics.ObserveSubmission(category, metrics.OutcomeBackendError)
	}
}

func (uc *bookingUsecase) backendName() string {
	if uc.backend == nil {
		return "none"
	}
	return uc.backend.Name()
}

func (uc *bookingUsecase) result(form *domain.BookingForm, withView bool) *domain.SubmissionResult {
	res := &domain.SubmissionResult{
		Message:        form.Submission.Message,
		Classification: form.Submission.Kind,
	}
	if withView {
		res.Form = form.View(uc.catalog)
	}
	return res
}

func submissionErr(out domain.Outcome) error {
	if out.Err == nil {
		return nil
	}
	var subErr *domain.SubmissionError
	if errors.As(out.Err, &subErr) {
		return subErr
	}
	return &domain.SubmissionError{Err: out.Err}
}
