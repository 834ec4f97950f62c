package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBackendUnavailable means no booking backend can take the request right now
	ErrBackendUnavailable = errors.New("booking backend is not available")
	// ErrSubmissionInFlight means the session already has a submission outstanding
	ErrSubmissionInFlight = errors.New("a booking request is already being submitted")
	// ErrInvalidEdit means a form edit named a value outside the allowed options
	ErrInvalidEdit = errors.New("invalid form edit")
	// ErrInvalidTimeSlotRange means the time slot range cannot produce slots
	ErrInvalidTimeSlotRange = errors.New("invalid time slot range")
)

// Messages shown to the visitor
const (
	MsgSelectCategory     = "Please select a trailer type."
	MsgRequiredFields     = `Please fill in all required fields, including specific addresses if "Other" is selected.`
	MsgBackendUnavailable = "Booking backend is not available. Submission will not work."
	MsgBookingFailed      = "Booking failed: %s"
	MsgBookingReceived    = "Your booking request has been received! We will contact you to confirm."
)

// ValidationError is detected locally before any backend call
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionError is raised by the booking backend or by its absence
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if errors.Is(e.Err, ErrBackendUnavailable) {
		return MsgBackendUnavailable
	}
	return fmt.Sprintf(MsgBookingFailed, e.Err.Error())
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// BookingFields maps the external form's question labels to answers
type BookingFields map[string]string

// Question labels of the external booking form
const (
	LabelName            = "What's your Name?"
	LabelEmail           = "What's your Email?"
	LabelPhone           = "What's Your Phone Number"
	LabelSpecialRequests = "Special Requests"
	LabelPickupLocation  = "Where would you like to pick up your trailer?"
	LabelDropOffLocation = "Where would you like to Drop off your trailer?"
)

// SizeLabel returns the size question for a category
func SizeLabel(c Category) string {
	return fmt.Sprintf("What size of %s trailer do you need?", c)
}

// PickupDateLabel returns the pickup date question for a category
func PickupDateLabel(c Category) string {
	return fmt.Sprintf("What's your Desired Pickup Date for the %s Trailer?", c)
}

// PickupTimeLabel returns the pickup time question for a category
func PickupTimeLabel(c Category) string {
	return fmt.Sprintf("What's your Desired Pickup Time for the %s Trailer?", c)
}

// ReturnDateLabel returns the return date question for a category
func ReturnDateLabel(c Category) string {
	return fmt.Sprintf("What's your Desired Return Date for the %s Trailer?", c)
}

// ReturnTimeLabel returns the return time question for a category
func ReturnTimeLabel(c Category) string {
	return fmt.Sprintf("What's your Desired Return Time for the %s Trailer?", c)
}

// QuestionOrder lists every label a payload may carry, in form order.
// Backends that lay answers out (email, workbook) follow it.
func QuestionOrder() []string {
	labels := []string{LabelName, LabelEmail, LabelPhone}
	for _, c := range Categories {
		labels = append(labels,
			SizeLabel(c),
			PickupDateLabel(c),
			PickupTimeLabel(c),
			ReturnDateLabel(c),
			ReturnTimeLabel(c),
		)
	}
	return append(labels, LabelPickupLocation, LabelDropOffLocation, LabelSpecialRequests)
}

// BookingRequest is a complete booking posted in one call
type BookingRequest struct {
	Name            string       `json:"name" binding:"max=200,no_control"`
	Email           string       `json:"email" binding:"max=200,no_control"`
	Phone           string       `json:"phone" binding:"max=50,no_control"`
	Category        Category     `json:"category" binding:"omitempty,oneof=Utility Enclosed"`
	Size            string       `json:"size" binding:"max=100"`
	Window          RentalWindow `json:"window"`
	PickupLocation  string       `json:"pickup_location" binding:"max=200"`
	PickupAddress   string       `json:"pickup_address" binding:"max=300,no_control"`
	DropOffLocation string       `json:"drop_off_location" binding:"max=200"`
	DropOffAddress  string       `json:"drop_off_address" binding:"max=300,no_control"`
	SpecialRequests string       `json:"special_requests" binding:"max=2000"`
}

// SubmissionResult is what a caller gets back from a submit
type SubmissionResult struct {
	Message        string      `json:"message"`
	Classification MessageKind `json:"classification"`
	Form           *FormView   `json:"form,omitempty"`
}

// BookingBackend is the external collaborator that processes a booking.
// A nil error carries the confirmation message for the visitor.
type BookingBackend interface {
	Name() string
	ProcessBooking(ctx context.Context, fields BookingFields) (string, error)
}

// FormSessionRepository stores form sessions and their submit locks
type FormSessionRepository interface {
	// Get returns the stored form or a fresh one when the session is unknown
	Get(ctx context.Context, sessionID string) (*BookingForm, error)
	Save(ctx context.Context, sessionID string, form *BookingForm) error
	// Update runs fn on the stored form and saves the result. The read, the
	// lock state handed to fn and the save happen atomically with respect to
	// TryLock and other writes. When fn returns an error nothing is saved and
	// the error is returned as is. fn may run more than once.
	Update(ctx context.Context, sessionID string, fn func(form *BookingForm, locked bool) error) error
	// TryLock takes the session's submit lock and returns the holder's token;
	// ok is false when the lock is already held
	TryLock(ctx context.Context, sessionID string) (token string, ok bool, err error)
	// RefreshLock restarts the lock's TTL; false when token no longer holds it
	RefreshLock(ctx context.Context, sessionID, token string) (bool, error)
	// Unlock releases the lock only if token still holds it
	Unlock(ctx context.Context, sessionID, token string) error
	IsLocked(ctx context.Context, sessionID string) (bool, error)
	LockTTL() time.Duration
}

// BookingUsecase defines the booking form operations
type BookingUsecase interface {
	Catalog() *Catalog
	LoadForm(ctx context.Context, sessionID string) (*FormView, error)
	ApplyEdit(ctx context.Context, sessionID string, edit FormEdit) (*FormView, error)
	ResetForm(ctx context.Context, sessionID string) (*FormView, error)
	// SubmitForm validates the session's form and forwards it to the backend
	SubmitForm(ctx context.Context, sessionID string) (*SubmissionResult, error)
	// SubmitBooking validates and forwards a complete booking without a session
	SubmitBooking(ctx context.Context, req *BookingRequest) (*SubmissionResult, error)
}
