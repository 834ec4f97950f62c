package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SubmitLabelIdle       = "Submit Rental Request"
	SubmitLabelSubmitting = "Submitting Request..."

	dateLayout = "2006-01-02"
)

// MessageKind classifies the last message shown to the visitor
type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// ContactInfo identifies the visitor
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// RentalWindow is the pickup/return date-time quadruple of one category
type RentalWindow struct {
	PickupDate string `json:"pickup_date" binding:"max=10"`
	PickupTime string `json:"pickup_time" binding:"max=5"`
	ReturnDate string `json:"return_date" binding:"max=10"`
	ReturnTime string `json:"return_time" binding:"max=5"`
}

// IsComplete reports whether all four values are set
func (w RentalWindow) IsComplete() bool {
	return w.PickupDate != "" && w.PickupTime != "" && w.ReturnDate != "" && w.ReturnTime != ""
}

// LocationChoice is a pickup or drop-off selection
type LocationChoice struct {
	Option  string `json:"option"`
	Address string `json:"address"`
}

// SubmissionState is the submit workflow state of a form
type SubmissionState struct {
	Submitting bool        `json:"submitting"`
	Message    string      `json:"message"`
	Kind       MessageKind `json:"kind"`
}

// BookingForm holds every field of one visitor's booking form.
// Windows is keyed by category so switching category keeps what was typed for the other one.
type BookingForm struct {
	Contact         ContactInfo               `json:"contact"`
	Category        Category                  `json:"category"`
	Size            string                    `json:"size"`
	Windows         map[Category]RentalWindow `json:"windows"`
	Pickup          LocationChoice            `json:"pickup"`
	DropOff         LocationChoice            `json:"drop_off"`
	SpecialRequests string                    `json:"special_requests"`
	Submission      SubmissionState           `json:"submission"`
}

// NewBookingForm returns a form with every field at its initial value
func NewBookingForm() *BookingForm {
	return &BookingForm{Windows: map[Category]RentalWindow{}}
}

// Window returns the rental window of the active category
func (f *BookingForm) Window() RentalWindow {
	if f.Category == CategoryNone {
		return RentalWindow{}
	}
	return f.Windows[f.Category]
}

// Reset clears every field. The last message is kept.
func (f *BookingForm) Reset() {
	submission := f.Submission
	*f = *NewBookingForm()
	f.Submission = submission
}

// WindowEdit changes fields of the rental window of one category.
// An empty Category targets the active one.
type WindowEdit struct {
	Category   Category `json:"category,omitempty"`
	PickupDate *string  `json:"pickup_date,omitempty" binding:"omitempty,max=10"`
	PickupTime *string  `json:"pickup_time,omitempty" binding:"omitempty,max=5"`
	ReturnDate *string  `json:"return_date,omitempty" binding:"omitempty,max=10"`
	ReturnTime *string  `json:"return_time,omitempty" binding:"omitempty,max=5"`
}

// FormEdit is a batch of field changes; nil fields are left alone
type FormEdit struct {
	Name            *string     `json:"name,omitempty" binding:"omitempty,max=200,no_control"`
	Email           *string     `json:"email,omitempty" binding:"omitempty,max=200,no_control"`
	Phone           *string     `json:"phone,omitempty" binding:"omitempty,max=50,no_control"`
	Category        *Category   `json:"category,omitempty"`
	Size            *string     `json:"size,omitempty" binding:"omitempty,max=100"`
	Window          *WindowEdit `json:"window,omitempty"`
	PickupLocation  *string     `json:"pickup_location,omitempty" binding:"omitempty,max=200"`
	PickupAddress   *string     `json:"pickup_address,omitempty" binding:"omitempty,max=300,no_control"`
	DropOffLocation *string     `json:"drop_off_location,omitempty" binding:"omitempty,max=200"`
	DropOffAddress  *string     `json:"drop_off_address,omitempty" binding:"omitempty,max=300,no_control"`
	SpecialRequests *string     `json:"special_requests,omitempty" binding:"omitempty,max=2000"`
}

func invalidEdit(field, value string) error {
	return fmt.Errorf("%w: %s %q is not an allowed value", ErrInvalidEdit, field, value)
}

// Apply applies an edit against the catalog. On error the form is left unchanged.
//
// Order matters: the category goes first because it clears the size, and a
// location option goes before its address because changing it clears the address.
func (f *BookingForm) Apply(cat *Catalog, edit FormEdit) error {
	next := f.clone()

	if edit.Name != nil {
		next.Contact.Name = *edit.Name
	}
	if edit.Email != nil {
		next.Contact.Email = *edit.Email
	}
	if edit.Phone != nil {
		next.Contact.Phone = *edit.Phone
	}
	if edit.SpecialRequests != nil {
		next.SpecialRequests = *edit.SpecialRequests
	}

	if edit.Category != nil {
		c := *edit.Category
		if c != CategoryNone && !c.IsValid() {
			return invalidEdit("category", string(c))
		}
		if _, ok := cat.Category(c); c != CategoryNone && !ok {
			return invalidEdit("category", string(c))
		}
		if c != next.Category {
			next.Category = c
			next.Size = ""
		}
	}

	if edit.Size != nil {
		size := *edit.Size
		if size != "" {
			if next.Category == CategoryNone || !cat.HasSize(next.Category, size) {
				return invalidEdit("size", size)
			}
		}
		next.Size = size
	}

	if edit.Window != nil {
		if err := next.applyWindow(cat, *edit.Window); err != nil {
			return err
		}
	}

	if err := applyLocation(cat, &next.Pickup, "pickup_location", edit.PickupLocation, edit.PickupAddress); err != nil {
		return err
	}
	if err := applyLocation(cat, &next.DropOff, "drop_off_location", edit.DropOffLocation, edit.DropOffAddress); err != nil {
		return err
	}

	*f = *next
	return nil
}

func (f *BookingForm) applyWindow(cat *Catalog, edit WindowEdit) error {
	target := edit.Category
	if target == CategoryNone {
		target = f.Category
	}
	if !target.IsValid() {
		return fmt.Errorf("%w: no trailer category selected for pickup and return details", ErrInvalidEdit)
	}

	w := f.Windows[target]
	if edit.PickupDate != nil {
		if err := checkDate("pickup_date", *edit.PickupDate); err != nil {
			return err
		}
		w.PickupDate = *edit.PickupDate
	}
	if edit.PickupTime != nil {
		if err := checkTime(cat, "pickup_time", *edit.PickupTime); err != nil {
			return err
		}
		w.PickupTime = *edit.PickupTime
	}
	if edit.ReturnDate != nil {
		if err := checkDate("return_date", *edit.ReturnDate); err != nil {
			return err
		}
		w.ReturnDate = *edit.ReturnDate
	}
	if edit.ReturnTime != nil {
		if err := checkTime(cat, "return_time", *edit.ReturnTime); err != nil {
			return err
		}
		w.ReturnTime = *edit.ReturnTime
	}
	f.Windows[target] = w
	return nil
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return invalidEdit(field, value)
	}
	return nil
}

func checkTime(cat *Catalog, field, value string) error {
	if value == "" || cat.HasTimeSlot(value) {
		return nil
	}
	return invalidEdit(field, value)
}

func applyLocation(cat *Catalog, loc *LocationChoice, field string, option, address *string) error {
	if option != nil {
		if *option != "" && !cat.HasLocation(*option) {
			return invalidEdit(field, *option)
		}
		if *option != loc.Option {
			loc.Option = *option
			loc.Address = ""
		}
	}
	if address != nil && loc.Option == cat.DeliveryOption {
		loc.Address = *address
	}
	return nil
}

func (f *BookingForm) clone() *BookingForm {
	c := *f
	c.Windows = make(map[Category]RentalWindow, len(f.Windows))
	for k, v := range f.Windows {
		c.Windows[k] = v
	}
	return &c
}

// resolveLocation returns the answer sent for a location: the typed address
// for the delivery sentinel, the option itself otherwise
func resolveLocation(cat *Catalog, loc LocationChoice) string {
	if loc.Option == cat.DeliveryOption {
		return strings.TrimSpace(loc.Address)
	}
	return loc.Option
}

// Validate checks the required fields for the active category
func (f *BookingForm) Validate(cat *Catalog) error {
	if f.Category == CategoryNone {
		return &ValidationError{Message: MsgSelectCategory}
	}
	if f.Contact.Name == "" || f.Contact.Email == "" || f.Contact.Phone == "" ||
		resolveLocation(cat, f.Pickup) == "" ||
		resolveLocation(cat, f.DropOff) == "" ||
		f.Size == "" || !f.Window().IsComplete() {
		return &ValidationError{Message: MsgRequiredFields}
	}
	return nil
}

// Fields builds the payload for the booking backend.
// Only the active category's size and window labels are included.
func (f *BookingForm) Fields(cat *Catalog) BookingFields {
	fields := BookingFields{
		LabelName:            f.Contact.Name,
		LabelEmail:           f.Contact.Email,
		LabelPhone:           f.Contact.Phone,
		LabelSpecialRequests: f.SpecialRequests,
		LabelPickupLocation:  resolveLocation(cat, f.Pickup),
		LabelDropOffLocation: resolveLocation(cat, f.DropOff),
	}
	if f.Category.IsValid() {
		w := f.Window()
		fields[SizeLabel(f.Category)] = f.Size
		fields[PickupDateLabel(f.Category)] = w.PickupDate
		fields[PickupTimeLabel(f.Category)] = w.PickupTime
		fields[ReturnDateLabel(f.Category)] = w.ReturnDate
		fields[ReturnTimeLabel(f.Category)] = w.ReturnTime
	}
	return fields
}

// BeginSubmit moves the form to submitting and returns the payload to send.
// A validation failure records the error message and leaves the form idle.
func (f *BookingForm) BeginSubmit(cat *Catalog) (BookingFields, error) {
	if f.Submission.Submitting {
		return nil, ErrSubmissionInFlight
	}
	f.Submission = SubmissionState{}

	if err := f.Validate(cat); err != nil {
		f.Submission = SubmissionState{Message: err.Error(), Kind: MessageError}
		return nil, err
	}

	f.Submission.Submitting = true
	return f.Fields(cat), nil
}

// Outcome is the single result of a backend call
type Outcome struct {
	Confirmation string
	Err          error
}

// Conclude records the outcome of the submission started by BeginSubmit.
// Success clears every field; any failure keeps them for a retry.
func (f *BookingForm) Conclude(out Outcome) {
	if out.Err != nil {
		var subErr *SubmissionError
		if !errors.As(out.Err, &subErr) {
			subErr = &SubmissionError{Err: out.Err}
		}
		f.Submission = SubmissionState{Message: subErr.Error(), Kind: MessageError}
		return
	}

	f.Submission = SubmissionState{Message: out.Confirmation, Kind: MessageSuccess}
	f.Reset()
}

// Edit turns a one-shot booking into the equivalent form edit, so it goes
// through the same option checks as an interactive session. Size and window
// only apply once a category is chosen; without one the booking fails
// validation on the category like a session form does.
func (r *BookingRequest) Edit() FormEdit {
	category := r.Category
	edit := FormEdit{
		Name:            &r.Name,
		Email:           &r.Email,
		Phone:           &r.Phone,
		Category:        &category,
		PickupLocation:  &r.PickupLocation,
		PickupAddress:   &r.PickupAddress,
		DropOffLocation: &r.DropOffLocation,
		DropOffAddress:  &r.DropOffAddress,
		SpecialRequests: &r.SpecialRequests,
	}
	if category.IsValid() {
		edit.Size = &r.Size
		edit.Window = &WindowEdit{
			Category:   category,
			PickupDate: &r.Window.PickupDate,
			PickupTime: &r.Window.PickupTime,
			ReturnDate: &r.Window.ReturnDate,
			ReturnTime: &r.Window.ReturnTime,
		}
	}
	return edit
}
