package v1

import (
	"errors"
	"net/http"

	"trailer-booking/internal/delivery/http/middleware"
	"trailer-booking/internal/delivery/http/response"
	"trailer-booking/internal/domain"
	"trailer-booking/pkg/apperror"
	"trailer-booking/pkg/validation"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingUC domain.BookingUsecase
}

// NewBookingHandler registers the booking form routes. submitLimit guards the
// routes that reach the booking backend.
func NewBookingHandler(public *gin.RouterGroup, bookingUC domain.BookingUsecase, submitLimit gin.HandlerFunc) {
	handler := &BookingHandler{bookingUC: bookingUC}

	public.GET("/catalog", handler.GetCatalog)

	form := public.Group("/form")
	{
		form.GET("", handler.GetForm)
		form.PATCH("", handler.EditForm)
		form.DELETE("", handler.ResetForm)
		form.POST("/submit", submitLimit, handler.SubmitForm)
	}

	public.POST("/bookings", submitLimit, handler.SubmitBooking)
}

// GetCatalog godoc
// @Summary      Get booking catalog
// @Description  Trailer categories, sizes, price tables, locations and time slots
// @Tags         booking
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Catalog}
// @Router       /catalog [get]
func (h *BookingHandler) GetCatalog(c *gin.Context) {
	response.Success(c, http.StatusOK, "Catalog retrieved", h.bookingUC.Catalog())
}

// GetForm godoc
// @Summary      Get booking form
// @Description  Current state of the visitor's booking form with visibility flags
// @Tags         booking
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.FormView}
// @Failure      500  {object}  response.Response
// @Router       /form [get]
func (h *BookingHandler) GetForm(c *gin.Context) {
	view, err := h.bookingUC.LoadForm(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Form retrieved", view)
}

// EditForm godoc
// @Summary      Edit booking form
// @Description  Apply field changes; omitted fields are left alone. Changing the category clears the size.
// @Tags         booking
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token  header    string           true  "CSRF token from the csrf_token cookie"
// @Param        edit          body      domain.FormEdit  true  "Field changes"
// @Success      200           {object}  response.Response{data=domain.FormView}
// @Failure      400           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /form [patch]
func (h *BookingHandler) EditForm(c *gin.Context) {
	var edit domain.FormEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", validation.FormatValidationErrors(err))
		return
	}

	view, err := h.bookingUC.ApplyEdit(c.Request.Context(), middleware.SessionID(c), edit)
	if err != nil {
		writeBookingError(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, "Form updated", view)
}

// ResetForm godoc
// @Summary      Start over
// @Description  Discard the visitor's booking form
// @Tags         booking
// @Produce      json
// @Param        X-CSRF-Token  header    string  true  "CSRF token from the csrf_token cookie"
// @Success      200           {object}  response.Response{data=domain.FormView}
// @Failure      409           {object}  response.Response
// @Router       /form [delete]
func (h *BookingHandler) ResetForm(c *gin.Context) {
	view, err := h.bookingUC.ResetForm(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeBookingError[domain.FormView](c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, "Form cleared", view)
}

// SubmitForm godoc
// @Summary      Submit booking form
// @Description  Validate the visitor's form and send it to the booking backend. Only one submission per session runs at a time.
// @Tags         booking
// @Produce      json
// @Param        X-CSRF-Token  header    string  true  "CSRF token from the csrf_token cookie"
// @Success      200           {object}  response.Response{data=domain.SubmissionResult}
// @Failure      409           {object}  response.Response
// @Failure      422           {object}  response.Response{data=domain.SubmissionResult}
// @Failure      429           {object}  response.Response
// @Failure      502           {object}  response.Response{data=domain.SubmissionResult}
// @Failure      503           {object}  response.Response{data=domain.SubmissionResult}
// @Router       /form/submit [post]
func (h *BookingHandler) SubmitForm(c *gin.Context) {
	result, err := h.bookingUC.SubmitForm(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		writeBookingError(c, err, result)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}

// SubmitBooking godoc
// @Summary      Submit a complete booking
// @Description  One-shot booking without a form session. Same checks and backend as the form.
// @Tags         booking
// @Accept       json
// @Produce      json
// @Param        booking  body      domain.BookingRequest  true  "Booking"
// @Success      200      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      429      {object}  response.Response
// @Failure      502      {object}  response.Response{data=domain.SubmissionResult}
// @Failure      503      {object}  response.Response{data=domain.SubmissionResult}
// @Router       /bookings [post]
func (h *BookingHandler) SubmitBooking(c *gin.Context) {
	var req domain.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", validation.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUC.SubmitBooking(c.Request.Context(), &req)
	if err != nil {
		writeBookingError(c, err, result)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}

// bookingStatus maps booking errors to a status and the message shown.
// ok is false for errors that are not the visitor's to see.
func bookingStatus(err error) (code int, message string, ok bool) {
	var validationErr *domain.ValidationError
	var submissionErr *domain.SubmissionError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, validationErr.Message, true
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict, "A booking request is already being submitted. Please wait.", true
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, domain.MsgBackendUnavailable, true
	case errors.As(err, &submissionErr):
		return http.StatusBadGateway, submissionErr.Error(), true
	case errors.Is(err, domain.ErrInvalidEdit):
		return http.StatusBadRequest, err.Error(), true
	}
	return 0, "", false
}

// writeBookingError answers with the mapped status. When the usecase returned
// data alongside the error (the form a failed submission left) it goes along.
func writeBookingError[T any](c *gin.Context, err error, data *T) {
	code, message, ok := bookingStatus(err)
	if !ok {
		c.Error(err)
		return
	}
	if data == nil {
		c.Error(apperror.New(code, message, err))
		return
	}
	response.Fail(c, code, message, data)
}
