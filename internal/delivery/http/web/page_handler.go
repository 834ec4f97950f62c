// Package web serves the server-rendered booking form.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"trailer-booking/internal/delivery/http/middleware"
	"trailer-booking/internal/domain"
	"trailer-booking/pkg/logger"
	"trailer-booking/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Form actions
const (
	ActionUpdate = "update"
	ActionSubmit = "submit"
)

type PageHandler struct {
	bookingUC domain.BookingUsecase
}

type pageLabels struct {
	Name, Email, Phone                             string
	PickupDate, PickupTime, ReturnDate, ReturnTime string
	PickupLocation, DropOffLocation                string
	SpecialRequests                                string
}

type pageData struct {
	View            *domain.FormView
	Catalog         *domain.Catalog
	LocationOptions []string
	Labels          pageLabels
	CSRFToken       string
	SubmittingLabel string
}

// Templates parses the embedded page templates
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// NewPageHandler registers the page routes and the static assets on r.
// r must render with Templates().
func NewPageHandler(r gin.IRoutes, bookingUC domain.BookingUsecase, submitLimit gin.HandlerFunc) {
	handler := &PageHandler{bookingUC: bookingUC}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", handler.Show)
	r.POST("/", submitLimitFor(ActionSubmit, submitLimit), handler.Post)
}

// submitLimitFor applies limit only to posts carrying the given action
func submitLimitFor(action string, limit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.PostForm("action") == action {
			limit(c)
			return
		}
		c.Next()
	}
}

// Show renders the visitor's form
func (h *PageHandler) Show(c *gin.Context) {
	view, err := h.bookingUC.LoadForm(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, view)
}

// Post applies the posted fields, then submits when asked to
func (h *PageHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	edit := EditFromForm(c)
	if err := binding.Validator.ValidateStruct(&edit); err != nil {
		view, loadErr := h.bookingUC.LoadForm(ctx, sessionID)
		if loadErr != nil {
			h.fail(c, loadErr)
			return
		}
		view.Message = validation.FormatValidationErrors(err)[0]
		view.MessageKind = domain.MessageError
		h.render(c, http.StatusBadRequest, view)
		return
	}

	view, err := h.bookingUC.ApplyEdit(ctx, sessionID, edit)
	if err != nil {
		if view == nil {
			h.fail(c, err)
			return
		}
		view.Message = editMessage(err)
		view.MessageKind = domain.MessageError
		h.render(c, editStatus(err), view)
		return
	}

	if c.PostForm("action") != ActionSubmit {
		h.render(c, http.StatusOK, view)
		return
	}

	result, err := h.bookingUC.SubmitForm(ctx, sessionID)
	if result == nil || result.Form == nil {
		if errors.Is(err, domain.ErrSubmissionInFlight) {
			view.Message = "A booking request is already being submitted. Please wait."
			view.MessageKind = domain.MessageError
			h.render(c, http.StatusConflict, view)
			return
		}
		h.fail(c, err)
		return
	}
	h.render(c, submitStatus(err), result.Form)
}

// EditFromForm reads a form post into an edit. Size and window inputs belong
// to the category the page was rendered with (bound_category): the size is
// dropped when the category changed, and the window is stored under that
// category.
func EditFromForm(c *gin.Context) domain.FormEdit {
	field := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}

	edit := domain.FormEdit{
		Name:            field("name"),
		Email:           field("email"),
		Phone:           field("phone"),
		PickupLocation:  field("pickup_location"),
		PickupAddress:   field("pickup_address"),
		DropOffLocation: field("drop_off_location"),
		DropOffAddress:  field("drop_off_address"),
		SpecialRequests: field("special_requests"),
	}

	bound := domain.Category(c.PostForm("bound_category"))
	if v, ok := c.GetPostForm("category"); ok {
		category := domain.Category(v)
		edit.Category = &category
	}
	if edit.Category == nil || *edit.Category == bound {
		edit.Size = field("size")
	}
	if bound.IsValid() {
		edit.Window = &domain.WindowEdit{
			Category:   bound,
			PickupDate: field("pickup_date"),
			PickupTime: field("pickup_time"),
			ReturnDate: field("return_date"),
			ReturnTime: field("return_time"),
		}
	}
	return edit
}

func (h *PageHandler) render(c *gin.Context, code int, view *domain.FormView) {
	cat := h.bookingUC.Catalog()
	category := view.Form.Category

	c.HTML(code, "booking.html", pageData{
		View:            view,
		Catalog:         cat,
		LocationOptions: cat.LocationOptions(),
		Labels: pageLabels{
			Name:            domain.LabelName,
			Email:           domain.LabelEmail,
			Phone:           domain.LabelPhone,
			PickupDate:      domain.PickupDateLabel(category),
			PickupTime:      domain.PickupTimeLabel(category),
			ReturnDate:      domain.ReturnDateLabel(category),
			ReturnTime:      domain.ReturnTimeLabel(category),
			PickupLocation:  domain.LabelPickupLocation,
			DropOffLocation: domain.LabelDropOffLocation,
			SpecialRequests: domain.LabelSpecialRequests,
		},
		CSRFToken:       c.GetString(middleware.CSRFTokenKey),
		SubmittingLabel: domain.SubmitLabelSubmitting,
	})
}

func (h *PageHandler) fail(c *gin.Context, err error) {
	logger.Log.Error("Booking page failed",
		"request_id", c.GetString(string(domain.KeyRequestID)),
		"error", err,
	)
	c.String(http.StatusInternalServerError, "Something went wrong. Please reload the page.")
}

func editMessage(err error) string {
	if errors.Is(err, domain.ErrSubmissionInFlight) {
		return "A booking request is already being submitted. Please wait."
	}
	return "That choice is no longer available. Please pick again."
}

func editStatus(err error) int {
	if errors.Is(err, domain.ErrSubmissionInFlight) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func submitStatus(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
