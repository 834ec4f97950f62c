package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"trailer-booking/internal/catalog"
	"trailer-booking/internal/delivery/http/middleware"
	"trailer-booking/internal/domain"
	"trailer-booking/internal/repository/session"
	"trailer-booking/internal/usecase"
	"trailer-booking/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstLocation = "7 Eleven Gas Station - 12121 Northwest Expy, Yukon, OK 73099"

func init() {
	gin.SetMode(gin.TestMode)
	validation.RegisterGinValidators()
}

type stubBackend struct {
	calls int
}

func (b *stubBackend) Name() string {
	return "stub"
}

func (b *stubBackend) ProcessBooking(context.Context, domain.BookingFields) (string, error) {
	b.calls++
	return "Request received, see you soon!", nil
}

type page struct {
	router  *gin.Engine
	session *http.Cookie
}

func newPage(t *testing.T, backend domain.BookingBackend) *page {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	uc := usecase.NewBookingUsecase(cat, session.NewMemoryRepository(time.Hour, time.Minute), backend, nil, 0)

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	r.Use(middleware.FormSession(false, time.Hour))
	NewPageHandler(r, uc, func(c *gin.Context) { c.Next() })
	return &page{router: r}
}

func (p *page) request(t *testing.T, method string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form == nil {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if p.session != nil {
		req.AddCookie(p.session)
	}
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			p.session = c
		}
	}
	return rec
}

func completeForm() url.Values {
	return url.Values{
		"name":              {"Jane Doe"},
		"email":             {"jane@example.com"},
		"phone":             {"405-555-0100"},
		"category":          {"Enclosed"},
		"bound_category":    {"Enclosed"},
		"size":              {"Enclosed Trailer"},
		"pickup_date":       {"2026-11-02"},
		"pickup_time":       {"09:00"},
		"return_date":       {"2026-11-03"},
		"return_time":       {"17:30"},
		"pickup_location":   {firstLocation},
		"drop_off_location": {domain.DefaultDeliveryOption},
		"drop_off_address":  {"123 Main St"},
	}
}

func TestShowRendersEmptyForm(t *testing.T) {
	p := newPage(t, nil)
	rec := p.request(t, http.MethodGet, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, domain.SubmitLabelIdle)
	assert.Contains(t, body, "Utility Trailer")
	assert.NotContains(t, body, `name="size"`)
	assert.NotContains(t, body, "<iframe")
}

func TestPostUpdateShowsCategoryPanels(t *testing.T) {
	p := newPage(t, nil)
	rec := p.request(t, http.MethodPost, url.Values{
		"action":         {ActionUpdate},
		"category":       {"Enclosed"},
		"bound_category": {"Enclosed"},
		"size":           {"Enclosed"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "What size of Enclosed trailer do you need?")
	assert.Contains(t, body, "$1700/Month")
	assert.Contains(t, body, "calendar.google.com/calendar/embed")
	assert.Contains(t, body, "What&#39;s your Desired Pickup Date for the Enclosed Trailer?")
}

func TestPostCategorySwitchDropsStaleSize(t *testing.T) {
	p := newPage(t, nil)
	p.request(t, http.MethodPost, url.Values{"category": {"Enclosed"}, "size": {"Enclosed Trailer"}})

	form := url.Values{
		"category":       {"Utility"},
		"bound_category": {"Enclosed"},
		"size":           {"Enclosed Trailer"},
		"pickup_date":    {"2026-11-02"},
	}
	rec := p.request(t, http.MethodPost, form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Utility 6 x 20")
	assert.NotContains(t, body, "$1700/Month")
}

func TestStaticScript(t *testing.T) {
	p := newPage(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/static/booking.js", nil)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-refresh")
}

func TestPostDeliveryOptionShowsAddress(t *testing.T) {
	p := newPage(t, nil)
	rec := p.request(t, http.MethodPost, url.Values{"pickup_location": {domain.DefaultDeliveryOption}})

	body := rec.Body.String()
	assert.Contains(t, body, `name="pickup_address"`)
	assert.NotContains(t, body, `name="drop_off_address"`)
	assert.Contains(t, body, "There is a $50/hour")
}

func TestPostSubmit(t *testing.T) {
	t.Run("Success clears the form", func(t *testing.T) {
		backend := &stubBackend{}
		p := newPage(t, backend)

		form := completeForm()
		form.Set("action", ActionSubmit)
		rec := p.request(t, http.MethodPost, form)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Request received, see you soon!")
		assert.Contains(t, body, `class="message success"`)
		assert.NotContains(t, body, "Jane Doe")
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("Missing fields keep what was typed", func(t *testing.T) {
		backend := &stubBackend{}
		p := newPage(t, backend)

		form := completeForm()
		form.Set("action", ActionSubmit)
		form.Set("drop_off_address", "  ")
		rec := p.request(t, http.MethodPost, form)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Please fill in all required fields")
		assert.Contains(t, body, "Jane Doe")
		assert.Zero(t, backend.calls)
	})

	t.Run("No backend", func(t *testing.T) {
		p := newPage(t, nil)
		form := completeForm()
		form.Set("action", ActionSubmit)
		rec := p.request(t, http.MethodPost, form)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), domain.MsgBackendUnavailable)
	})

	t.Run("Unknown option is refused", func(t *testing.T) {
		p := newPage(t, nil)
		rec := p.request(t, http.MethodPost, url.Values{"pickup_location": {"Back of the lot"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Line breaks in the name are refused", func(t *testing.T) {
		p := newPage(t, nil)
		rec := p.request(t, http.MethodPost, url.Values{"name": {"Jane\nDoe"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Must not contain line breaks")
	})
}

func TestEditFromForm(t *testing.T) {
	parse := func(form url.Values) domain.FormEdit {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return EditFromForm(c)
	}

	t.Run("Absent inputs stay untouched", func(t *testing.T) {
		edit := parse(url.Values{"name": {"Jane"}})
		require.NotNil(t, edit.Name)
		assert.Equal(t, "Jane", *edit.Name)
		assert.Nil(t, edit.Email)
		assert.Nil(t, edit.Category)
		assert.Nil(t, edit.Window)
	})

	t.Run("Window goes to the bound category", func(t *testing.T) {
		edit := parse(url.Values{"category": {"Utility"}, "bound_category": {"Enclosed"}, "pickup_time": {"09:00"}, "size": {"Enclosed"}})
		require.NotNil(t, edit.Window)
		assert.Equal(t, domain.CategoryEnclosed, edit.Window.Category)
		assert.Equal(t, "09:00", *edit.Window.PickupTime)
		assert.Nil(t, edit.Size)
	})

	t.Run("Size is kept when the category did not change", func(t *testing.T) {
		edit := parse(url.Values{"category": {"Enclosed"}, "bound_category": {"Enclosed"}, "size": {"Enclosed"}})
		require.NotNil(t, edit.Size)
		assert.Equal(t, "Enclosed", *edit.Size)
	})
}
