package middleware

import (
	"net/http"
	"time"

	"trailer-booking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookieName holds the id of the visitor's form session
const SessionCookieName = "booking_session"

// FormSession makes sure every request has a form session id, issuing a
// fresh uuid cookie when the visitor has none or sent a malformed one.
func FormSession(secure bool, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookieName)
		if _, parseErr := uuid.Parse(id); err != nil || parseErr != nil {
			id = uuid.NewString()
		}

		// Refresh on every request so the cookie lives as long as the stored form
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookieName, id, int(ttl.Seconds()), "/", "", secure, true)

		c.Set(string(domain.KeySessionID), id)
		c.Next()
	}
}

// SessionID returns the id FormSession stored on the context
func SessionID(c *gin.Context) string {
	return c.GetString(string(domain.KeySessionID))
}
