package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"trailer-booking/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFTokenCookieName is the name of the cookie that stores the CSRF token
	CSRFTokenCookieName = "csrf_token"
	// CSRFTokenHeaderName is the header JSON clients echo the token in
	CSRFTokenHeaderName = "X-CSRF-Token"
	// CSRFTokenFormField is the hidden field the HTML form echoes the token in
	CSRFTokenFormField = "csrf_token"
	// CSRFTokenLength is the length of the generated token in bytes (32 bytes = 64 hex chars)
	CSRFTokenLength = 32
	// CSRFTokenExpiry is how long the token is valid
	CSRFTokenExpiry = 24 * time.Hour
	// CSRFTokenKey is the context key holding the request's token
	CSRFTokenKey = "CSRFToken"
)

// csrfExemptPaths take no browser session: health checks and the one-shot
// booking endpoint for server-to-server callers
var csrfExemptPaths = map[string]bool{
	"/v1/health":   true,
	"/v1/bookings": true,
}

// generateCSRFToken creates a cryptographically secure random token
func generateCSRFToken() (string, error) {
	bytes := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CSRFMiddleware implements the double-submit cookie pattern.
//
// Every response carries a csrf_token cookie. State-changing requests must echo
// it, either in the X-CSRF-Token header or in the csrf_token form field.
// The token is also stored on the context for templates to embed.
func CSRFMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFTokenCookieName)
		if err != nil || token == "" {
			token, err = generateCSRFToken()
			if err != nil {
				response.Error(c, http.StatusInternalServerError, "Failed to generate security token", nil)
				c.Abort()
				return
			}

			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				CSRFTokenCookieName,
				token,
				int(CSRFTokenExpiry.Seconds()),
				"/",
				"",     // Domain (empty = current domain)
				secure, // Secure (HTTPS only)
				false,  // HttpOnly = false so JS can read it
			)
		}
		c.Set(CSRFTokenKey, token)

		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions || csrfExemptPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		sent := c.GetHeader(CSRFTokenHeaderName)
		if sent == "" {
			sent = c.PostForm(CSRFTokenFormField)
		}

		if sent == "" {
			response.Error(c, http.StatusForbidden, "Missing CSRF token", nil)
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			response.Error(c, http.StatusForbidden, "Invalid CSRF token", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
