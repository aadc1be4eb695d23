package http_api

import (
	"errors"
	"net/http"

	"github.com/core-coin/fortuna/internal/fingerprint"
	"github.com/core-coin/fortuna/internal/models"
	"github.com/gin-gonic/gin"
)

// ClaimRequest represents the JSON body of a claim
type ClaimRequest struct {
	Nickname string `json:"nickname"`
}

// errorResponse is the body of every failed call
func errorResponse(message string) gin.H {
	return gin.H{"ok": false, "message": message}
}

// claim is a handler for the /api/claim endpoint.
func (s *HTTPServer) claim(c *gin.Context) {
	var req ClaimRequest

	// A missing or malformed body is the same as an empty nickname
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Unreadable claim body", "error", err)
	}

	record, err := s.fortuna.Claim(c.Request.Context(), &models.ClaimRequest{
		Nickname:  req.Nickname,
		ClientIP:  s.clientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		status, message := statusForError(err)
		c.JSON(status, errorResponse(message))
		return
	}

	c.JSON(http.StatusOK, record)
}

// status is a handler for the /api/status endpoint.
func (s *HTTPServer) status(c *gin.Context) {
	status, err := s.fortuna.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to read event status"))
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *HTTPServer) methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, errorResponse("Method not allowed"))
}

// clientIP prefers the configured edge header, then gin's own resolution,
// which reads forwarding headers only from trusted proxies.
func (s *HTTPServer) clientIP(c *gin.Context) string {
	if s.clientIPHeader != "" {
		if ip := c.GetHeader(s.clientIPHeader); ip != "" {
			return ip
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return fingerprint.DefaultClientIP
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "Please enter a valid nickname."
	case errors.Is(err, models.ErrWindowClosed):
		return http.StatusForbidden, "The event has not started yet or has already ended."
	case errors.Is(err, models.ErrLockTimeout):
		return http.StatusTooManyRequests, "Too many participants right now. Please refresh and try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}
