package rest

import (
	"errors"
	"net/http"

	"kind-match/internal/models"

	"github.com/gin-gonic/gin"
)

var errForbidden = errors.New("forbidden")

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyApplied),
		errors.Is(err, models.ErrAlreadyInteracted),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// fail writes err as an envelope. Unexpected errors are logged and hidden.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zapRequest(c, err)...)
		c.JSON(status, envelope{Error: "internal error"})
		return
	}
	c.JSON(status, envelope{Error: err.Error()})
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), envelope{Error: err.Error()})
}
