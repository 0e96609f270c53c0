package handlers

import (
	"errors"
	"net/http"

	"annealer_control/internal/faults"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stop_requested"
	statusReset   = "reset"

	errInvalidBodyPref = "invalid body: "
)

// statusFromErr maps domain fault types onto HTTP status codes.
func statusFromErr(err error) int {
	var (
		valErr    *faults.ValidationError
		formatErr *faults.FormatError
		stateErr  *faults.StateError
		daqErr    *faults.DaqError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.As(err, &daqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErr maps err to a status code, logs server-side failures and
// writes the JSON error body.
func (h *Handler) respondErr(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := statusFromErr(err)
	if h.log != nil && code >= http.StatusInternalServerError {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
