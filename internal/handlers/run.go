package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type stopRequest struct {
	Force bool `json:"force"`
}

// @Summary      Start the process run
// @Tags         run
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, run status"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/run/start [post]
// @Security     BearerAuth
func (h *Handler) startRun(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Runner.Start(ctx); err != nil {
		h.respondErr(c, "run_start_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusStarted,
		"run":    h.services.Runner.Status(ctx),
	})
}

// @Summary      Stop the process run
// @Description  Graceful by default; {"force": true} stops within one tick.
// @Tags         run
// @Accept       json
// @Produce      json
// @Param        body  body  stopRequest  false  "Stop payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/run/stop [post]
// @Security     BearerAuth
func (h *Handler) stopRun(c *gin.Context) {
	var req stopRequest
	if c.Request.ContentLength > 0 {
		if ok := h.bindJSONOrBadRequest(c, &req); !ok {
			return
		}
	}
	ctx := c.Request.Context()
	if err := h.services.Runner.Stop(ctx, req.Force); err != nil {
		h.respondErr(c, "run_stop_failed", err, "force", req.Force)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusStopped,
		"run":    h.services.Runner.Status(ctx),
	})
}

// @Summary      Reset the engine
// @Description  Clears a Stopped or Error state back to Idle.
// @Tags         run
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/run/reset [post]
// @Security     BearerAuth
func (h *Handler) resetRun(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Runner.Reset(ctx); err != nil {
		h.respondErr(c, "run_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusReset,
		"run":    h.services.Runner.Status(ctx),
	})
}

// @Summary      Run status
// @Tags         run
// @Produce      json
// @Success      200  {object}  service.RunStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/run/status [get]
// @Security     BearerAuth
func (h *Handler) runStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Runner.Status(c.Request.Context()))
}

// @Summary      Run history
// @Tags         run
// @Produce      json
// @Param        limit  query  int  false  "Max rows, newest first"  default(50)
// @Success      200    {object}  map[string]interface{}  "count, runs"
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/run/history [get]
// @Security     BearerAuth
func (h *Handler) runHistory(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = v
	}
	runs, err := h.services.Runner.Runs(c.Request.Context(), limit)
	if err != nil {
		h.respondErr(c, "run_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}
