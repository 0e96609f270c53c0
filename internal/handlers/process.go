package handlers

import (
	"net/http"
	"strconv"

	"annealer_control/internal/service"

	"github.com/gin-gonic/gin"
)

type pathRequest struct {
	Path string `json:"path"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

type moveStepRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AddStepRequest is an exported model for Swagger docs of the addStep payload.
type AddStepRequest struct {
	// Insert position; omitted appends
	Index *int `json:"index,omitempty" example:"0"`
	// Step type name, see /api/v1/process/steps/types
	Type string `json:"type" example:"FastRamp"`
	// Raw step parameters, validated per type
	Params map[string]any `json:"params"`
}

// @Summary      Get current process
// @Tags         process
// @Produce      json
// @Success      200  {object}  service.ProcessView
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/process [get]
// @Security     BearerAuth
func (h *Handler) getProcess(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.ProcessEditor.Get(c.Request.Context()))
}

// @Summary      Load process from file
// @Tags         process
// @Accept       json
// @Produce      json
// @Param        body  body  pathRequest  true  "File path"
// @Success      200   {object}  service.ProcessView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/process/load [post]
// @Security     BearerAuth
func (h *Handler) loadProcess(c *gin.Context) {
	var req pathRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ProcessEditor.Load(ctx, req.Path); err != nil {
		h.respondErr(c, "process_load_failed", err, "path", req.Path)
		return
	}
	c.JSON(http.StatusOK, h.services.ProcessEditor.Get(ctx))
}

// @Summary      Save process to file
// @Description  Empty path re-saves to the file the process came from.
// @Tags         process
// @Accept       json
// @Produce      json
// @Param        body  body  pathRequest  true  "File path (optional)"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/process/save [post]
// @Security     BearerAuth
func (h *Handler) saveProcess(c *gin.Context) {
	var req pathRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.ProcessEditor.Save(c.Request.Context(), req.Path); err != nil {
		h.respondErr(c, "process_save_failed", err, "path", req.Path)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Set process description
// @Tags         process
// @Accept       json
// @Produce      json
// @Param        body  body  descriptionRequest  true  "Description"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/process/description [put]
// @Security     BearerAuth
func (h *Handler) setDescription(c *gin.Context) {
	var req descriptionRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.ProcessEditor.SetDescription(c.Request.Context(), req.Description); err != nil {
		h.respondErr(c, "process_set_description_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Add a step
// @Tags         process
// @Accept       json
// @Produce      json
// @Param        body  body  AddStepRequest  true  "Step payload"
// @Success      200   {object}  service.ProcessView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/process/steps [post]
// @Security     BearerAuth
func (h *Handler) addStep(c *gin.Context) {
	var req service.StepParams
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ProcessEditor.AddStep(ctx, req); err != nil {
		h.respondErr(c, "process_add_step_failed", err, "type", req.Type)
		return
	}
	c.JSON(http.StatusOK, h.services.ProcessEditor.Get(ctx))
}

// @Summary      Remove a step
// @Tags         process
// @Produce      json
// @Param        index  path  int  true  "Step index"
// @Success      200    {object}  service.ProcessView
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /api/v1/process/steps/{index} [delete]
// @Security     BearerAuth
func (h *Handler) removeStep(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ProcessEditor.RemoveStep(ctx, index); err != nil {
		h.respondErr(c, "process_remove_step_failed", err, "index", index)
		return
	}
	c.JSON(http.StatusOK, h.services.ProcessEditor.Get(ctx))
}

// @Summary      Move a step
// @Tags         process
// @Accept       json
// @Produce      json
// @Param        body  body  moveStepRequest  true  "Move payload"
// @Success      200   {object}  service.ProcessView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/process/steps/move [post]
// @Security     BearerAuth
func (h *Handler) moveStep(c *gin.Context) {
	var req moveStepRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ProcessEditor.MoveStep(ctx, req.From, req.To); err != nil {
		h.respondErr(c, "process_move_step_failed", err, "from", req.From, "to", req.To)
		return
	}
	c.JSON(http.StatusOK, h.services.ProcessEditor.Get(ctx))
}

// @Summary      List step types
// @Tags         process
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "types"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/process/steps/types [get]
// @Security     BearerAuth
func (h *Handler) stepTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"types": h.services.ProcessEditor.StepTypes(c.Request.Context()),
	})
}
