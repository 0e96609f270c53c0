package handlers

import (
	"annealer_control/internal/logger"
	"annealer_control/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live telemetry over WebSocket, same port
	router.GET("/ws", h.wsTelemetry)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerProcessRoutes(api)
		h.registerRunRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerProcessRoutes(api *gin.RouterGroup) {
	proc := api.Group("/process")
	{
		proc.GET("", h.getProcess)
		proc.POST("/load", h.loadProcess)
		proc.POST("/save", h.saveProcess)
		proc.PUT("/description", h.setDescription)

		proc.POST("/steps", h.addStep)
		proc.DELETE("/steps/:index", h.removeStep)
		proc.POST("/steps/move", h.moveStep)
		proc.GET("/steps/types", h.stepTypes)
	}
}

func (h *Handler) registerRunRoutes(api *gin.RouterGroup) {
	run := api.Group("/run")
	{
		run.POST("/start", h.startRun)
		run.POST("/stop", h.stopRun)
		run.POST("/reset", h.resetRun)
		run.GET("/status", h.runStatus)
		run.GET("/history", h.runHistory)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
