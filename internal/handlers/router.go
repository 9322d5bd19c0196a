package handlers

import (
	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	"github.com/SAP-F-2025/student-portal-service/internal/cache"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	meHandler      *MeHandler
	userHandler    *UserHandler
	recordHandler  *RecordHandler
	adminHandler   *AdminHandler
	webhookHandler *WebhookHandler

	identityService services.IdentityService
	verifier        auth.Verifier
	store           Pinger
	logger          utils.Logger
}

type RouterConfig struct {
	Verifier      auth.Verifier
	DeliveryGuard cache.DeliveryGuard
	WebhookSecret string
	Store         Pinger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	config RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		meHandler:      NewMeHandler(serviceManager.User(), serviceManager.Record(), logger),
		userHandler:    NewUserHandler(serviceManager.User(), serviceManager.Export(), logger),
		recordHandler:  NewRecordHandler(serviceManager.Record(), logger),
		adminHandler:   NewAdminHandler(serviceManager.Assignment(), serviceManager.Analytics(), serviceManager.Audit(), logger),
		webhookHandler: NewWebhookHandler(serviceManager.Identity(), config.DeliveryGuard, config.WebhookSecret, logger),

		identityService: serviceManager.Identity(),
		verifier:        config.Verifier,
		store:           config.Store,
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck(hm.store))

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck(hm.store))
	v1.POST("/identity-webhook", hm.webhookHandler.HandleIdentityEvent)

	authed := v1.Group("")
	authed.Use(auth.RequireAuth(hm.verifier), ActorMiddleware(hm.identityService, hm.logger))
	hm.registerAuthenticated(authed)
}

func (hm *HandlerManager) registerAuthenticated(rg *gin.RouterGroup) {
	admin := RequireRoles(models.RoleAdmin)
	staff := RequireRoles(models.RoleAdmin, models.RoleMentor)
	mentor := RequireRoles(models.RoleMentor)

	// Self-service
	me := rg.Group("/me")
	{
		me.GET("", hm.meHandler.GetMe)
		me.GET("/progress", hm.meHandler.GetProgress)
		me.POST("/growth-records", hm.meHandler.AddMyGrowthRecord)
		me.POST("/documents", hm.meHandler.AddMyDocument)
	}
	rg.POST("/students/registration", hm.meHandler.Register)

	// User management
	users := rg.Group("/users")
	{
		users.POST("", admin, hm.userHandler.CreateUser)
		users.GET("", staff, hm.userHandler.ListUsers)
		users.GET("/export", admin, hm.userHandler.ExportUsers)
		users.GET("/:id", hm.userHandler.GetUser) // students: self only
		users.POST("/:id/notes", mentor, hm.recordHandler.AddMentorNote)
		users.PUT("/:id", admin, hm.userHandler.UpdateUser)
		users.PUT("/:id/status", admin, hm.userHandler.UpdateUserStatus)
		users.DELETE("/:id", admin, hm.userHandler.DeleteUser)
	}

	rg.POST("/admin/assign-mentor", admin, hm.adminHandler.AssignMentor)
	rg.GET("/analytics", staff, hm.adminHandler.GetAnalytics)
	rg.GET("/audit-logs", admin, hm.adminHandler.ListAuditLogs)

	// Embedded records; ownership and mentor rosters are enforced by the record service
	growth := rg.Group("/growth-records")
	{
		growth.GET("", hm.recordHandler.ListGrowthRecords)
		growth.POST("", hm.recordHandler.CreateGrowthRecord)
		growth.PUT("/:id", hm.recordHandler.UpdateGrowthRecord)
		growth.DELETE("/:id", hm.recordHandler.DeleteGrowthRecord)
	}

	documents := rg.Group("/documents")
	{
		documents.GET("", hm.recordHandler.ListDocuments)
		documents.POST("", hm.recordHandler.CreateDocument)
		documents.PUT("/:id", hm.recordHandler.UpdateDocument)
		documents.DELETE("/:id", hm.recordHandler.DeleteDocument)
	}
}
