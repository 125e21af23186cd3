package router

import (
	"log"

	"litigation/config"
	"litigation/controllers"
	"litigation/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
// Public routes + authenticated routes + "validated" routes (Authorizer) + admin.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Heartbeat: toda requisição checa se a varredura de drafts está vencida.
	r.Use(middleware.DraftCleanup(cfg))

	api := r.Group("/api")

	// Public (no auth)
	api.POST("/users", Logger(), controllers.CreateUser)
	api.POST("/login", Logger(), controllers.Login)
	api.POST("/refresh", Logger(), controllers.Refresh)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	validated.GET("/me", Logger(), controllers.Me)

	// Drafts (user)
	validated.POST("/drafts/auto-save", Logger(), controllers.AutoSaveDraft)
	validated.POST("/drafts/manual", Logger(), controllers.SaveManualDraft)
	validated.POST("/drafts/cleanup", Logger(), controllers.CleanupUserDrafts)
	validated.GET("/drafts", Logger(), controllers.ListUserDrafts)
	validated.GET("/drafts/current", Logger(), controllers.GetCurrentDraft)
	validated.DELETE("/drafts", Logger(), controllers.ClearAutoSave)
	validated.DELETE("/drafts/:id", Logger(), controllers.DeleteDraft)

	// Admin routes
	admin := validated.Group("")
	admin.Use(Adminizer())

	admin.POST("/admin/drafts/cleanup", Logger(), controllers.AdminCleanupDrafts)
	admin.DELETE("/users/:id", Logger(), controllers.DeleteUser)

	log.Printf("Routes initialized")
}
