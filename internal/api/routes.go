package api

import (
	"github.com/gin-gonic/gin"

	"sharednotes/internal/auth"
)

// RegisterRoutes wires the full API surface onto the engine. Everything
// except login, register and the health check sits behind the identity
// middleware.
func RegisterRoutes(r *gin.Engine, h *Handler, authHandler *auth.Handler, jwtKey []byte) {
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{})
	})

	protected := r.Group("/api")
	protected.Use(auth.MiddleWare(jwtKey))

	protected.POST("/notes", h.CreateNote)
	protected.GET("/notes", h.ListNotes)
	protected.GET("/notes/:id", h.GetNote)
	protected.PUT("/notes/:id", h.UpdateNote)
	protected.DELETE("/notes/:id", h.DeleteNote)

	protected.POST("/notes/:id/shares", h.ShareNote)
	protected.GET("/notes/:id/shares", h.ListShares)
	protected.DELETE("/notes/:id/shares", h.RevokeShare)

	protected.GET("/search", h.SearchNotes)
	protected.GET("/tags", h.ListTags)

	protected.GET("/events", h.Events)
}
