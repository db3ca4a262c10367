package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers registered by RegisterRoutes
type Handlers struct {
	Space     *SpaceHandler
	Invite    *InviteHandler
	Chat      *ChatHandler
	Document  *DocumentHandler
	Profile   *ProfileHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes. identity resolves the acting user;
// chatLimit guards the AI chat endpoint and may be nil.
func RegisterRoutes(e *echo.Echo, identity echo.MiddlewareFunc, chatLimit echo.MiddlewareFunc, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// WebSocket authenticates with a query token, browsers cannot set headers
	if h.WebSocket != nil {
		api.GET("/spaces/:id/ws", h.WebSocket.HandleWS)
	}

	// Profile routes (protected)
	me := api.Group("/me", identity)
	me.GET("", h.Profile.GetProfile)
	me.PUT("", h.Profile.UpdateProfile)
	me.DELETE("", h.Profile.ClearProfile)

	// Space routes (protected)
	spaces := api.Group("/spaces", identity)
	spaces.GET("", h.Space.ListSpaces)
	spaces.GET("/public", h.Space.ListPublic)
	spaces.GET("/mine", h.Space.ListMine)
	spaces.POST("", h.Space.CreateSpace)
	spaces.GET("/:id", h.Space.GetSpace)
	spaces.PATCH("/:id", h.Space.UpdateSpace)
	spaces.DELETE("/:id", h.Space.DeleteSpace)
	spaces.PUT("/:id/settings", h.Space.UpdateSettings)

	// Membership and invites
	spaces.POST("/:id/join", h.Invite.Join)
	spaces.POST("/:id/leave", h.Invite.Leave)
	spaces.POST("/:id/invite", h.Invite.GenerateInvite)
	spaces.DELETE("/:id/invite", h.Invite.RevokeInvite)
	spaces.GET("/:id/invite/validate", h.Invite.ValidateInvite)
	spaces.POST("/:id/invite/email", h.Invite.SendInviteEmail)
	spaces.POST("/:id/share", h.Invite.ShareLink)

	invites := api.Group("/invites", identity)
	invites.POST("/join", h.Invite.JoinByURL)

	// Messages and chat
	spaces.GET("/:id/messages", h.Chat.ListMessages)
	spaces.POST("/:id/messages", h.Chat.AppendMessage)
	spaces.GET("/:id/chat/history", h.Chat.History)
	if chatLimit != nil {
		spaces.POST("/:id/chat", h.Chat.Send, chatLimit)
	} else {
		spaces.POST("/:id/chat", h.Chat.Send)
	}

	// Documents
	spaces.GET("/:id/documents", h.Document.ListDocuments)
	spaces.POST("/:id/documents", h.Document.AddDocument)
	spaces.POST("/:id/documents/upload-url", h.Document.CreateUpload)
	spaces.GET("/:id/documents/:docId/url", h.Document.DownloadURL)
	spaces.DELETE("/:id/documents/:docId", h.Document.RemoveDocument)
}
