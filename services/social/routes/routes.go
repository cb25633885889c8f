// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vireolabs/vireo/pkg/extensions"
	"github.com/vireolabs/vireo/services/social/connect"
	"github.com/vireolabs/vireo/services/social/feed"
	"github.com/vireolabs/vireo/services/social/handlers"
	"github.com/vireolabs/vireo/services/social/middleware"
	"github.com/vireolabs/vireo/services/social/notify"
	"github.com/vireolabs/vireo/services/social/observability"
	"github.com/vireolabs/vireo/services/social/presence"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Auth          extensions.AuthProvider
	Connections   *connect.Service
	Feed          *feed.Service
	Notifications *notify.Store
	Presence      *presence.Registry
	Metrics       *observability.FanoutMetrics
}

// SetupRoutes registers the HTTP surface.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group; everything below requires a resolved caller.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Auth))
	{
		v1.GET("/ws", handlers.HandleSocket(deps.Presence, deps.Metrics))

		connections := v1.Group("/connections")
		{
			connections.GET("", handlers.GetUserConnections(deps.Connections))
			connections.DELETE("/:userId", handlers.RemoveConnection(deps.Connections))
			connections.GET("/status/:userId", handlers.GetConnectionStatus(deps.Connections))
			connections.GET("/requests", handlers.GetConnectionRequests(deps.Connections))
			connections.POST("/requests/:userId", handlers.SendConnection(deps.Connections))
			connections.PUT("/requests/:requestId/accept", handlers.AcceptConnection(deps.Connections))
			connections.PUT("/requests/:requestId/reject", handlers.RejectConnection(deps.Connections))
		}

		posts := v1.Group("/posts")
		{
			posts.POST("", handlers.CreatePost(deps.Feed))
			posts.GET("", handlers.GetAllPosts(deps.Feed))
			posts.POST("/:id/like", handlers.LikePost(deps.Feed))
			posts.POST("/:id/comment", handlers.CommentPost(deps.Feed))
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", handlers.GetNotifications(deps.Notifications))
			notifications.DELETE("", handlers.ClearNotifications(deps.Notifications))
			notifications.DELETE("/:id", handlers.DeleteNotification(deps.Notifications))
		}
	}
}
