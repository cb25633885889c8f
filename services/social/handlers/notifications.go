// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/middleware"
	"github.com/vireolabs/vireo/services/social/notify"
)

// GetNotifications handles GET /notifications.
func GetNotifications(store *notify.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)

		notifications, err := store.ListFor(c.Request.Context(), caller)
		if err != nil {
			slog.Error("list notifications failed", "caller", caller, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "list notifications failed"})
			return
		}
		if notifications == nil {
			notifications = []datatypes.Notification{}
		}

		c.JSON(http.StatusOK, gin.H{"notifications": notifications})
	}
}

// DeleteNotification handles DELETE /notifications/:id. Receiver-scoped
// keys mean a caller can only ever delete their own records.
func DeleteNotification(store *notify.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		id := c.Param("id")

		if err := store.Delete(c.Request.Context(), caller, id); err != nil {
			slog.Error("delete notification failed", "caller", caller, "notification_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "delete notification failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
	}
}

// ClearNotifications handles DELETE /notifications.
func ClearNotifications(store *notify.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)

		if err := store.Clear(c.Request.Context(), caller); err != nil {
			slog.Error("clear notifications failed", "caller", caller, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "clear notifications failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "all notifications deleted"})
	}
}
