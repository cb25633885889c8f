// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin handlers for the social service.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/services/social/connect"
	"github.com/vireolabs/vireo/services/social/middleware"
)

// connectErrorStatus maps the connection taxonomy to HTTP statuses.
// Anything outside the taxonomy is a store failure and maps to 500.
func connectErrorStatus(err error) int {
	switch {
	case errors.Is(err, connect.ErrSelfConnection),
		errors.Is(err, connect.ErrAlreadyConnected),
		errors.Is(err, connect.ErrRequestExists),
		errors.Is(err, connect.ErrAlreadyProcessed):
		return http.StatusBadRequest
	case errors.Is(err, connect.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, connect.ErrNotAuthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// SendConnection handles POST /connections/requests/:userId.
func SendConnection(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		target := c.Param("userId")

		req, err := svc.SendRequest(c.Request.Context(), caller, target)
		if err != nil {
			status := connectErrorStatus(err)
			if status == http.StatusInternalServerError {
				slog.Error("send connection failed", "caller", caller, "target", target, "error", err)
				c.JSON(status, gin.H{"message": "send connection failed"})
				return
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "connection request sent",
			"request": req,
		})
	}
}

// AcceptConnection handles PUT /connections/requests/:requestId/accept.
func AcceptConnection(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		requestID := c.Param("requestId")

		if err := svc.Accept(c.Request.Context(), caller, requestID); err != nil {
			status := connectErrorStatus(err)
			if status == http.StatusInternalServerError {
				slog.Error("accept connection failed", "caller", caller, "request_id", requestID, "error", err)
				c.JSON(status, gin.H{"message": "accept connection failed"})
				return
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "connection accepted"})
	}
}

// RejectConnection handles PUT /connections/requests/:requestId/reject.
func RejectConnection(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		requestID := c.Param("requestId")

		if err := svc.Reject(c.Request.Context(), caller, requestID); err != nil {
			status := connectErrorStatus(err)
			if status == http.StatusInternalServerError {
				slog.Error("reject connection failed", "caller", caller, "request_id", requestID, "error", err)
				c.JSON(status, gin.H{"message": "reject connection failed"})
				return
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "connection rejected"})
	}
}

// RemoveConnection handles DELETE /connections/:userId. Idempotent:
// removing an absent edge still succeeds.
func RemoveConnection(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		target := c.Param("userId")

		if err := svc.Remove(c.Request.Context(), caller, target); err != nil {
			slog.Error("remove connection failed", "caller", caller, "target", target, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "remove connection failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "connection removed"})
	}
}

// GetConnectionStatus handles GET /connections/status/:userId.
func GetConnectionStatus(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		target := c.Param("userId")

		status, err := svc.Status(c.Request.Context(), caller, target)
		if err != nil {
			slog.Error("connection status failed", "caller", caller, "target", target, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "connection status failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

// GetConnectionRequests handles GET /connections/requests.
func GetConnectionRequests(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)

		requests, err := svc.ListIncoming(c.Request.Context(), caller)
		if err != nil {
			slog.Error("list connection requests failed", "caller", caller, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "list connection requests failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"requests": requests})
	}
}

// GetUserConnections handles GET /connections.
func GetUserConnections(svc *connect.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)

		connections, err := svc.ListConnections(c.Request.Context(), caller)
		if err != nil {
			slog.Error("list connections failed", "caller", caller, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "list connections failed"})
			return
		}
		if connections == nil {
			connections = []string{}
		}

		c.JSON(http.StatusOK, gin.H{"connections": connections})
	}
}
