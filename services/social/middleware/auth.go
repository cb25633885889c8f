// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the social service.
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it through the configured AuthProvider, and stores
// the resulting AuthInfo in the gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	AuthMiddleware
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► provider.Validate(ctx, token)
//	   │
//	   └─► Store AuthInfo in context
//	           │
//	           ▼
//	       Handler (retrieves via CallerID)
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/pkg/extensions"
)

// authInfoKey is the gin context key for the caller's AuthInfo.
// Typed key string to avoid collisions with other context values.
const authInfoKey = "vireo_auth_info"

// SetAuthInfo stores the authenticated caller in the gin context. Called
// by AuthMiddleware after a successful Validate; exposed for tests that
// invoke handlers directly.
func SetAuthInfo(c *gin.Context, info *extensions.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated caller, if any.
func GetAuthInfo(c *gin.Context) (*extensions.AuthInfo, bool) {
	v, ok := c.Get(authInfoKey)
	if !ok {
		return nil, false
	}
	info, ok := v.(*extensions.AuthInfo)
	return info, ok && info != nil
}

// CallerID returns the authenticated user ID, or empty string when the
// request never passed the auth middleware.
func CallerID(c *gin.Context) string {
	info, ok := GetAuthInfo(c)
	if !ok {
		return ""
	}
	return info.UserID
}

// AuthMiddleware resolves caller identity on every request. Requests
// without a resolvable identity are rejected with 401 before any handler
// runs.
func AuthMiddleware(provider extensions.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"message": "missing bearer token"})
			return
		}

		info, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"message": "unauthorized"})
			return
		}

		SetAuthInfo(c, info)
		c.Next()
	}
}

// extractBearerToken pulls the token from the Authorization header, or
// from the "token" query parameter as a fallback for websocket clients
// that cannot set headers.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
