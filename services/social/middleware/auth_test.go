// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/pkg/extensions"
)

// stubProvider accepts exactly one token.
type stubProvider struct {
	token string
	info  *extensions.AuthInfo
}

func (p *stubProvider) Validate(ctx context.Context, token string) (*extensions.AuthInfo, error) {
	if token != p.token {
		return nil, extensions.ErrUnauthorized
	}
	return p.info, nil
}

func newAuthRouter(provider extensions.AuthProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(provider))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CallerID(c)})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	provider := &stubProvider{
		token: "good-token",
		info:  &extensions.AuthInfo{UserID: "alice", Email: "alice@example.com"},
	}
	router := newAuthRouter(provider)

	t.Run("missing token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("bearer header authenticates", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if body := w.Body.String(); body != `{"user_id":"alice"}` {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("token query parameter authenticates", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami?token=good-token", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("malformed authorization header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic abc123")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestCallerIDWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := CallerID(c); id != "" {
		t.Errorf("expected empty caller ID, got %q", id)
	}
	if _, ok := GetAuthInfo(c); ok {
		t.Error("expected no auth info")
	}
}

func TestSetAuthInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	SetAuthInfo(c, &extensions.AuthInfo{UserID: "bob"})

	info, ok := GetAuthInfo(c)
	if !ok {
		t.Fatal("expected auth info")
	}
	if info.UserID != "bob" {
		t.Errorf("expected bob, got %q", info.UserID)
	}
	if id := CallerID(c); id != "bob" {
		t.Errorf("expected bob, got %q", id)
	}
}
