// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/pkg/extensions"
	"github.com/vireolabs/vireo/services/social/connect"
	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/middleware"
	"github.com/vireolabs/vireo/services/social/storage/badgerstore"
)

// testAuth resolves the caller from the X-Test-User header so each
// request can impersonate a different user without real tokens.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-Test-User")
		if user == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		middleware.SetAuthInfo(c, &extensions.AuthInfo{UserID: user})
		c.Next()
	}
}

func newConnectionsRouter(t *testing.T) (*gin.Engine, *connect.Service) {
	t.Helper()
	db, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := connect.NewService(connect.NewBadgerStore(db), nil, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(testAuth())
	router.GET("/connections", GetUserConnections(svc))
	router.GET("/connections/status/:userId", GetConnectionStatus(svc))
	router.GET("/connections/requests", GetConnectionRequests(svc))
	router.POST("/connections/requests/:userId", SendConnection(svc))
	router.PUT("/connections/requests/:requestId/accept", AcceptConnection(svc))
	router.PUT("/connections/requests/:requestId/reject", RejectConnection(svc))
	router.DELETE("/connections/:userId", RemoveConnection(svc))
	return router, svc
}

func doRequest(router *gin.Engine, method, path, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Test-User", user)
	router.ServeHTTP(w, req)
	return w
}

func sentRequestID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Request datatypes.ConnectionRequest `json:"request"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Request.ID == "" {
		t.Fatal("missing request ID in response")
	}
	return body.Request.ID
}

func TestSendConnection(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	t.Run("send succeeds", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		sentRequestID(t, w)
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("reverse duplicate is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/connections/requests/alice", "bob")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("self connection is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/connections/requests/alice", "alice")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestAcceptConnection(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	w := doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")
	requestID := sentRequestID(t, w)

	t.Run("sender cannot accept", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/connections/requests/"+requestID+"/accept", "alice")
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("receiver accepts", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/connections/requests/"+requestID+"/accept", "bob")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		w = doRequest(router, http.MethodGet, "/connections/status/bob", "alice")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if body := w.Body.String(); body != `{"status":"connected"}` {
			t.Errorf("unexpected status body: %s", body)
		}
	})

	t.Run("duplicate accept is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/connections/requests/"+requestID+"/accept", "bob")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/connections/requests/bogus/accept", "bob")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestRejectConnection(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	w := doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")
	requestID := sentRequestID(t, w)

	w = doRequest(router, http.MethodPut, "/connections/requests/"+requestID+"/reject", "bob")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/connections/status/bob", "alice")
	if body := w.Body.String(); body != `{"status":"unconnected"}` {
		t.Errorf("unexpected status body: %s", body)
	}
}

func TestRemoveConnection(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	w := doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")
	requestID := sentRequestID(t, w)
	doRequest(router, http.MethodPut, "/connections/requests/"+requestID+"/accept", "bob")

	w = doRequest(router, http.MethodDelete, "/connections/bob", "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Removing again still succeeds.
	w = doRequest(router, http.MethodDelete, "/connections/bob", "alice")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/connections/status/alice", "bob")
	if body := w.Body.String(); body != `{"status":"unconnected"}` {
		t.Errorf("unexpected status body: %s", body)
	}
}

func TestConnectionStatusDirections(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	doRequest(router, http.MethodPost, "/connections/requests/bob", "alice")

	w := doRequest(router, http.MethodGet, "/connections/status/bob", "alice")
	if body := w.Body.String(); body != `{"status":"pending"}` {
		t.Errorf("sender should see pending, got: %s", body)
	}

	w = doRequest(router, http.MethodGet, "/connections/status/alice", "bob")
	if body := w.Body.String(); body != `{"status":"received"}` {
		t.Errorf("receiver should see received, got: %s", body)
	}
}

func TestGetConnectionRequests(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	doRequest(router, http.MethodPost, "/connections/requests/carol", "alice")
	doRequest(router, http.MethodPost, "/connections/requests/carol", "bob")

	w := doRequest(router, http.MethodGet, "/connections/requests", "carol")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Requests []datatypes.ConnectionRequest `json:"requests"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Requests) != 2 {
		t.Errorf("expected 2 requests, got %d", len(body.Requests))
	}
}

func TestGetUserConnectionsEmpty(t *testing.T) {
	router, _ := newConnectionsRouter(t)

	w := doRequest(router, http.MethodGet, "/connections", "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"connections":[]}` {
		t.Errorf("expected empty array, got: %s", body)
	}
}
