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
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vireolabs/vireo/services/social/middleware"
	"github.com/vireolabs/vireo/services/social/observability"
	"github.com/vireolabs/vireo/services/social/presence"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// wsEnvelope is a single pushed event on the wire.
type wsEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// wsSession adapts a gorilla websocket connection to presence.Session.
// gorilla permits one concurrent writer per connection, so Deliver
// serializes writes under a mutex.
type wsSession struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func newWSSession(conn *websocket.Conn) *wsSession {
	return &wsSession{
		id:   uuid.New().String(),
		conn: conn,
	}
}

func (s *wsSession) ID() string { return s.id }

func (s *wsSession) Deliver(event string, payload any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(wsEnvelope{Type: event, Payload: payload})
}

// HandleSocket handles GET /ws. The caller is authenticated by the time
// the upgrade happens (token query parameter works for browser clients),
// so the live binding is registered immediately. The binding lives until
// the read loop observes the close; a reconnect that beats the close
// simply replaces the binding and the late unregister is a no-op.
func HandleSocket(registry *presence.Registry, metrics *observability.FanoutMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.CallerID(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer conn.Close()

		session := newWSSession(conn)
		registry.Register(identity, session)
		metrics.SessionOpened()
		slog.Info("websocket session started", "user_id", identity, "session", session.ID())

		defer func() {
			registry.Unregister(session)
			metrics.SessionClosed()
			slog.Info("websocket session ended", "user_id", identity, "session", session.ID())
		}()

		if err := session.Deliver("sessionCreated", gin.H{"sessionId": session.ID()}); err != nil {
			return
		}

		// Inbound frames carry nothing the server acts on today; the
		// loop exists to observe the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				slog.Debug("websocket client disconnected", "session", session.ID(), "error", err.Error())
				return
			}
		}
	}
}
