// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package presence tracks which user identities currently have a live
// session attached to this process.
//
// The registry is the only shared mutable structure in the core. It is an
// optimization for live delivery, never a source of truth: it holds no
// durable state and its contents are lost on restart. Lookups run under a
// read lock so fan-out over many recipients never serializes; writes take
// the write lock and are short.
//
// # Binding semantics
//
// At most one session is retained per identity. A new Register for an
// identity replaces any prior binding (last-registered-wins). Unregister
// is keyed by the session itself, not the identity: when a disconnect for
// an old session races a reconnect that already rebound the identity, the
// stale Unregister must leave the new binding untouched.
package presence

import (
	"log/slog"
	"sync"
)

// Session is a live delivery channel for one connected client.
//
// Implementations must be safe for concurrent Deliver calls; the fan-out
// engine may push to the same session from multiple events at once.
type Session interface {
	// ID uniquely identifies this session for the lifetime of the
	// process. Two sessions for the same user have different IDs.
	ID() string

	// Deliver pushes one event to the client. Fire-and-forget: a failed
	// delivery is logged by the caller and never retried.
	Deliver(event string, payload any) error
}

// Registry is a concurrency-safe mapping from user identity to the live
// session that currently represents it. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu sync.RWMutex

	// byUser holds the current binding per identity.
	byUser map[string]Session

	// bySession maps session ID back to the identity it was registered
	// for. Unregister consults this index so removal is keyed by session
	// equality, never by identity.
	bySession map[string]string

	logger *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byUser:    make(map[string]Session),
		bySession: make(map[string]string),
		logger:    logger,
	}
}

// Register binds identity to session, replacing any prior binding for the
// identity. Always succeeds. Registering the same pair twice is a no-op.
func (r *Registry) Register(identity string, session Session) {
	if identity == "" || session == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[identity]; ok && old.ID() != session.ID() {
		// The identity reconnected before the old session's disconnect
		// was observed. Drop the old reverse entry so a late Unregister
		// for it cannot touch the new binding.
		delete(r.bySession, old.ID())
		r.logger.Debug("presence binding replaced",
			"user_id", identity, "old_session", old.ID(), "new_session", session.ID())
	}

	r.byUser[identity] = session
	r.bySession[session.ID()] = identity
}

// Unregister removes the binding held by exactly this session, if it is
// still current. A stale unregister, racing a newer Register for the same
// identity, is a no-op for that identity's current binding.
func (r *Registry) Unregister(session Session) {
	if session == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.bySession[session.ID()]
	if !ok {
		return
	}
	delete(r.bySession, session.ID())

	if current, ok := r.byUser[identity]; ok && current.ID() == session.ID() {
		delete(r.byUser, identity)
	}
}

// Lookup returns the current session for identity, if any. Never blocks
// on I/O.
func (r *Registry) Lookup(identity string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byUser[identity]
	return s, ok
}

// Snapshot returns the current live sessions. The slice is a copy; the
// registry may change the moment the lock is released, which is fine for
// best-effort broadcast.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.byUser))
	for _, s := range r.byUser {
		out = append(out, s)
	}
	return out
}

// Online reports how many identities currently have a live session.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser)
}
