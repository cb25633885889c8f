// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fanout turns committed graph and content mutations into
// deliveries: durable notification records for receivers who may be
// offline, and best-effort live pushes to whoever has a session right
// now.
//
// The engine sits behind a channel so the state machine's "commit state"
// step and the "tell people" step are decoupled: a mutation's success is
// never contingent on delivery, and a slow or dead transport cannot roll
// anything back. Durable records give at-least-informed-eventually for
// the categories that persist one; transient presence signals are
// best-effort with no redelivery.
package fanout

import (
	"context"
	"log/slog"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/observability"
	"github.com/vireolabs/vireo/services/social/presence"
)

// Locator finds live sessions. *presence.Registry satisfies it.
type Locator interface {
	Lookup(identity string) (presence.Session, bool)
	Snapshot() []presence.Session
}

// Recorder persists durable notification records. The notify package's
// store satisfies it.
type Recorder interface {
	Create(ctx context.Context, n *datatypes.Notification) error
}

// defaultQueueDepth is the emit buffer. Events are tiny and processing
// is an in-memory lookup plus a socket write, so the queue only grows
// when many mutations land in the same instant.
const defaultQueueDepth = 256

// Engine consumes domain events and executes the delivery algorithm.
type Engine struct {
	locator  Locator
	recorder Recorder
	metrics  *observability.FanoutMetrics
	logger   *slog.Logger

	events chan Event
	done   chan struct{}
}

// NewEngine creates an engine. metrics and logger may be nil. Call Run
// in a goroutine, and Close when the service shuts down.
func NewEngine(locator Locator, recorder Recorder, metrics *observability.FanoutMetrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		locator:  locator,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
		events:   make(chan Event, defaultQueueDepth),
		done:     make(chan struct{}),
	}
}

// Emit hands a committed mutation to the engine. Blocks only when the
// queue is full; the caller's mutation has already succeeded either way.
func (e *Engine) Emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
		e.logger.Warn("fanout engine closed, event dropped", "kind", ev.Kind)
	}
}

// Run consumes events until Close is called or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case ev := <-e.events:
			e.Process(ctx, ev)
		}
	}
}

// Close stops accepting events and drains what is already queued. The
// events channel is never closed; a late Emit observes done and drops.
func (e *Engine) Close() {
	close(e.done)
	for {
		select {
		case ev := <-e.events:
			e.Process(context.Background(), ev)
		default:
			return
		}
	}
}

// Process executes delivery for one event synchronously. Exposed so the
// worker loop and tests share the exact same path.
func (e *Engine) Process(ctx context.Context, ev Event) {
	e.metrics.EventConsumed(string(ev.Kind))

	switch ev.Kind {
	case KindRequestSent:
		// Transient only; an offline receiver discovers the request by
		// listing incoming requests.
		e.pushStatus(ev.Subject, ev.Actor, datatypes.StatusReceived)
		e.pushStatus(ev.Actor, ev.Subject, datatypes.StatusPending)

	case KindRequestAccepted:
		// Durable record for the original sender, who may never have
		// been online during the whole exchange.
		e.record(ctx, &datatypes.Notification{
			Receiver: ev.Subject,
			Type:     datatypes.NotificationConnectionAccepted,
			Actor:    ev.Actor,
		})
		e.pushStatus(ev.Actor, ev.Subject, datatypes.StatusConnected)
		e.pushStatus(ev.Subject, ev.Actor, datatypes.StatusConnected)

	case KindRequestRejected, KindConnectionRemoved:
		e.pushStatus(ev.Actor, ev.Subject, datatypes.StatusUnconnected)
		e.pushStatus(ev.Subject, ev.Actor, datatypes.StatusUnconnected)

	case KindPostLiked:
		if ev.Liked && ev.Actor != ev.Subject {
			e.record(ctx, &datatypes.Notification{
				Receiver: ev.Subject,
				Type:     datatypes.NotificationLike,
				Actor:    ev.Actor,
				PostID:   ev.PostID,
			})
		}
		e.broadcast(datatypes.EventLikeUpdated, datatypes.LikeUpdatedPayload{
			PostID: ev.PostID,
			Likes:  ev.Likes,
		})

	case KindPostCommented:
		if ev.Actor != ev.Subject {
			e.record(ctx, &datatypes.Notification{
				Receiver: ev.Subject,
				Type:     datatypes.NotificationComment,
				Actor:    ev.Actor,
				PostID:   ev.PostID,
			})
		}
		e.broadcast(datatypes.EventCommentAdded, datatypes.CommentAddedPayload{
			PostID:   ev.PostID,
			Comments: ev.Comments,
		})

	default:
		e.logger.Warn("unknown fanout event kind", "kind", ev.Kind)
	}
}

// pushStatus delivers a statusUpdate to identity's live session, if any.
func (e *Engine) pushStatus(identity, subject string, status datatypes.ConnectionStatus) {
	session, ok := e.locator.Lookup(identity)
	if !ok {
		e.metrics.Dropped(datatypes.EventStatusUpdate, "offline")
		return
	}

	payload := datatypes.StatusUpdatePayload{
		SubjectUserID: subject,
		NewStatus:     status,
	}
	if err := session.Deliver(datatypes.EventStatusUpdate, payload); err != nil {
		e.metrics.Dropped(datatypes.EventStatusUpdate, "write_failed")
		e.logger.Warn("live status push failed",
			"user_id", identity, "session", session.ID(), "error", err)
		return
	}
	e.metrics.Delivered(datatypes.EventStatusUpdate)
}

// broadcast pushes a content update to every live session.
func (e *Engine) broadcast(event string, payload any) {
	for _, session := range e.locator.Snapshot() {
		if err := session.Deliver(event, payload); err != nil {
			e.metrics.Dropped(event, "write_failed")
			e.logger.Warn("broadcast push failed",
				"event", event, "session", session.ID(), "error", err)
			continue
		}
		e.metrics.Delivered(event)
	}
}

// record persists a durable notification. Self-notifications are the
// caller's bug; refuse them here as the last line of the invariant.
func (e *Engine) record(ctx context.Context, n *datatypes.Notification) {
	if e.recorder == nil {
		return
	}
	if n.Actor == n.Receiver {
		return
	}
	if err := e.recorder.Create(ctx, n); err != nil {
		// Delivery is best-effort but durable records are not: losing
		// one is worth an error-level line even though nothing retries.
		e.logger.Error("persist notification failed",
			"type", n.Type, "receiver", n.Receiver, "error", err)
		return
	}
	e.metrics.NotificationPersisted(string(n.Type))
}
