// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package connect

import (
	"context"
	"log/slog"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/fanout"
)

// EventSink receives committed mutations. *fanout.Engine satisfies it.
type EventSink interface {
	Emit(ev fanout.Event)
}

// Service is the connection state machine. It validates transitions,
// asks the store to commit them atomically, and emits exactly one domain
// event per successful mutation. Emission happens strictly after the
// commit and its outcome never affects the caller's result.
type Service struct {
	store  Store
	events EventSink
	logger *slog.Logger
}

// NewService wires the state machine. events may be nil in tests that
// only exercise graph transitions; logger may be nil.
func NewService(store Store, events EventSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		events: events,
		logger: logger,
	}
}

// SendRequest creates a pending request from caller to target.
//
// Preconditions: caller != target, no existing edge, no pending request
// in either direction. The store re-checks all three inside the creating
// transaction; the checks here exist to fail fast without a write
// transaction on the common error paths.
func (s *Service) SendRequest(ctx context.Context, caller, target string) (*datatypes.ConnectionRequest, error) {
	if caller == target {
		return nil, ErrSelfConnection
	}

	connected, err := s.store.AreConnected(ctx, caller, target)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, ErrAlreadyConnected
	}

	req, err := s.store.CreateRequest(ctx, caller, target)
	if err != nil {
		return nil, err
	}

	s.logger.Info("connection request sent",
		"request_id", req.ID, "sender", caller, "receiver", target)
	s.emit(fanout.Event{
		Kind:    fanout.KindRequestSent,
		Actor:   caller,
		Subject: target,
	})
	return req, nil
}

// Accept resolves a pending request as accepted and commits the
// symmetric edge in the same store transaction. Only the receiver may
// accept; a duplicate accept or reject observes ErrAlreadyProcessed.
func (s *Service) Accept(ctx context.Context, caller, requestID string) error {
	req, err := s.store.ResolveRequest(ctx, requestID, caller, OutcomeAccepted)
	if err != nil {
		return err
	}

	s.logger.Info("connection request accepted",
		"request_id", requestID, "sender", req.Sender, "receiver", req.Receiver)
	s.emit(fanout.Event{
		Kind:    fanout.KindRequestAccepted,
		Actor:   req.Receiver,
		Subject: req.Sender,
	})
	return nil
}

// Reject resolves a pending request as rejected. No edge is created and
// the record is purged.
func (s *Service) Reject(ctx context.Context, caller, requestID string) error {
	req, err := s.store.ResolveRequest(ctx, requestID, caller, OutcomeRejected)
	if err != nil {
		return err
	}

	s.logger.Info("connection request rejected",
		"request_id", requestID, "sender", req.Sender, "receiver", req.Receiver)
	s.emit(fanout.Event{
		Kind:    fanout.KindRequestRejected,
		Actor:   req.Receiver,
		Subject: req.Sender,
	})
	return nil
}

// Remove deletes the edge between caller and target in both directions.
// Idempotent: removing a non-existent edge succeeds, and both parties
// are told their status reverted either way.
func (s *Service) Remove(ctx context.Context, caller, target string) error {
	if err := s.store.RemoveEdge(ctx, caller, target); err != nil {
		return err
	}

	s.logger.Info("connection removed", "user_id", caller, "target", target)
	s.emit(fanout.Event{
		Kind:    fanout.KindConnectionRemoved,
		Actor:   caller,
		Subject: target,
	})
	return nil
}

// Status reports the relationship from caller's side: edge existence
// first, then pending-request direction.
func (s *Service) Status(ctx context.Context, caller, target string) (datatypes.ConnectionStatus, error) {
	connected, err := s.store.AreConnected(ctx, caller, target)
	if err != nil {
		return "", err
	}
	if connected {
		return datatypes.StatusConnected, nil
	}

	req, err := s.store.FindPendingRequest(ctx, caller, target)
	if err != nil {
		return "", err
	}
	if req == nil {
		return datatypes.StatusUnconnected, nil
	}
	if req.Sender == caller {
		return datatypes.StatusPending, nil
	}
	return datatypes.StatusReceived, nil
}

// ListIncoming returns the open requests addressed to caller.
func (s *Service) ListIncoming(ctx context.Context, caller string) ([]datatypes.ConnectionRequest, error) {
	return s.store.PendingFor(ctx, caller)
}

// ListConnections returns the identities caller is connected to.
func (s *Service) ListConnections(ctx context.Context, caller string) ([]string, error) {
	return s.store.Connections(ctx, caller)
}

func (s *Service) emit(ev fanout.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(ev)
}
