// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package connect implements the connection-relationship core: the graph
// store contract, its BadgerDB implementation, and the state machine that
// mediates send/accept/reject/remove operations.
package connect

import (
	"context"

	"github.com/vireolabs/vireo/services/social/datatypes"
)

// Outcome is the resolution of a pending request.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Store is the durable representation of the connection graph: symmetric
// edges per user plus directed pending requests.
//
// Implementations must make every mutating method atomic. In particular
// ResolveRequest is a compare-and-swap on the pending status: of two
// concurrent resolutions exactly one succeeds and the other observes
// ErrAlreadyProcessed. Edge addition and removal for a given unordered
// pair must be serialized the same way.
//
// Resolved requests are purged for both outcomes. Acceptance lives on
// solely as the edge; a rejection leaves nothing behind. A short-lived
// tombstone distinguishes "already processed" from "never existed" for
// callers racing a resolution.
type Store interface {
	// AreConnected reports whether a symmetric edge exists between a and b.
	AreConnected(ctx context.Context, a, b string) (bool, error)

	// AddEdge establishes the symmetric edge. Adding an existing edge is
	// a no-op.
	AddEdge(ctx context.Context, a, b string) error

	// RemoveEdge removes the edge in both directions. Removing a missing
	// edge is a no-op, not an error, so retried removals stay idempotent.
	RemoveEdge(ctx context.Context, a, b string) error

	// Connections lists the identities a is connected to.
	Connections(ctx context.Context, a string) ([]string, error)

	// FindPendingRequest returns the pending request between a and b,
	// searching both directions, or nil if none exists.
	FindPendingRequest(ctx context.Context, a, b string) (*datatypes.ConnectionRequest, error)

	// CreateRequest records a new pending request. Fails with
	// ErrSelfConnection, ErrAlreadyConnected, or ErrRequestExists.
	CreateRequest(ctx context.Context, sender, receiver string) (*datatypes.ConnectionRequest, error)

	// ResolveRequest transitions a pending request. Only caller ==
	// receiver may resolve (ErrNotAuthorized). OutcomeAccepted commits
	// the edge in the same transaction; both outcomes purge the record.
	// Fails with ErrNotFound or ErrAlreadyProcessed otherwise. Returns
	// the request as it was before resolution.
	ResolveRequest(ctx context.Context, requestID, caller string, outcome Outcome) (*datatypes.ConnectionRequest, error)

	// PendingFor lists the open requests addressed to receiver.
	PendingFor(ctx context.Context, receiver string) ([]datatypes.ConnectionRequest, error)
}
