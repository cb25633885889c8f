// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the shared document and wire types for the
// social service: connection requests, posts, notifications, and the
// payload shapes pushed to live sessions.
package datatypes

import "time"

// RequestStatus is the lifecycle state of a connection request.
type RequestStatus string

const (
	// RequestPending is the only state a request is ever stored in.
	// Resolution purges the record, so accepted/rejected exist only as
	// transition outcomes.
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ConnectionStatus is the relationship between two identities as seen
// from one side.
type ConnectionStatus string

const (
	// StatusConnected means a mutual edge exists.
	StatusConnected ConnectionStatus = "connected"
	// StatusPending means the caller sent a request that is still open.
	StatusPending ConnectionStatus = "pending"
	// StatusReceived means the caller has an open request from the other
	// party.
	StatusReceived ConnectionStatus = "received"
	// StatusUnconnected means no edge and no open request.
	StatusUnconnected ConnectionStatus = "unconnected"
)

// ConnectionRequest is a directed proposal from Sender to Receiver.
// At most one pending request exists per unordered pair, regardless of
// direction.
type ConnectionRequest struct {
	ID        string        `json:"id"`
	Sender    string        `json:"sender"`
	Receiver  string        `json:"receiver"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
