// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package connect

import "errors"

// The connection taxonomy. These are legitimate current-state facts, not
// transient failures: the transport surfaces them as-is and nothing
// retries them. Store I/O failures are returned as distinct wrapped
// errors and map to a generic service failure.
var (
	// ErrSelfConnection is returned when a user targets themselves.
	ErrSelfConnection = errors.New("cannot connect with yourself")

	// ErrAlreadyConnected is returned when an edge already exists.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrRequestExists is returned when a pending request already exists
	// for the pair, in either direction.
	ErrRequestExists = errors.New("connection request already exists")

	// ErrNotFound is returned when a request ID resolves to nothing.
	ErrNotFound = errors.New("connection request not found")

	// ErrAlreadyProcessed is returned when a request was already
	// accepted or rejected by a competing call.
	ErrAlreadyProcessed = errors.New("connection request already processed")

	// ErrNotAuthorized is returned when the caller is not the receiver
	// of the request being resolved.
	ErrNotAuthorized = errors.New("not authorized to resolve this request")
)
