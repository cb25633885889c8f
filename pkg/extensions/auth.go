// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable seams of the social service.
//
// Token issuance lives in a separate identity service; this package only
// consumes credentials. The AuthProvider interface is the "resolve
// caller identity" capability: the HTTP middleware extracts a bearer
// token, hands it to the configured provider, and stores the resulting
// AuthInfo for handlers.
//
// The default JWTAuthProvider verifies HMAC-signed tokens. The
// NopAuthProvider authenticates everything as a fixed local identity and
// exists for development and tests only.
package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when authentication fails. Providers wrap
// it with detail:
//
//	return nil, fmt.Errorf("token expired: %w", extensions.ErrUnauthorized)
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo is the identity resolved from a credential.
type AuthInfo struct {
	// UserID uniquely identifies the caller. Never empty on a
	// successful Validate.
	UserID string

	// Email may be empty if the identity provider did not supply it.
	Email string
}

// AuthProvider validates credentials and returns caller identity.
// Implementations must be safe for concurrent use.
type AuthProvider interface {
	// Validate checks token and returns the caller's identity, or an
	// error wrapping ErrUnauthorized.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider authenticates every request as a fixed identity.
// Development only; never configure it in a deployed service.
type NopAuthProvider struct {
	// UserID is the identity every request resolves to.
	// Default: "local-user".
	UserID string
}

// Validate implements AuthProvider.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	userID := p.UserID
	if userID == "" {
		userID = "local-user"
	}
	return &AuthInfo{UserID: userID}, nil
}
