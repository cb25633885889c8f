// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// JWTAuthProvider verifies HMAC-signed bearer tokens minted by the
// identity service. Only verification happens here; issuance is out of
// scope for this process entirely.
//
// Expected claims: "user_id" (required), "email" (optional). Expiry and
// not-before are enforced by the jwt library's default validation.
type JWTAuthProvider struct {
	secret []byte
}

// NewJWTAuthProvider creates a provider with the shared signing secret.
func NewJWTAuthProvider(secret []byte) (*JWTAuthProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt signing secret must not be empty")
	}
	return &JWTAuthProvider{secret: secret}, nil
}

// Validate implements AuthProvider.
func (p *JWTAuthProvider) Validate(_ context.Context, token string) (*AuthInfo, error) {
	claims := gojwt.MapClaims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %v: %w", err, ErrUnauthorized)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token missing user_id claim: %w", ErrUnauthorized)
	}

	info := &AuthInfo{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	return info, nil
}
