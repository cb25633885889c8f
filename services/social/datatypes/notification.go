// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// NotificationType tags what a durable notification is about.
type NotificationType string

const (
	NotificationConnectionAccepted NotificationType = "connectionAccepted"
	NotificationLike               NotificationType = "like"
	NotificationComment            NotificationType = "comment"
)

// Notification is a durable record for a receiver who may have been
// offline when the triggering event happened. Never created when the
// actor is the receiver.
type Notification struct {
	ID        string           `json:"id"`
	Receiver  string           `json:"receiver"`
	Type      NotificationType `json:"type"`
	Actor     string           `json:"actor"`
	PostID    string           `json:"postId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
