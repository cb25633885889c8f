// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// Live-session event names. These are the socket event identifiers the
// web client subscribes to.
const (
	EventStatusUpdate = "statusUpdate"
	EventLikeUpdated  = "likeUpdated"
	EventCommentAdded = "commentAdded"
)

// StatusUpdatePayload tells a live session that its relationship toward
// SubjectUserID changed.
type StatusUpdatePayload struct {
	SubjectUserID string           `json:"subjectUserId"`
	NewStatus     ConnectionStatus `json:"newStatus"`
}

// LikeUpdatedPayload is broadcast when a post's like set changes.
type LikeUpdatedPayload struct {
	PostID string   `json:"postId"`
	Likes  []string `json:"likes"`
}

// CommentAddedPayload is broadcast when a comment lands on a post.
type CommentAddedPayload struct {
	PostID   string    `json:"postId"`
	Comments []Comment `json:"comments"`
}
