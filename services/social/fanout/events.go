// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fanout

import "github.com/vireolabs/vireo/services/social/datatypes"

// Kind identifies what happened to the graph or to content.
type Kind string

const (
	// KindRequestSent: Actor sent a connection request to Subject.
	KindRequestSent Kind = "request_sent"

	// KindRequestAccepted: Actor (the receiver of the request) accepted
	// it; Subject is the original sender.
	KindRequestAccepted Kind = "request_accepted"

	// KindRequestRejected: Actor rejected Subject's request.
	KindRequestRejected Kind = "request_rejected"

	// KindConnectionRemoved: Actor removed the edge to Subject.
	KindConnectionRemoved Kind = "connection_removed"

	// KindPostLiked: Actor toggled a like on Subject's post. Liked is
	// false for the unlike half of the toggle.
	KindPostLiked Kind = "post_liked"

	// KindPostCommented: Actor commented on Subject's post.
	KindPostCommented Kind = "post_commented"
)

// Event is one committed graph or content mutation. The state machine
// emits it only after the mutation is durable; the engine never feeds
// back into graph state.
type Event struct {
	Kind Kind

	// Actor is the identity whose call triggered the event.
	Actor string

	// Subject is the other party: the request peer, or the post author
	// for content events.
	Subject string

	// PostID is set for content events.
	PostID string

	// Liked is set for KindPostLiked: true if the toggle landed on
	// "liked". Only the true half creates a durable record.
	Liked bool

	// Likes is the post's like set after the mutation, broadcast with
	// likeUpdated.
	Likes []string

	// Comments is the post's comment list after the mutation, broadcast
	// with commentAdded.
	Comments []datatypes.Comment
}
