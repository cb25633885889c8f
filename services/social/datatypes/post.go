// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxDescriptionBytes bounds a post body.
	MaxDescriptionBytes = 8 * 1024

	// MaxCommentBytes bounds a single comment.
	MaxCommentBytes = 2 * 1024
)

// postValidate is the shared validator for post datatypes. Gin's binding
// tags cover the HTTP path; this instance serves callers that construct
// request values directly.
var postValidate = validator.New()

// Post is a feed entry. Likes and comments are embedded in the document;
// the feed store mutates them under a single read-modify-write
// transaction so a like toggle never clobbers a concurrent comment.
type Post struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Likes       []string  `json:"likes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LikedBy reports whether user currently likes the post.
func (p *Post) LikedBy(user string) bool {
	for _, id := range p.Likes {
		if id == user {
			return true
		}
	}
	return false
}

// Comment is a single comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatePostRequest is the body for POST /post.
type CreatePostRequest struct {
	Description string `json:"description" binding:"required" validate:"required,max=8192"`
	ImageURL    string `json:"imageUrl,omitempty" binding:"omitempty,url" validate:"omitempty,url"`
}

// Validate checks field constraints beyond what binding enforces.
func (r *CreatePostRequest) Validate() error {
	return postValidate.Struct(r)
}

// CommentRequest is the body for adding a comment.
type CommentRequest struct {
	Content string `json:"content" binding:"required" validate:"required,max=2048"`
}

// Validate checks field constraints beyond what binding enforces.
func (r *CommentRequest) Validate() error {
	return postValidate.Struct(r)
}
