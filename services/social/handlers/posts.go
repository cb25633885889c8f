// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/feed"
	"github.com/vireolabs/vireo/services/social/middleware"
)

// CreatePost handles POST /posts.
func CreatePost(svc *feed.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)

		var body datatypes.CreatePostRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "description is required"})
			return
		}
		if err := body.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid post body"})
			return
		}

		post, err := svc.CreatePost(c.Request.Context(), caller, body.Description, body.ImageURL)
		if err != nil {
			if errors.Is(err, feed.ErrEmptyDescription) {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			slog.Error("create post failed", "caller", caller, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "create post failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"post": post})
	}
}

// GetAllPosts handles GET /posts, newest first.
func GetAllPosts(svc *feed.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := svc.ListPosts(c.Request.Context())
		if err != nil {
			slog.Error("list posts failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "list posts failed"})
			return
		}
		if posts == nil {
			posts = []datatypes.Post{}
		}

		c.JSON(http.StatusOK, gin.H{"posts": posts})
	}
}

// LikePost handles POST /posts/:id/like. The operation is a toggle:
// a second call from the same user removes the like.
func LikePost(svc *feed.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		postID := c.Param("id")

		post, err := svc.ToggleLike(c.Request.Context(), caller, postID)
		if err != nil {
			if errors.Is(err, feed.ErrPostNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
				return
			}
			slog.Error("like post failed", "caller", caller, "post_id", postID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "like post failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"post": post})
	}
}

// CommentPost handles POST /posts/:id/comment.
func CommentPost(svc *feed.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerID(c)
		postID := c.Param("id")

		var body datatypes.CommentRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "content is required"})
			return
		}
		if err := body.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid comment body"})
			return
		}

		post, err := svc.AddComment(c.Request.Context(), caller, postID, body.Content)
		if err != nil {
			switch {
			case errors.Is(err, feed.ErrPostNotFound):
				c.JSON(http.StatusNotFound, gin.H{"message": "post not found"})
			case errors.Is(err, feed.ErrEmptyComment):
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			default:
				slog.Error("comment failed", "caller", caller, "post_id", postID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": "comment failed"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{"post": post})
	}
}
