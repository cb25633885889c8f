// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package feed owns post documents: creation, listing, the like toggle,
// and comments. Likes and comments mutate the post under one
// read-modify-write transaction, then emit a content event for the
// fan-out engine; the author notification and the live broadcast both
// happen there, never inline with the mutation.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/fanout"
	"github.com/vireolabs/vireo/services/social/storage/badgerstore"
)

// ErrPostNotFound is returned when a post ID resolves to nothing.
var ErrPostNotFound = errors.New("post not found")

// ErrEmptyDescription is returned when a post body is blank.
var ErrEmptyDescription = errors.New("description is required")

// ErrEmptyComment is returned when a comment body is blank.
var ErrEmptyComment = errors.New("comment content is required")

const postPrefix = "post:"

func postKey(id string) []byte {
	return []byte(postPrefix + id)
}

// EventSink receives committed content mutations.
type EventSink interface {
	Emit(ev fanout.Event)
}

// Service is the post store plus the content half of the event surface.
type Service struct {
	db     *badgerstore.DB
	events EventSink
	logger *slog.Logger
}

// NewService wires the feed. events and logger may be nil.
func NewService(db *badgerstore.DB, events EventSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, events: events, logger: logger}
}

// CreatePost stores a new post for author. The image URL, if any, points
// at external media storage; this service never touches image bytes.
func (s *Service) CreatePost(ctx context.Context, author, description, imageURL string) (*datatypes.Post, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	post := &datatypes.Post{
		ID:          uuid.New().String(),
		Author:      author,
		Description: description,
		ImageURL:    imageURL,
		Likes:       []string{},
		Comments:    []datatypes.Comment{},
		CreatedAt:   time.Now().UTC(),
	}

	raw, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(postKey(post.ID), raw)
	})
	if err != nil {
		return nil, fmt.Errorf("persist post: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "author", author)
	return post, nil
}

// GetPost loads one post.
func (s *Service) GetPost(ctx context.Context, id string) (*datatypes.Post, error) {
	var post *datatypes.Post
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		var err error
		post, err = readPost(txn, id)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	return post, nil
}

// ListPosts returns all posts, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]datatypes.Post, error) {
	prefix := []byte(postPrefix)
	var out []datatypes.Post

	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var post datatypes.Post
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &post)
			})
			if err != nil {
				return err
			}
			out = append(out, post)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ToggleLike flips caller's like on the post. Only the "now liked" half
// of the toggle produces a durable notification for the author, and only
// when the actor is not the author; the likeUpdated broadcast goes out
// for both halves.
func (s *Service) ToggleLike(ctx context.Context, caller, postID string) (*datatypes.Post, error) {
	var post *datatypes.Post
	var liked bool

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		var err error
		post, err = readPost(txn, postID)
		if err != nil {
			return err
		}

		if post.LikedBy(caller) {
			liked = false
			kept := post.Likes[:0]
			for _, id := range post.Likes {
				if id != caller {
					kept = append(kept, id)
				}
			}
			post.Likes = kept
		} else {
			liked = true
			post.Likes = append(post.Likes, caller)
		}

		return writePost(txn, post)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("toggle like on %s: %w", postID, err)
	}

	s.emit(fanout.Event{
		Kind:    fanout.KindPostLiked,
		Actor:   caller,
		Subject: post.Author,
		PostID:  post.ID,
		Liked:   liked,
		Likes:   post.Likes,
	})
	return post, nil
}

// AddComment appends a comment to the post.
func (s *Service) AddComment(ctx context.Context, caller, postID, content string) (*datatypes.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	comment := datatypes.Comment{
		ID:        uuid.New().String(),
		User:      caller,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	var post *datatypes.Post
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		var err error
		post, err = readPost(txn, postID)
		if err != nil {
			return err
		}
		post.Comments = append(post.Comments, comment)
		return writePost(txn, post)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("comment on %s: %w", postID, err)
	}

	s.emit(fanout.Event{
		Kind:     fanout.KindPostCommented,
		Actor:    caller,
		Subject:  post.Author,
		PostID:   post.ID,
		Comments: post.Comments,
	})
	return post, nil
}

func (s *Service) emit(ev fanout.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(ev)
}

func readPost(txn *badger.Txn, id string) (*datatypes.Post, error) {
	item, err := txn.Get(postKey(id))
	if err != nil {
		return nil, err
	}
	var post datatypes.Post
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &post)
	})
	if err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	return &post, nil
}

func writePost(txn *badger.Txn, post *datatypes.Post) error {
	raw, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return txn.Set(postKey(post.ID), raw)
}
