// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notify persists durable notification records and serves the
// caller-facing notification queries. Records are written by the fan-out
// engine as a side effect of committed mutations and read back whenever
// the receiver asks, online or not.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/storage/badgerstore"
)

// Keys are receiver-scoped so every query and the clear operation are
// single prefix scans. The receiver is an opaque caller-supplied
// identity and is escaped so one receiver's prefix can never cover
// another's records:
//
//	notif:<receiver>:<id>
const notifPrefix = "notif:"

func notifKey(receiver, id string) []byte {
	return []byte(notifPrefix + badgerstore.EscapeSegment(receiver) + ":" + id)
}

func notifScanPrefix(receiver string) []byte {
	return []byte(notifPrefix + badgerstore.EscapeSegment(receiver) + ":")
}

// Store is the badger-backed notification log.
type Store struct {
	db *badgerstore.DB
}

// NewStore wraps db as a notification store.
func NewStore(db *badgerstore.DB) *Store {
	return &Store{db: db}
}

// Create persists one record, assigning ID and CreatedAt. Records where
// the actor is the receiver are rejected by the fan-out engine before
// they get here.
func (s *Store) Create(ctx context.Context, n *datatypes.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(notifKey(n.Receiver, n.ID), raw)
	})
	if err != nil {
		return fmt.Errorf("persist notification for %s: %w", n.Receiver, err)
	}
	return nil
}

// ListFor returns receiver's notifications, newest first.
func (s *Store) ListFor(ctx context.Context, receiver string) ([]datatypes.Notification, error) {
	prefix := notifScanPrefix(receiver)
	var out []datatypes.Notification

	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var n datatypes.Notification
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			})
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", receiver, err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes one of receiver's notifications. Deleting a missing
// record is a no-op; receiver scoping means a caller can never delete
// someone else's record.
func (s *Store) Delete(ctx context.Context, receiver, id string) error {
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Delete(notifKey(receiver, id))
	})
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

// Clear removes all of receiver's notifications.
func (s *Store) Clear(ctx context.Context, receiver string) error {
	prefix := notifScanPrefix(receiver)
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear notifications for %s: %w", receiver, err)
	}
	return nil
}
