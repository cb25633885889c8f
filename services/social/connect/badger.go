// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/storage/badgerstore"
)

// Key layout. Identity segments are caller-supplied opaque strings and
// pass through badgerstore.EscapeSegment, so a ':' inside an identity
// never reads as a separator and distinct pairs never share a key.
// Request IDs are generated here and need no escaping.
//
//	edge:<a>:<b>        symmetric edge, stored once per direction
//	req:<id>            pending request document
//	reqpair:<lo>:<hi>   pending-pair index, canonical (sorted) order
//	reqin:<receiver>:<id>  incoming-request index
//	reqdone:<id>        resolution tombstone, expires via TTL
const (
	edgePrefix    = "edge:"
	reqPrefix     = "req:"
	reqPairPrefix = "reqpair:"
	reqInPrefix   = "reqin:"
	reqDonePrefix = "reqdone:"
)

// tombstoneTTL bounds how long a resolved request is distinguishable
// from one that never existed. Duplicate resolutions race within
// milliseconds; a day is generous.
const tombstoneTTL = 24 * time.Hour

func edgeKey(a, b string) []byte {
	return []byte(edgePrefix + badgerstore.EscapeSegment(a) + ":" + badgerstore.EscapeSegment(b))
}

// pairKey canonicalizes the unordered pair so one key covers both
// directions. This is what makes the duplicate-pending check a single
// read instead of two racy directional queries.
func pairKey(a, b string) []byte {
	if b < a {
		a, b = b, a
	}
	return []byte(reqPairPrefix + badgerstore.EscapeSegment(a) + ":" + badgerstore.EscapeSegment(b))
}

func reqKey(id string) []byte     { return []byte(reqPrefix + id) }
func reqDoneKey(id string) []byte { return []byte(reqDonePrefix + id) }

func reqInKey(r, id string) []byte {
	return []byte(reqInPrefix + badgerstore.EscapeSegment(r) + ":" + id)
}

// BadgerStore implements Store on the shared BadgerDB document store.
// Atomicity comes from badger's serializable transactions: every
// transition reads the keys it depends on inside the transaction, and a
// losing racer is retried by the DB wrapper and then observes the
// winner's outcome.
type BadgerStore struct {
	db *badgerstore.DB
}

// NewBadgerStore wraps db as a connection graph store.
func NewBadgerStore(db *badgerstore.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) AreConnected(ctx context.Context, a, b string) (bool, error) {
	var connected bool
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(edgeKey(a, b))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		connected = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check edge %s-%s: %w", a, b, err)
	}
	return connected, nil
}

func (s *BadgerStore) AddEdge(ctx context.Context, a, b string) error {
	if a == b {
		return ErrSelfConnection
	}
	now := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(edgeKey(a, b), now); err != nil {
			return err
		}
		return txn.Set(edgeKey(b, a), now)
	})
	if err != nil {
		return fmt.Errorf("add edge %s-%s: %w", a, b, err)
	}
	return nil
}

func (s *BadgerStore) RemoveEdge(ctx context.Context, a, b string) error {
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		// Delete of a missing key is a no-op, which is exactly the
		// idempotence the retry path needs.
		if err := txn.Delete(edgeKey(a, b)); err != nil {
			return err
		}
		return txn.Delete(edgeKey(b, a))
	})
	if err != nil {
		return fmt.Errorf("remove edge %s-%s: %w", a, b, err)
	}
	return nil
}

func (s *BadgerStore) Connections(ctx context.Context, a string) ([]string, error) {
	prefix := []byte(edgePrefix + badgerstore.EscapeSegment(a) + ":")
	var out []string
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			out = append(out, badgerstore.UnescapeSegment(string(key[len(prefix):])))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list connections for %s: %w", a, err)
	}
	return out, nil
}

func (s *BadgerStore) FindPendingRequest(ctx context.Context, a, b string) (*datatypes.ConnectionRequest, error) {
	var req *datatypes.ConnectionRequest
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		id, err := readString(txn, pairKey(a, b))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		req, err = readRequest(txn, id)
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Index ahead of a concurrent purge; treat as no pending.
			req = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find pending request %s-%s: %w", a, b, err)
	}
	return req, nil
}

func (s *BadgerStore) CreateRequest(ctx context.Context, sender, receiver string) (*datatypes.ConnectionRequest, error) {
	if sender == receiver {
		return nil, ErrSelfConnection
	}

	req := &datatypes.ConnectionRequest{
		ID:        uuid.New().String(),
		Sender:    sender,
		Receiver:  receiver,
		Status:    datatypes.RequestPending,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		// Both checks happen inside the transaction so two racing sends
		// (either direction) conflict on the same canonical pair key and
		// the loser re-runs against the winner's state.
		if _, err := txn.Get(edgeKey(sender, receiver)); err == nil {
			return ErrAlreadyConnected
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if _, err := txn.Get(pairKey(sender, receiver)); err == nil {
			return ErrRequestExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		raw, err := json.Marshal(req)
		if err != nil {
			return err
		}
		if err := txn.Set(reqKey(req.ID), raw); err != nil {
			return err
		}
		if err := txn.Set(pairKey(sender, receiver), []byte(req.ID)); err != nil {
			return err
		}
		return txn.Set(reqInKey(receiver, req.ID), nil)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyConnected) || errors.Is(err, ErrRequestExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create request %s->%s: %w", sender, receiver, err)
	}
	return req, nil
}

func (s *BadgerStore) ResolveRequest(ctx context.Context, requestID, caller string, outcome Outcome) (*datatypes.ConnectionRequest, error) {
	var resolved *datatypes.ConnectionRequest

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		req, err := readRequest(txn, requestID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Distinguish a racing duplicate from a bogus ID.
			if _, doneErr := txn.Get(reqDoneKey(requestID)); doneErr == nil {
				return ErrAlreadyProcessed
			} else if !errors.Is(doneErr, badger.ErrKeyNotFound) {
				return doneErr
			}
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if req.Receiver != caller {
			return ErrNotAuthorized
		}
		if req.Status != datatypes.RequestPending {
			return ErrAlreadyProcessed
		}

		// Purge the record for both outcomes; acceptance is carried by
		// the edge alone from here on.
		if err := txn.Delete(reqKey(requestID)); err != nil {
			return err
		}
		if err := txn.Delete(pairKey(req.Sender, req.Receiver)); err != nil {
			return err
		}
		if err := txn.Delete(reqInKey(req.Receiver, requestID)); err != nil {
			return err
		}

		tomb := badger.NewEntry(reqDoneKey(requestID), []byte(outcome)).WithTTL(tombstoneTTL)
		if err := txn.SetEntry(tomb); err != nil {
			return err
		}

		if outcome == OutcomeAccepted {
			now := []byte(time.Now().UTC().Format(time.RFC3339Nano))
			if err := txn.Set(edgeKey(req.Sender, req.Receiver), now); err != nil {
				return err
			}
			if err := txn.Set(edgeKey(req.Receiver, req.Sender), now); err != nil {
				return err
			}
		}

		resolved = req
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound),
			errors.Is(err, ErrAlreadyProcessed),
			errors.Is(err, ErrNotAuthorized):
			return nil, err
		}
		return nil, fmt.Errorf("resolve request %s: %w", requestID, err)
	}

	if outcome == OutcomeAccepted {
		resolved.Status = datatypes.RequestAccepted
	} else {
		resolved.Status = datatypes.RequestRejected
	}
	return resolved, nil
}

func (s *BadgerStore) PendingFor(ctx context.Context, receiver string) ([]datatypes.ConnectionRequest, error) {
	prefix := []byte(reqInPrefix + badgerstore.EscapeSegment(receiver) + ":")
	var out []datatypes.ConnectionRequest
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			req, err := readRequest(txn, id)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, *req)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pending requests for %s: %w", receiver, err)
	}
	return out, nil
}

func readString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		return "", err
	}
	var out string
	err = item.Value(func(val []byte) error {
		out = string(val)
		return nil
	})
	return out, err
}

func readRequest(txn *badger.Txn, id string) (*datatypes.ConnectionRequest, error) {
	item, err := txn.Get(reqKey(id))
	if err != nil {
		return nil, err
	}
	var req datatypes.ConnectionRequest
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &req)
	})
	if err != nil {
		return nil, fmt.Errorf("decode request %s: %w", id, err)
	}
	return &req, nil
}
