// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireolabs/vireo/services/social/datatypes"
	"github.com/vireolabs/vireo/services/social/presence"
)

type delivery struct {
	event   string
	payload any
}

// fakeSession captures deliveries and can be told to fail writes.
type fakeSession struct {
	id         string
	mu         sync.Mutex
	deliveries []delivery
	failWrites bool
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Deliver(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("write failed")
	}
	s.deliveries = append(s.deliveries, delivery{event: event, payload: payload})
	return nil
}

func (s *fakeSession) received() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// fakeLocator maps identities to sessions.
type fakeLocator struct {
	sessions map[string]*fakeSession
}

func (l *fakeLocator) Lookup(identity string) (presence.Session, bool) {
	s, ok := l.sessions[identity]
	return s, ok
}

func (l *fakeLocator) Snapshot() []presence.Session {
	var out []presence.Session
	for _, s := range l.sessions {
		out = append(out, s)
	}
	return out
}

// fakeRecorder captures persisted notifications.
type fakeRecorder struct {
	mu      sync.Mutex
	records []datatypes.Notification
	err     error
}

func (r *fakeRecorder) Create(ctx context.Context, n *datatypes.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, *n)
	return nil
}

func (r *fakeRecorder) all() []datatypes.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]datatypes.Notification, len(r.records))
	copy(out, r.records)
	return out
}

func newTestEngine(sessions map[string]*fakeSession) (*Engine, *fakeRecorder) {
	recorder := &fakeRecorder{}
	engine := NewEngine(&fakeLocator{sessions: sessions}, recorder, nil, nil)
	return engine, recorder
}

func TestProcessRequestSent(t *testing.T) {
	alice := &fakeSession{id: "s1"}
	bob := &fakeSession{id: "s2"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"alice": alice, "bob": bob})

	engine.Process(context.Background(), Event{
		Kind:    KindRequestSent,
		Actor:   "alice",
		Subject: "bob",
	})

	// No durable record for a sent request.
	assert.Empty(t, recorder.all())

	bobGot := bob.received()
	require.Len(t, bobGot, 1)
	assert.Equal(t, datatypes.EventStatusUpdate, bobGot[0].event)
	payload := bobGot[0].payload.(datatypes.StatusUpdatePayload)
	assert.Equal(t, "alice", payload.SubjectUserID)
	assert.Equal(t, datatypes.StatusReceived, payload.NewStatus)

	aliceGot := alice.received()
	require.Len(t, aliceGot, 1)
	payload = aliceGot[0].payload.(datatypes.StatusUpdatePayload)
	assert.Equal(t, "bob", payload.SubjectUserID)
	assert.Equal(t, datatypes.StatusPending, payload.NewStatus)
}

func TestProcessRequestAccepted(t *testing.T) {
	alice := &fakeSession{id: "s1"}
	bob := &fakeSession{id: "s2"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"alice": alice, "bob": bob})

	// Bob accepted Alice's request: Actor is the accepter.
	engine.Process(context.Background(), Event{
		Kind:    KindRequestAccepted,
		Actor:   "bob",
		Subject: "alice",
	})

	records := recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Receiver)
	assert.Equal(t, datatypes.NotificationConnectionAccepted, records[0].Type)
	assert.Equal(t, "bob", records[0].Actor)

	for _, s := range []*fakeSession{alice, bob} {
		got := s.received()
		require.Len(t, got, 1)
		payload := got[0].payload.(datatypes.StatusUpdatePayload)
		assert.Equal(t, datatypes.StatusConnected, payload.NewStatus)
	}
}

func TestProcessRequestAcceptedOfflineSender(t *testing.T) {
	bob := &fakeSession{id: "s2"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"bob": bob})

	engine.Process(context.Background(), Event{
		Kind:    KindRequestAccepted,
		Actor:   "bob",
		Subject: "alice",
	})

	// The record survives even though Alice has no live session.
	records := recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Receiver)
}

func TestProcessRejectedAndRemoved(t *testing.T) {
	for _, kind := range []Kind{KindRequestRejected, KindConnectionRemoved} {
		t.Run(string(kind), func(t *testing.T) {
			alice := &fakeSession{id: "s1"}
			bob := &fakeSession{id: "s2"}
			engine, recorder := newTestEngine(map[string]*fakeSession{"alice": alice, "bob": bob})

			engine.Process(context.Background(), Event{
				Kind:    kind,
				Actor:   "bob",
				Subject: "alice",
			})

			assert.Empty(t, recorder.all())
			for _, s := range []*fakeSession{alice, bob} {
				got := s.received()
				require.Len(t, got, 1)
				payload := got[0].payload.(datatypes.StatusUpdatePayload)
				assert.Equal(t, datatypes.StatusUnconnected, payload.NewStatus)
			}
		})
	}
}

func TestProcessPostLiked(t *testing.T) {
	viewer := &fakeSession{id: "s3"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"carol": viewer})

	engine.Process(context.Background(), Event{
		Kind:    KindPostLiked,
		Actor:   "alice",
		Subject: "bob",
		PostID:  "p1",
		Liked:   true,
		Likes:   []string{"alice"},
	})

	records := recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].Receiver)
	assert.Equal(t, datatypes.NotificationLike, records[0].Type)
	assert.Equal(t, "p1", records[0].PostID)

	got := viewer.received()
	require.Len(t, got, 1)
	assert.Equal(t, datatypes.EventLikeUpdated, got[0].event)
	payload := got[0].payload.(datatypes.LikeUpdatedPayload)
	assert.Equal(t, "p1", payload.PostID)
	assert.Equal(t, []string{"alice"}, payload.Likes)
}

func TestProcessPostUnliked(t *testing.T) {
	viewer := &fakeSession{id: "s3"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"carol": viewer})

	engine.Process(context.Background(), Event{
		Kind:    KindPostLiked,
		Actor:   "alice",
		Subject: "bob",
		PostID:  "p1",
		Liked:   false,
		Likes:   []string{},
	})

	// Unlike broadcasts but never notifies.
	assert.Empty(t, recorder.all())
	assert.Len(t, viewer.received(), 1)
}

func TestProcessSelfLike(t *testing.T) {
	engine, recorder := newTestEngine(map[string]*fakeSession{})

	engine.Process(context.Background(), Event{
		Kind:    KindPostLiked,
		Actor:   "bob",
		Subject: "bob",
		PostID:  "p1",
		Liked:   true,
	})

	assert.Empty(t, recorder.all())
}

func TestProcessPostCommented(t *testing.T) {
	viewer := &fakeSession{id: "s3"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"carol": viewer})

	comments := []datatypes.Comment{{ID: "c1", User: "alice", Content: "nice"}}
	engine.Process(context.Background(), Event{
		Kind:     KindPostCommented,
		Actor:    "alice",
		Subject:  "bob",
		PostID:   "p1",
		Comments: comments,
	})

	records := recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, datatypes.NotificationComment, records[0].Type)

	got := viewer.received()
	require.Len(t, got, 1)
	assert.Equal(t, datatypes.EventCommentAdded, got[0].event)
}

func TestProcessSelfComment(t *testing.T) {
	viewer := &fakeSession{id: "s3"}
	engine, recorder := newTestEngine(map[string]*fakeSession{"carol": viewer})

	engine.Process(context.Background(), Event{
		Kind:    KindPostCommented,
		Actor:   "bob",
		Subject: "bob",
		PostID:  "p1",
	})

	// No self-notification, but the broadcast still goes out.
	assert.Empty(t, recorder.all())
	assert.Len(t, viewer.received(), 1)
}

func TestDeliveryFailureDoesNotStopBroadcast(t *testing.T) {
	broken := &fakeSession{id: "s1", failWrites: true}
	healthy := &fakeSession{id: "s2"}
	engine, _ := newTestEngine(map[string]*fakeSession{"alice": broken, "bob": healthy})

	engine.Process(context.Background(), Event{
		Kind:   KindPostLiked,
		Actor:  "carol",
		PostID: "p1",
		Liked:  false,
	})

	assert.Len(t, healthy.received(), 1)
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	engine, recorder := newTestEngine(map[string]*fakeSession{})
	recorder.err = errors.New("disk full")

	// Must not panic or block.
	engine.Process(context.Background(), Event{
		Kind:    KindRequestAccepted,
		Actor:   "bob",
		Subject: "alice",
	})
}

func TestEmitRunClose(t *testing.T) {
	alice := &fakeSession{id: "s1"}
	engine, _ := newTestEngine(map[string]*fakeSession{"alice": alice})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	engine.Emit(Event{Kind: KindRequestRejected, Actor: "bob", Subject: "alice"})

	require.Eventually(t, func() bool {
		return len(alice.received()) == 1
	}, time.Second, 5*time.Millisecond)

	engine.Close()

	// Emit after Close drops without panicking.
	engine.Emit(Event{Kind: KindRequestSent, Actor: "x", Subject: "y"})
}

func TestCloseDrainsQueue(t *testing.T) {
	alice := &fakeSession{id: "s1"}
	engine, _ := newTestEngine(map[string]*fakeSession{"alice": alice})

	// Never started; events sit in the queue until Close drains them.
	engine.Emit(Event{Kind: KindRequestRejected, Actor: "bob", Subject: "alice"})
	engine.Emit(Event{Kind: KindConnectionRemoved, Actor: "bob", Subject: "alice"})
	engine.Close()

	assert.Len(t, alice.received(), 2)
}
