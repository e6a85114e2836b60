package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNATSSub struct {
	unsubscribed int
	closed       int
}

func (s *fakeNATSSub) Unsubscribe() error {
	s.unsubscribed++
	return nil
}

func (s *fakeNATSSub) Close() error {
	s.closed++
	return nil
}

func TestNATSSubscription_DurableIsClosedNotUnsubscribed(t *testing.T) {
	hub := &NATSHub{durable: "lapse-receiver"}
	raw := &fakeNATSSub{}
	sub := hub.track(raw)

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 1, raw.closed)
	assert.Equal(t, 0, raw.unsubscribed)

	// shutting the hub down must not close it a second time
	hub.closeSubscriptions()
	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 1, raw.closed)
	assert.Empty(t, hub.subs)
}

func TestNATSSubscription_EphemeralIsUnsubscribed(t *testing.T) {
	hub := &NATSHub{}
	raw := &fakeNATSSub{}
	sub := hub.track(raw)

	require.NoError(t, sub.Unsubscribe())
	assert.Equal(t, 1, raw.unsubscribed)
	assert.Equal(t, 0, raw.closed)

	hub.closeSubscriptions()
	assert.Equal(t, 0, raw.closed)
}

func TestNATSHub_ClosesOutstandingSubscriptions(t *testing.T) {
	hub := &NATSHub{durable: "lapse-receiver"}
	first, second := &fakeNATSSub{}, &fakeNATSSub{}
	hub.track(first)
	hub.track(second)

	hub.closeSubscriptions()
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)
	assert.Zero(t, first.unsubscribed+second.unsubscribed)
}
