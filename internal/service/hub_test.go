package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiodir/internal/domain"
)

func TestChangeHubBroadcast(t *testing.T) {
	hub := NewChangeHub()

	_, a := hub.Subscribe("page")
	_, b := hub.Subscribe("page")
	_, other := hub.Subscribe("elsewhere")

	hub.Publish("page")

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Empty(t, other)

	ev := <-a
	assert.NoError(t, ev.Err)
}

func TestChangeHubPublishError(t *testing.T) {
	hub := NewChangeHub()
	_, ch := hub.Subscribe("page")

	hub.PublishError("page", domain.ErrNoData)

	ev := <-ch
	assert.ErrorIs(t, ev.Err, domain.ErrNoData)
}

func TestChangeHubUnsubscribe(t *testing.T) {
	hub := NewChangeHub()
	id, ch := hub.Subscribe("page")
	hub.Unsubscribe("page", id)

	hub.Publish("page")
	assert.Empty(t, ch)
}

func TestChangeHubNeverBlocks(t *testing.T) {
	hub := NewChangeHub()
	_, ch := hub.Subscribe("page")

	// Overfill the subscriber buffer; extra signals are dropped, the
	// publisher never stalls.
	for i := 0; i < 10; i++ {
		hub.Publish("page")
	}
	assert.Len(t, ch, cap(ch))
}
