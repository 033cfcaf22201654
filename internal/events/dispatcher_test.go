package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string

	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		seen = append(seen, event.TicketID)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(ctx context.Context, event Event) error {
		t.Fatal("handler for a different event type must not fire")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1"}, seen)
}

func TestDispatcherHandlerErrorDoesNotBlockOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls int

	d.Subscribe(EventTicketCommentAdded, func(ctx context.Context, event Event) error {
		calls++
		return errors.New("handler failure")
	})
	d.Subscribe(EventTicketCommentAdded, func(ctx context.Context, event Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCommentAdded})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
}
