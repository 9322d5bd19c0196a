package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDomainEvent(t *testing.T) {
	e := NewDomainEvent(EventMentorAssigned, MentorAssignedEvent{StudentID: "s", MentorID: "m"}).
		WithMetadata("actor_id", "a")

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventMentorAssigned, e.Type)
	assert.Equal(t, DefaultSource, e.Source)
	assert.Equal(t, EventVersion, e.Version)
	assert.Equal(t, "a", e.Metadata["actor_id"])
	assert.NotEqual(t, e.ID, GenerateEventID())
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(discardLogger())

	require.NoError(t, pub.Publish(context.Background(), NewDomainEvent(EventUserSynced, nil)))
	require.NoError(t, pub.Publish(context.Background(), NewDomainEvent(EventDocumentUploaded, nil)))

	assert.Len(t, pub.GetPublishedEvents(), 2)
	assert.Len(t, pub.EventsOfType(EventUserSynced), 1)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
}

func TestWatermillEventPublisherWritesEnvelope(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), "portal")
	require.NoError(t, err)

	pub := NewWatermillEventPublisher(pubSub, "portal", discardLogger())
	event := NewDomainEvent(EventDocumentVerified, DocumentVerifiedEvent{UserID: "u", RecordID: "r", Verified: true})
	require.NoError(t, pub.Publish(context.Background(), event))

	msg := <-messages
	msg.Ack()

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(EventDocumentVerified), msg.Metadata.Get("event_type"))

	var decoded DomainEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, EventDocumentVerified, decoded.Type)
}
