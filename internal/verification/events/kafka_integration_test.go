//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"driveli/internal/verification/events"
	"driveli/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	const topic = "driveli.verification.events"
	broker := containers.NewRedpandaContainer(t, topic)

	publisher, err := events.NewKafkaPublisher([]string{broker.Broker}, topic, nil)
	require.NoError(t, err)
	defer publisher.Close()

	wfID := uuid.New()
	sent := events.Event{
		ID:         uuid.New(),
		Type:       events.TypeWorkflowCompleted,
		DriverID:   "drv-1001",
		WorkflowID: &wfID,
		Status:     "verified",
		Score:      84,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, publisher.Publish(context.Background(), sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "drv-1001", string(records[0].Key))

	var got events.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, sent.Type, got.Type)
	assert.Equal(t, sent.Score, got.Score)
}
