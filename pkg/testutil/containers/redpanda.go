//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a testcontainers Redpanda broker.
type RedpandaContainer struct {
	Container testcontainers.Container
	Broker    string
}

// NewRedpandaContainer starts a Redpanda broker and creates the given topics.
func NewRedpandaContainer(t *testing.T, topics ...string) *RedpandaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "redpandadata/redpanda:v24.2.3")
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda broker: %v", err)
	}

	if len(topics) > 0 {
		client, err := kgo.NewClient(kgo.SeedBrokers(broker))
		if err != nil {
			_ = container.Terminate(ctx)
			t.Fatalf("failed to create kafka client: %v", err)
		}
		admin := kadm.NewClient(client)
		if _, err := admin.CreateTopics(ctx, 1, 1, nil, topics...); err != nil {
			client.Close()
			_ = container.Terminate(ctx)
			t.Fatalf("failed to create topics: %v", err)
		}
		client.Close()
	}

	rc := &RedpandaContainer{
		Container: container,
		Broker:    broker,
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	return rc
}
