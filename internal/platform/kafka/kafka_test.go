package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodledger/internal/platform/config"
)

func TestNew_NoBrokersDisablesStreaming(t *testing.T) {
	client, err := New(config.KafkaConfig{AuditTopic: "bloodledger.audit"})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_BuildsClientLazily(t *testing.T) {
	// kgo does not dial until the first request, so an unreachable seed is fine here.
	client, err := New(config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, AuditTopic: "bloodledger.audit"})
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()
}

func TestNewConsumer_NoBrokersDisablesConsumption(t *testing.T) {
	client, err := NewConsumer(config.KafkaConfig{AuditTopic: "bloodledger.audit", ConsumerGroup: "g"})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewConsumer_BuildsGroupClient(t *testing.T) {
	client, err := NewConsumer(config.KafkaConfig{
		Brokers:       []string{"127.0.0.1:1"},
		AuditTopic:    "bloodledger.audit",
		ConsumerGroup: "bloodledger-audit-materializer",
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()
}
