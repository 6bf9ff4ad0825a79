package rabbitmq

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

func TestBackoff(t *testing.T) {
	base := time.Second
	assert.Equal(t, 1*time.Second, backoff(base, 0))
	assert.Equal(t, 1*time.Second, backoff(base, 1))
	assert.Equal(t, 2*time.Second, backoff(base, 2))
	assert.Equal(t, 8*time.Second, backoff(base, 4))
	assert.Equal(t, maxBackoff, backoff(base, 10))
	assert.Equal(t, maxBackoff, backoff(base, 200))
}

func TestAttemptFromHeaders(t *testing.T) {
	assert.Equal(t, 1, attemptFromHeaders(nil))
	assert.Equal(t, 1, attemptFromHeaders(amqp.Table{"x-death": "garbage"}))
	assert.Equal(t, 3, attemptFromHeaders(amqp.Table{
		"x-death": []interface{}{amqp.Table{}, amqp.Table{}, amqp.Table{}},
	}))
}

func TestConsumerDeliversSubmissionAndStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	received := make(chan []byte, 1)
	consumer, err := NewConsumer(ConsumerConfig{
		URL:         rmqURL,
		RunQueue:    "pipeline.runs",
		Exchange:    "video.intelligence",
		DLQ:         "pipeline.runs.dlq",
		StatusQueue: "pipeline.status",
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, func(_ context.Context, body []byte) error {
		received <- body
		return nil
	}, zap.NewNop())
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go consumer.Start(consumerCtx)

	conn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer conn.Close()

	pub, err := NewPublisher(conn, "video.intelligence")
	require.NoError(t, err)
	defer pub.Close()

	body := []byte(`{"run_id":"00000000-0000-0000-0000-000000000001","videos":["gs://bucket/a.mp4"]}`)
	require.NoError(t, NewRunPublisher(pub, "pipeline.runs").PublishRun(ctx, body))

	select {
	case got := <-received:
		assert.JSONEq(t, string(body), string(got))
	case <-time.After(30 * time.Second):
		t.Fatal("timeout waiting for run submission")
	}

	require.NoError(t, NewStatusPublisher(pub, "pipeline.status").PublishStatus(ctx, []byte(`{"status":"SUCCEEDED"}`)))
	require.NoError(t, NewDLQPublisher(pub, "pipeline.runs.dlq").PublishToDLQ(ctx, []byte(`{bad`), "unmarshal_error"))

	time.Sleep(500 * time.Millisecond)

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	statusMsg, ok, err := ch.Get("pipeline.status", true)
	require.NoError(t, err)
	require.True(t, ok, "status message should be routed to the status queue")
	assert.JSONEq(t, `{"status":"SUCCEEDED"}`, string(statusMsg.Body))

	dlqMsg, ok, err := ch.Get("pipeline.runs.dlq", true)
	require.NoError(t, err)
	require.True(t, ok, "rejected message should be in the DLQ")
	assert.Equal(t, "unmarshal_error", dlqMsg.Headers["x-dlq-reason"])
}
