package port

import "context"

// RunPublisher submits pipeline runs to the worker queue.
type RunPublisher interface {
	PublishRun(ctx context.Context, msg []byte) error
}

// StatusPublisher emits one message per finished task.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
