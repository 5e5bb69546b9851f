package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestPublishCallsEverySubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32

	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("сбой")
	})
	bus.Subscribe("pong", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 100)
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPublishSurvivesPanickingListener(t *testing.T) {
	bus := New(zap.NewNop())
	var ok int32

	bus.Subscribe("ping", func(ctx context.Context, e Event) error { panic("boom") })
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		atomic.StoreInt32(&ok, 1)
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}
