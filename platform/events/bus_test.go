package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"salesflow_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls atomic.Int32

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		return errors.New("ignored")
	}))
	bus.Subscribe("test.other", HandlerFunc(func(ctx context.Context, e Event) error {
		t.Errorf("unexpected dispatch to other event")
		return nil
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	assert.Equal(t, int32(2), calls.Load())
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	first := errors.New("first")
	second := errors.New("second")

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error { return first }))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error { return second }))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		panic("boom")
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()
}
