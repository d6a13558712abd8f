package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"waz-calendar/internal/bus"
)

// PublisherMock stands in for an AMQP exchange publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// BusMock records in-process bus messages. Publish has no return, so
// expectations only need .Return() when a test wants Times/Once checks.
type BusMock struct {
	mock.Mock
}

var _ bus.Publisher = (*BusMock)(nil)

func (m *BusMock) Publish(ctx context.Context, msg bus.Message) {
	m.Called(ctx, msg)
}
