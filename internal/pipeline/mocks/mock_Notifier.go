package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockNotifier is a mock type for the notify.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

// Notify provides a mock function with given fields: ctx, text
func (_m *MockNotifier) Notify(ctx context.Context, text string) error {
	ret := _m.Called(ctx, text)

	if len(ret) == 0 {
		panic("no return value specified for Notify")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		return rf(ctx, text)
	}
	return ret.Error(0)
}

// NewMockNotifier creates a new instance of MockNotifier.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	mock := &MockNotifier{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
