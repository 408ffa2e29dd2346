// Package mocks provides test doubles for the pipeline collaborators.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	domain "github.com/Pharaon3/bark-automation/internal/domain"
)

// MockMailbox is a mock type for the Mailbox interface.
type MockMailbox struct {
	mock.Mock
}

// List provides a mock function with given fields: ctx, query, max
func (_m *MockMailbox) List(ctx context.Context, query string, max int) ([]string, error) {
	ret := _m.Called(ctx, query, max)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]string, error)); ok {
		return rf(ctx, query, max)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Get provides a mock function with given fields: ctx, id
func (_m *MockMailbox) Get(ctx context.Context, id string) (domain.Payload, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (domain.Payload, error)); ok {
		return rf(ctx, id)
	}
	return ret.Get(0).(domain.Payload), ret.Error(1)
}

// NewMockMailbox creates a new instance of MockMailbox.
func NewMockMailbox(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMailbox {
	mock := &MockMailbox{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
