package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockEnricher is a mock type for the Enricher interface.
type MockEnricher struct {
	mock.Mock
}

// Enrich provides a mock function with given fields: ctx, name, address, masked
func (_m *MockEnricher) Enrich(ctx context.Context, name string, address string, masked string) []string {
	ret := _m.Called(ctx, name, address, masked)

	if len(ret) == 0 {
		panic("no return value specified for Enrich")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) []string); ok {
		return rf(ctx, name, address, masked)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]string)
}

// NewMockEnricher creates a new instance of MockEnricher.
func NewMockEnricher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEnricher {
	mock := &MockEnricher{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
